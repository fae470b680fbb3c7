package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalNoEscapeKeepsAngleBrackets(t *testing.T) {
	out, err := MarshalNoEscape(map[string]string{"sierra": "felt252_const<7> & co"})
	require.NoError(t, err)
	assert.Equal(t, `{"sierra":"felt252_const<7> & co"}`, string(out))
}

func TestMarshalNoEscapeIndent(t *testing.T) {
	out, err := MarshalNoEscapeIndent([]string{"a<b"}, "", "  ")
	require.NoError(t, err)
	assert.Equal(t, "[\n  \"a<b\"\n]", string(out))
}
