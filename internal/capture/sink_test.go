package capture

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkAppendsInOrder(t *testing.T) {
	s := NewSink()
	_, err := s.WriteString("Hello ")
	require.NoError(t, err)
	_, err = fmt.Fprintf(s, "%s\n", "World")
	require.NoError(t, err)

	assert.Equal(t, "Hello World\n", s.String())
	assert.Equal(t, 12, s.Len())
}

func TestFreshSinksAreIndependent(t *testing.T) {
	first := NewSink()
	_, _ = first.WriteString("printed")

	second := NewSink()
	assert.Empty(t, second.String())
	assert.Equal(t, "printed", first.String())
}

func TestNilSinkReadsEmpty(t *testing.T) {
	var s *Sink
	assert.Equal(t, "", s.String())
	assert.Equal(t, 0, s.Len())
}
