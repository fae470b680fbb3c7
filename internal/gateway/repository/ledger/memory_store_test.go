package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreAppendAssignsID(t *testing.T) {
	s := NewMemoryStore(4)
	e, err := s.Append(context.Background(), Entry{Call: "compile", Crate: " app ", Success: true})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "app", e.Crate)
	assert.False(t, e.CreatedAt.IsZero())

	got, err := s.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestMemoryStoreRequiresCall(t *testing.T) {
	_, err := NewMemoryStore(1).Append(context.Background(), Entry{})
	assert.Error(t, err)
}

func TestMemoryStoreRecentIsNewestFirstAndBounded(t *testing.T) {
	s := NewMemoryStore(3)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c", "d"} {
		_, err := s.Append(context.Background(), Entry{ID: id, Call: "run_sierra", CreatedAt: base.Add(time.Duration(i) * time.Second)})
		require.NoError(t, err)
	}

	recent, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	ids := make([]string, 0, len(recent))
	for _, e := range recent {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"d", "c", "b"}, ids)

	_, err = s.Get(context.Background(), "a")
	assert.ErrorIs(t, err, ErrNotFound)

	two, err := s.Recent(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestMemoryStoreEmpty(t *testing.T) {
	recent, err := NewMemoryStore(2).Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
