package searchindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *Index {
	ix, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })
	return ix
}

func TestSyncAndMatch(t *testing.T) {
	ix := newTestIndex(t)

	require.NoError(t, ix.Sync(1, "Hello, World!", "first post about cats"))
	require.NoError(t, ix.Sync(2, "Second Post", "this one covers gardening"))

	hits, err := ix.Match("cats", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].ID)
	assert.Less(t, hits[0].Score, 0.0, "lower score means better match, so scores are negative")

	hits, err = ix.Match("gardening", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(2), hits[0].ID)
}

func TestMatchRequiresAllTerms(t *testing.T) {
	ix := newTestIndex(t)

	require.NoError(t, ix.Sync(1, "Cats", "a post only about cats"))

	hits, err := ix.Match("cats dogs", 10)
	require.NoError(t, err)
	assert.Empty(t, hits, "a document matching only one term must not match a two-term query")

	hits, err = ix.Match("post cats", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].ID)
}

func TestMatchTitleField(t *testing.T) {
	ix := newTestIndex(t)

	require.NoError(t, ix.Sync(7, "Cooking Tips", "nothing else in here"))

	hits, err := ix.Match("cooking", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(7), hits[0].ID)
}

func TestMatchEmptyQuery(t *testing.T) {
	ix := newTestIndex(t)
	require.NoError(t, ix.Sync(1, "Hello", "world"))

	for _, query := range []string{"", "   "} {
		hits, err := ix.Match(query, 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	}
}

func TestMatchNoResults(t *testing.T) {
	ix := newTestIndex(t)
	require.NoError(t, ix.Sync(1, "Hello, World!", "first post about cats"))

	hits, err := ix.Match("dogs", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSyncIsIdempotent(t *testing.T) {
	ix := newTestIndex(t)

	require.NoError(t, ix.Sync(1, "Hello", "about cats"))
	require.NoError(t, ix.Sync(1, "Hello", "about cats"))
	require.NoError(t, ix.Sync(1, "Hello", "about cats"))

	count, err := ix.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	hits, err := ix.Match("cats", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSyncOverwrites(t *testing.T) {
	ix := newTestIndex(t)

	require.NoError(t, ix.Sync(1, "Hello", "about cats"))
	require.NoError(t, ix.Sync(1, "Hello", "about dogs"))

	hits, err := ix.Match("cats", 10)
	require.NoError(t, err)
	assert.Empty(t, hits, "stale terms must not match after a re-sync")

	hits, err = ix.Match("dogs", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].ID)
}

func TestAllIDs(t *testing.T) {
	ix := newTestIndex(t)

	require.NoError(t, ix.Sync(1, "a", "x"))
	require.NoError(t, ix.Sync(2, "b", "y"))
	require.NoError(t, ix.Sync(3, "c", "z"))

	ids, err := ix.AllIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 3}, ids)
}

func TestClosedIndex(t *testing.T) {
	ix, err := Open("")
	require.NoError(t, err)
	require.NoError(t, ix.Close())

	assert.Error(t, ix.Sync(1, "a", "b"))
	_, err = ix.Match("a", 10)
	assert.Error(t, err)
}
