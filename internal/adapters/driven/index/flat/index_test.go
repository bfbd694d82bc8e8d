package flat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
)

func TestNew(t *testing.T) {
	idx, err := New(3)
	require.NoError(t, err)
	require.NotNil(t, idx)

	_, err = New(0)
	assert.Error(t, err)
	_, err = New(-1)
	assert.Error(t, err)
}

func TestAddDimensionMismatch(t *testing.T) {
	idx, err := New(3)
	require.NoError(t, err)

	err = idx.Add(context.Background(), "c1", []float32{1, 0})
	assert.Error(t, err)
	assert.Equal(t, 0, idx.Len())
}

func TestSearchEmptyIndex(t *testing.T) {
	idx, err := New(3)
	require.NoError(t, err)

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchOrdersBySimilarity(t *testing.T) {
	idx, err := New(3)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "aligned", []float32{1, 0, 0}))
	require.NoError(t, idx.Add(ctx, "close", []float32{1, 1, 0}))
	require.NoError(t, idx.Add(ctx, "orthogonal", []float32{0, 0, 1}))

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "aligned", hits[0].ChunkID)
	assert.Equal(t, "close", hits[1].ChunkID)
	assert.Equal(t, "orthogonal", hits[2].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.InDelta(t, 0.0, hits[2].Similarity, 1e-6)
}

func TestSearchScaleInvariance(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "unit", []float32{1, 0}))
	require.NoError(t, idx.Add(ctx, "scaled", []float32{100, 0}))

	hits, err := idx.Search(ctx, []float32{3, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.InDelta(t, hits[0].Similarity, hits[1].Similarity, 1e-6)
}

func TestSearchFewerThanK(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "only", []float32{1, 0}))

	hits, err := idx.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSearchTruncatesToK(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, idx.Add(ctx, id, []float32{1, 0}))
	}

	hits, err := idx.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	// Equal similarity breaks ties on chunk id.
	assert.Equal(t, "a", hits[0].ChunkID)
	assert.Equal(t, "b", hits[1].ChunkID)
}

func TestClosedIndex(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	err = idx.Add(context.Background(), "c1", []float32{1, 0})
	assert.ErrorIs(t, err, domain.ErrIndexClosed)

	_, err = idx.Search(context.Background(), []float32{1, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrIndexClosed)
}
