package badger

import (
	"context"
	"testing"

	"github.com/poiesic/ragkit/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	backend, err := OpenBackend("")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, backend.Close())
	})
	return backend
}

func testRows() []vectorstore.Row {
	return []vectorstore.Row{
		{ID: "a", Vector: []float32{1, 0, 0}, Attributes: map[string]string{"text": "alpha", "lang": "go"}},
		{ID: "b", Vector: []float32{0, 1, 0}, Attributes: map[string]string{"text": "beta", "lang": "go"}},
		{ID: "c", Vector: []float32{0.9, 0.1, 0}, Attributes: map[string]string{"text": "gamma", "lang": "py"}},
	}
}

func TestWriteAndQueryRows(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.WriteRows(ctx, "ns", testRows()))

	hits, err := backend.QueryRows(ctx, "ns", []float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	// Nearest first: exact match, then the almost-parallel vector.
	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, "c", hits[1].ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
	assert.InDelta(t, 1.0, float64(hits[0].Score), 1e-5)
	assert.Equal(t, "alpha", hits[0].Text())
}

func TestQueryRows_Filter(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.WriteRows(ctx, "ns", testRows()))

	hits, err := backend.QueryRows(ctx, "ns", []float32{1, 0, 0}, 10,
		map[string]string{"lang": "go"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.Equal(t, "go", h.Attributes["lang"])
	}
}

func TestQueryRows_MissingNamespace(t *testing.T) {
	backend := newTestBackend(t)

	_, err := backend.QueryRows(context.Background(), "nope", []float32{1}, 10, nil)
	assert.ErrorIs(t, err, vectorstore.ErrNotFound)
}

func TestWriteRows_Replace(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.WriteRows(ctx, "ns", []vectorstore.Row{
		{ID: "a", Vector: []float32{1, 0}, Attributes: map[string]string{"text": "old"}},
	}))
	require.NoError(t, backend.WriteRows(ctx, "ns", []vectorstore.Row{
		{ID: "a", Vector: []float32{0, 1}, Attributes: map[string]string{"text": "new"}},
	}))

	hits, err := backend.QueryRows(ctx, "ns", []float32{0, 1}, 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "new", hits[0].Text())
}

func TestDeleteRows(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.WriteRows(ctx, "ns", testRows()))
	require.NoError(t, backend.DeleteRows(ctx, "ns", []string{"a", "missing"}))

	hits, err := backend.QueryRows(ctx, "ns", []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	for _, h := range hits {
		assert.NotEqual(t, "a", h.ID)
	}
}

func TestDeleteAll(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.WriteRows(ctx, "ns", testRows()))
	require.NoError(t, backend.WriteRows(ctx, "other", testRows()[:1]))

	require.NoError(t, backend.DeleteAll(ctx, "ns"))

	exists, err := backend.NamespaceExists(ctx, "ns")
	require.NoError(t, err)
	assert.False(t, exists)

	// Other namespaces are untouched.
	exists, err = backend.NamespaceExists(ctx, "other")
	require.NoError(t, err)
	assert.True(t, exists)

	// A second delete reports the namespace as gone.
	assert.ErrorIs(t, backend.DeleteAll(ctx, "ns"), vectorstore.ErrNotFound)
}

func TestNamespaceExists(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	exists, err := backend.NamespaceExists(ctx, "ns")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, backend.WriteRows(ctx, "ns", testRows()[:1]))

	exists, err = backend.NamespaceExists(ctx, "ns")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOpenBackend_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	backend, err := OpenBackend(dir)
	require.NoError(t, err)

	require.NoError(t, backend.WriteRows(ctx, "ns", testRows()))
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	// Rows survive a close/reopen cycle.
	backend, err = OpenBackend(dir)
	require.NoError(t, err)
	defer backend.Close()

	hits, err := backend.QueryRows(ctx, "ns", []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, float64(cosineSimilarity([]float32{2, 0}, []float32{5, 0})), 1e-6)
	assert.InDelta(t, 0.0, float64(cosineSimilarity([]float32{1, 0}, []float32{0, 1})), 1e-6)
	assert.InDelta(t, -1.0, float64(cosineSimilarity([]float32{1, 0}, []float32{-3, 0})), 1e-6)
	assert.Equal(t, float32(0), cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
