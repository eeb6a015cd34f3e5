package ragkit

import (
	"context"
	"testing"

	"github.com/poiesic/ragkit/ai/mock"
	"github.com/poiesic/ragkit/document"
	"github.com/poiesic/ragkit/vectorstore"
	"github.com/poiesic/ragkit/vectorstore/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	backend, err := badger.OpenBackend("")
	require.NoError(t, err)

	client, err := NewClient(
		WithBackend(backend),
		WithProvider(mock.NewProvider()),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, client.Close())
	})
	return client
}

func TestClient_UpsertAndQuery(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	ns, err := client.Namespace("docs")
	require.NoError(t, err)
	assert.Equal(t, "docs", ns.Name())

	doc, err := document.New("the document text", document.WithTokens(3))
	require.NoError(t, err)

	err = ns.Upsert(ctx, vectorstore.UpsertRequest{Documents: []document.Document{doc}})
	require.NoError(t, err)

	hits, err := ns.Query(ctx, vectorstore.QueryRequest{Text: "the document text"})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, doc.ID, hits[0].ID)
	assert.Equal(t, "the document text", hits[0].Text())
}

func TestClient_NamespacesShareBackend(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	a, err := client.Namespace("a")
	require.NoError(t, err)
	b, err := client.Namespace("b")
	require.NoError(t, err)

	doc, err := document.New("only in a", document.WithTokens(3))
	require.NoError(t, err)
	require.NoError(t, a.Upsert(ctx, vectorstore.UpsertRequest{Documents: []document.Document{doc}}))

	ok, err := a.Ok(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Ok(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDefaultHome_EnvOverride(t *testing.T) {
	t.Setenv("RAGKIT_HOME", "/tmp/ragkit-test-home")
	assert.Equal(t, "/tmp/ragkit-test-home", DefaultHome())
}
