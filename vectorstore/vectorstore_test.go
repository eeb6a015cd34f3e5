package vectorstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/ragkit/ai/mock"
	"github.com/poiesic/ragkit/document"
	"github.com/poiesic/ragkit/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-memory Backend for exercising the Namespace logic
// without a real store. WriteRowsFunc allows fault injection.
type fakeBackend struct {
	WriteRowsFunc func(ctx context.Context, namespace string, rows []Row) error

	mu         sync.Mutex
	namespaces map[string]map[string]Row
	writeCalls [][]Row
	closed     bool
}

var _ Backend = (*fakeBackend)(nil)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{namespaces: make(map[string]map[string]Row)}
}

func (f *fakeBackend) WriteRows(ctx context.Context, namespace string, rows []Row) error {
	if f.WriteRowsFunc != nil {
		if err := f.WriteRowsFunc(ctx, namespace, rows); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ns, ok := f.namespaces[namespace]
	if !ok {
		ns = make(map[string]Row)
		f.namespaces[namespace] = ns
	}
	for _, r := range rows {
		ns[r.ID] = r
	}
	f.writeCalls = append(f.writeCalls, rows)
	return nil
}

func (f *fakeBackend) QueryRows(_ context.Context, namespace string, vector []float32, topK int, filter map[string]string) ([]ScoredRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ns, ok := f.namespaces[namespace]
	if !ok {
		return nil, ErrNotFound
	}

	var hits []ScoredRow
rows:
	for _, r := range ns {
		for k, v := range filter {
			if r.Attributes[k] != v {
				continue rows
			}
		}
		var score float32
		for i := 0; i < len(vector) && i < len(r.Vector); i++ {
			score += vector[i] * r.Vector[i]
		}
		hits = append(hits, ScoredRow{Row: r, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (f *fakeBackend) DeleteRows(_ context.Context, namespace string, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ns := f.namespaces[namespace]
	for _, id := range ids {
		delete(ns, id)
	}
	return nil
}

func (f *fakeBackend) DeleteAll(_ context.Context, namespace string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.namespaces[namespace]; !ok {
		return ErrNotFound
	}
	delete(f.namespaces, namespace)
	return nil
}

func (f *fakeBackend) NamespaceExists(_ context.Context, namespace string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ns, ok := f.namespaces[namespace]
	return ok && len(ns) > 0, nil
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeBackend) rowCount(namespace string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.namespaces[namespace])
}

func newTestNamespace(t *testing.T) (*Namespace, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	ns, err := NewNamespace(backend, mock.NewEmbedder(), WithName("test"))
	require.NoError(t, err)
	return ns, backend
}

func mustDocument(t *testing.T, text string) document.Document {
	t.Helper()
	doc, err := document.New(text, document.WithTokens(1))
	require.NoError(t, err)
	return doc
}

func TestNewNamespace_Validation(t *testing.T) {
	_, err := NewNamespace(nil, mock.NewEmbedder())
	assert.ErrorIs(t, err, ErrBackendRequired)

	_, err = NewNamespace(newFakeBackend(), nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	ns, err := NewNamespace(newFakeBackend(), mock.NewEmbedder())
	require.NoError(t, err)
	assert.Equal(t, DefaultNamespace, ns.Name())
}

func TestUpsert_Documents(t *testing.T) {
	ns, backend := newTestNamespace(t)
	ctx := context.Background()

	docs := []document.Document{
		mustDocument(t, "the first document"),
		mustDocument(t, "the second document"),
	}
	err := ns.Upsert(ctx, UpsertRequest{
		Documents:  docs,
		Attributes: map[string]string{"source": "unit"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, backend.rowCount("test"))

	// Document text lands in the reserved attribute alongside custom ones.
	hits, err := ns.Query(ctx, QueryRequest{Text: "the first document"})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "the first document", hits[0].Text())
	assert.Equal(t, "unit", hits[0].Attributes["source"])
	assert.Equal(t, docs[0].ID, hits[0].ID)
}

func TestUpsert_Rows(t *testing.T) {
	ns, backend := newTestNamespace(t)

	err := ns.Upsert(context.Background(), UpsertRequest{
		Rows: []Row{{ID: "row_1", Vector: []float32{1, 0}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, backend.rowCount("test"))
}

func TestUpsert_InvalidInput(t *testing.T) {
	ns, _ := newTestNamespace(t)
	ctx := context.Background()

	err := ns.Upsert(ctx, UpsertRequest{})
	assert.ErrorIs(t, err, ErrNoUpsertInput)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = ns.Upsert(ctx, UpsertRequest{
		Documents:  []document.Document{mustDocument(t, "text")},
		Attributes: map[string]string{TextAttribute: "clobbered"},
	})
	assert.ErrorIs(t, err, ErrReservedAttribute)
}

func TestQuery_ByVector(t *testing.T) {
	ns, _ := newTestNamespace(t)
	ctx := context.Background()

	require.NoError(t, ns.Upsert(ctx, UpsertRequest{Rows: []Row{
		{ID: "a", Vector: []float32{1, 0}},
		{ID: "b", Vector: []float32{0, 1}},
	}}))

	hits, err := ns.Query(ctx, QueryRequest{Vector: []float32{1, 0}, TopK: 1})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)
}

func TestQuery_MissingNamespaceReturnsEmpty(t *testing.T) {
	ns, _ := newTestNamespace(t)

	hits, err := ns.Query(context.Background(), QueryRequest{Text: "anything"})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestQuery_NoInput(t *testing.T) {
	ns, _ := newTestNamespace(t)

	_, err := ns.Query(context.Background(), QueryRequest{})
	assert.ErrorIs(t, err, ErrNoQueryInput)
}

func TestQuery_Filter(t *testing.T) {
	ns, _ := newTestNamespace(t)
	ctx := context.Background()

	require.NoError(t, ns.Upsert(ctx, UpsertRequest{Rows: []Row{
		{ID: "a", Vector: []float32{1, 0}, Attributes: map[string]string{"lang": "go"}},
		{ID: "b", Vector: []float32{1, 0}, Attributes: map[string]string{"lang": "py"}},
	}}))

	hits, err := ns.Query(ctx, QueryRequest{
		Vector: []float32{1, 0},
		Filter: map[string]string{"lang": "go"},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)
}

func TestDelete(t *testing.T) {
	ns, backend := newTestNamespace(t)
	ctx := context.Background()

	require.NoError(t, ns.Upsert(ctx, UpsertRequest{Rows: []Row{
		{ID: "a", Vector: []float32{1}},
		{ID: "b", Vector: []float32{1}},
	}}))

	require.NoError(t, ns.Delete(ctx, "a"))
	assert.Equal(t, 1, backend.rowCount("test"))

	err := ns.Delete(ctx)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestReset_Idempotent(t *testing.T) {
	ns, backend := newTestNamespace(t)
	ctx := context.Background()

	// Resetting a namespace that never existed is fine.
	require.NoError(t, ns.Reset(ctx))

	require.NoError(t, ns.Upsert(ctx, UpsertRequest{Rows: []Row{{ID: "a", Vector: []float32{1}}}}))
	require.NoError(t, ns.Reset(ctx))
	assert.Equal(t, 0, backend.rowCount("test"))

	// And again after it is gone.
	require.NoError(t, ns.Reset(ctx))
}

func TestOk(t *testing.T) {
	ns, _ := newTestNamespace(t)
	ctx := context.Background()

	ok, err := ns.Ok(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ns.Upsert(ctx, UpsertRequest{Rows: []Row{{ID: "a", Vector: []float32{1}}}}))

	ok, err = ns.Ok(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpsertBatched_Partitioning(t *testing.T) {
	ns, backend := newTestNamespace(t)

	docs := make([]document.Document, 250)
	for i := range docs {
		docs[i] = mustDocument(t, strings.Repeat("x ", i+1))
	}

	err := ns.UpsertBatched(context.Background(), docs, WithBatchSize(100), WithBatchConcurrency(2))
	require.NoError(t, err)

	assert.Equal(t, 250, backend.rowCount("test"))
	require.Len(t, backend.writeCalls, 3)

	sizes := []int{len(backend.writeCalls[0]), len(backend.writeCalls[1]), len(backend.writeCalls[2])}
	sort.Ints(sizes)
	assert.Equal(t, []int{50, 100, 100}, sizes)
}

func TestUpsertBatched_Empty(t *testing.T) {
	ns, backend := newTestNamespace(t)

	require.NoError(t, ns.UpsertBatched(context.Background(), nil))
	assert.Empty(t, backend.writeCalls)
}

func TestUpsertBatched_FailFast(t *testing.T) {
	backend := newFakeBackend()
	boom := errors.New("backend down")
	backend.WriteRowsFunc = func(_ context.Context, _ string, rows []Row) error {
		if rows[0].ID == "doc_fail" {
			return boom
		}
		return nil
	}

	ns, err := NewNamespace(backend, mock.NewEmbedder(), WithName("test"))
	require.NoError(t, err)

	failing, err := document.New("bad batch", document.WithID("doc_fail"), document.WithTokens(1))
	require.NoError(t, err)
	docs := []document.Document{mustDocument(t, "fine"), failing}

	err = ns.UpsertBatched(context.Background(), docs, WithBatchSize(1), WithBatchConcurrency(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrPartialBatchFailure)
}

func TestUpsertBatched_SkipErrors(t *testing.T) {
	backend := newFakeBackend()
	boom := errors.New("backend down")
	backend.WriteRowsFunc = func(_ context.Context, _ string, rows []Row) error {
		if rows[0].ID == "doc_fail" {
			return boom
		}
		return nil
	}

	ns, err := NewNamespace(backend, mock.NewEmbedder(), WithName("test"))
	require.NoError(t, err)

	failing, err := document.New("bad batch", document.WithID("doc_fail"), document.WithTokens(1))
	require.NoError(t, err)
	docs := []document.Document{mustDocument(t, "one"), failing, mustDocument(t, "three")}

	err = ns.UpsertBatched(context.Background(), docs,
		WithBatchSize(1), WithBatchConcurrency(1), WithSkipErrors())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPartialBatchFailure)
	assert.ErrorIs(t, err, boom)

	// The healthy batches still landed.
	assert.Equal(t, 2, backend.rowCount("test"))
}

func newQueryTestTokenizer(t *testing.T) *tokenizer.Tokenizer {
	t.Helper()
	tok, err := tokenizer.New(tokenizer.WithCodec(fieldsCodec{}))
	require.NoError(t, err)
	return tok
}

// fieldsCodec maps each word to a fixed id space for offline token math.
type fieldsCodec struct{}

func (fieldsCodec) Encode(text string) []int {
	return make([]int, len(strings.Fields(text)))
}

func (fieldsCodec) Decode(tokens []int) string {
	return strings.TrimSpace(strings.Repeat("w ", len(tokens)))
}

func TestQueryNamespace(t *testing.T) {
	ns, _ := newTestNamespace(t)
	ctx := context.Background()

	require.NoError(t, ns.Upsert(ctx, UpsertRequest{Documents: []document.Document{
		mustDocument(t, "alpha beta gamma"),
		mustDocument(t, "delta epsilon"),
	}}))

	tok := newQueryTestTokenizer(t)
	out, err := QueryNamespace(ctx, ns, "alpha", WithQueryTokenizer(tok))
	require.NoError(t, err)

	// Both hit texts come back, newline-joined.
	assert.Contains(t, out, "alpha beta gamma")
	assert.Contains(t, out, "delta epsilon")

	// The cap truncates to a token count, not a character count.
	capped, err := QueryNamespace(ctx, ns, "alpha",
		WithQueryTokenizer(tok), WithMaxTokens(2))
	require.NoError(t, err)
	assert.Equal(t, 2, tok.CountTokens(capped))
}

func TestQueryNamespace_EmptyNamespace(t *testing.T) {
	ns, _ := newTestNamespace(t)

	out, err := QueryNamespace(context.Background(), ns, "anything",
		WithQueryTokenizer(newQueryTestTokenizer(t)))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMultiQuery(t *testing.T) {
	ns, _ := newTestNamespace(t)
	ctx := context.Background()

	require.NoError(t, ns.Upsert(ctx, UpsertRequest{Documents: []document.Document{
		mustDocument(t, strings.Repeat("alpha ", 50)),
		mustDocument(t, strings.Repeat("beta ", 50)),
	}}))

	tok := newQueryTestTokenizer(t)
	out, err := MultiQuery(ctx, ns, []string{"alpha", "beta"},
		WithQueryTokenizer(tok), WithMaxTokens(20))
	require.NoError(t, err)

	// Two queries share the budget: each section is capped at 10 tokens.
	sections := strings.Split(out, "\n\n")
	require.Len(t, sections, 2)
	for _, s := range sections {
		assert.LessOrEqual(t, tok.CountTokens(s), 10)
	}

	_, err = MultiQuery(ctx, ns, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRowSerialization_RoundTrip(t *testing.T) {
	row := Row{
		ID:     "doc_123",
		Vector: []float32{0.5, -1.25, 3},
		Attributes: map[string]string{
			"text":   "some stored text",
			"source": "unit",
		},
	}

	decoded, err := UnmarshalRow(MarshalRow(row))
	require.NoError(t, err)
	assert.Equal(t, row, decoded)

	// Truncated input must fail, not panic.
	data := MarshalRow(row)
	_, err = UnmarshalRow(data[:len(data)/2])
	assert.Error(t, err)
}
