package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/embeddings"
)

// stubEncoder maps texts to fixed vectors so rankings are known exactly.
type stubEncoder struct {
	vectors    map[string][]float32
	batchCalls int
}

func (s *stubEncoder) Embed(_ context.Context, text string) ([]float32, error) {
	v, ok := s.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no stub vector for %q", text)
	}
	return v, nil
}

func (s *stubEncoder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return s.Embed(ctx, text)
}

func (s *stubEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	s.batchCalls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		// Copy so store-side normalization never mutates the fixture.
		out[i] = append([]float32(nil), v...)
	}
	return out, nil
}

func (s *stubEncoder) Dimensions() int               { return 3 }
func (s *stubEncoder) Provider() embeddings.Provider { return embeddings.ProviderOllama }
func (s *stubEncoder) ModelName() string             { return "stub-model" }

var _ embeddings.Service = (*stubEncoder)(nil)

type testFixture struct {
	store        *Store
	encoder      *stubEncoder
	factoryCalls int
}

func newTestFixture(t *testing.T, dir string) *testFixture {
	t.Helper()
	f := &testFixture{
		encoder: &stubEncoder{vectors: map[string][]float32{
			"alpha gold uplift": {1, 0, 0},
			"alpha auto renew":  {0.8, 0.6, 0},
			"beta plus upgrade": {0, 1, 0},
			"beta coupon":       {0, 0, 1},
			"gold or renew":     {1, 0, 0},
			"something else":    {0, 0.6, 0.8},
		}},
	}
	store, err := New(Config{
		Model:     "stub-model",
		IndexFile: "facts.idx",
		MetaFile:  "facts_meta.db",
		Normalize: true,
	}, dir, func() (embeddings.Service, error) {
		f.factoryCalls++
		return f.encoder, nil
	})
	require.NoError(t, err)
	f.store = store
	return f
}

func testDocs() []Document {
	return []Document{
		{ID: "nba_fact:1:a", Text: "alpha gold uplift", Metadata: map[string]any{"persona_id": 1, "tenure_bucket": "0-1y"}},
		{ID: "nba_fact:1:b", Text: "alpha auto renew", Metadata: map[string]any{"persona_id": 1, "tenure_bucket": "1-3y"}},
		{ID: "nba_fact:2:a", Text: "beta plus upgrade", Metadata: map[string]any{"persona_id": 2, "tenure_bucket": "0-1y"}},
		{ID: "nba_fact:2:b", Text: "beta coupon", Metadata: map[string]any{"persona_id": 2, "tenure_bucket": "3y+"}},
	}
}

func TestNewConfigValidation(t *testing.T) {
	factory := func() (embeddings.Service, error) { return &stubEncoder{}, nil }

	_, err := New(Config{IndexFile: "a", MetaFile: "b"}, t.TempDir(), factory)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = New(Config{Model: "m", IndexFile: "a", MetaFile: "b"}, t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = New(Config{Model: "m"}, t.TempDir(), factory)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestSearchBeforeInit(t *testing.T) {
	f := newTestFixture(t, t.TempDir())
	_, err := f.store.Search(context.Background(), "gold or renew", 5, nil)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Equal(t, 0, f.factoryCalls)
}

func TestBuildAndSearchRanking(t *testing.T) {
	f := newTestFixture(t, t.TempDir())
	ctx := context.Background()

	require.NoError(t, f.store.BuildFromDocs(ctx, testDocs()))
	assert.Equal(t, 4, f.store.Len())
	assert.Equal(t, 3, f.store.Dimensions())
	// One batch encode for the whole corpus.
	assert.Equal(t, 1, f.encoder.batchCalls)

	results, err := f.store.Search(ctx, "gold or renew", 3, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "nba_fact:1:a", results[0].Fields["doc_id"])
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "nba_fact:1:b", results[1].Fields["doc_id"])
	assert.InDelta(t, 0.8, results[1].Score, 1e-6)
	assert.Greater(t, results[1].Score, results[2].Score)
}

func TestSearchTopKBound(t *testing.T) {
	f := newTestFixture(t, t.TempDir())
	ctx := context.Background()
	require.NoError(t, f.store.BuildFromDocs(ctx, testDocs()))

	results, err := f.store.Search(ctx, "gold or renew", 2, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = f.store.Search(ctx, "gold or renew", 0, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchWithFilter(t *testing.T) {
	f := newTestFixture(t, t.TempDir())
	ctx := context.Background()
	require.NoError(t, f.store.BuildFromDocs(ctx, testDocs()))

	results, err := f.store.Search(ctx, "gold or renew", 5, map[string]any{"persona_id": 1})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, int64(1), r.Fields["persona_id"])
	}
	assert.Equal(t, "nba_fact:1:a", results[0].Fields["doc_id"])
	assert.Equal(t, "nba_fact:1:b", results[1].Fields["doc_id"])

	// Multiple filter keys are conjunctive.
	results, err = f.store.Search(ctx, "gold or renew", 5,
		map[string]any{"persona_id": 2, "tenure_bucket": "3y+"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "nba_fact:2:b", results[0].Fields["doc_id"])
}

func TestSearchEmptyFilterSubsetSkipsEncoder(t *testing.T) {
	f := newTestFixture(t, t.TempDir())
	ctx := context.Background()
	require.NoError(t, f.store.BuildFromDocs(ctx, testDocs()))
	callsAfterBuild := f.encoder.batchCalls

	results, err := f.store.Search(ctx, "gold or renew", 5, map[string]any{"persona_id": 99})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Equal(t, callsAfterBuild, f.encoder.batchCalls)

	// Unknown filter key behaves the same as an unmatched value.
	results, err = f.store.Search(ctx, "gold or renew", 5, map[string]any{"no_such_key": "x"})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, callsAfterBuild, f.encoder.batchCalls)
}

func TestEncoderConstructedLazilyAndOnce(t *testing.T) {
	f := newTestFixture(t, t.TempDir())
	ctx := context.Background()
	assert.Equal(t, 0, f.factoryCalls)

	require.NoError(t, f.store.BuildFromDocs(ctx, testDocs()))
	assert.Equal(t, 1, f.factoryCalls)

	_, err := f.store.Search(ctx, "gold or renew", 2, nil)
	require.NoError(t, err)
	_, err = f.store.Search(ctx, "gold or renew", 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.factoryCalls)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	builder := newTestFixture(t, dir)
	require.NoError(t, builder.store.BuildFromDocs(ctx, testDocs()))
	want, err := builder.store.Search(ctx, "gold or renew", 4, nil)
	require.NoError(t, err)
	require.NoError(t, builder.store.Save())

	server := newTestFixture(t, dir)
	require.NoError(t, server.store.Load())
	assert.Equal(t, builder.store.Len(), server.store.Len())

	got, err := server.store.Search(ctx, "gold or renew", 4, nil)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Fields["doc_id"], got[i].Fields["doc_id"])
		assert.Equal(t, want[i].Fields["persona_id"], got[i].Fields["persona_id"])
		assert.InDelta(t, want[i].Score, got[i].Score, 1e-9)
	}
}

func TestSaveNothing(t *testing.T) {
	f := newTestFixture(t, t.TempDir())
	assert.ErrorIs(t, f.store.Save(), ErrNothingToSave)
}

func TestLoadMissingFiles(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	f := newTestFixture(t, dir)
	assert.ErrorIs(t, f.store.Load(), ErrNotFound)

	// One file of the pair missing is not a partial success.
	require.NoError(t, f.store.BuildFromDocs(ctx, testDocs()))
	require.NoError(t, f.store.Save())
	require.NoError(t, os.Remove(filepath.Join(dir, "facts.idx")))

	fresh := newTestFixture(t, dir)
	assert.ErrorIs(t, fresh.store.Load(), ErrNotFound)
}

func TestLoadSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	f := newTestFixture(t, dir)
	require.NoError(t, f.store.BuildFromDocs(ctx, testDocs()))
	require.NoError(t, f.store.Save())

	// Overwrite the index with fewer vectors than the metadata has rows.
	short := NewFlatIndex()
	require.NoError(t, short.Add([][]float32{{1, 0, 0}}))
	require.NoError(t, short.WriteFile(filepath.Join(dir, "facts.idx")))

	fresh := newTestFixture(t, dir)
	assert.ErrorIs(t, fresh.store.Load(), ErrCorrupt)
}
