package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/embeddings"
)

// OverfetchFactor is how many candidates are fetched per requested
// result when a metadata filter is applied. Chosen to make it likely
// enough post-filter matches surface without scanning the entire index;
// a heuristic, not a guarantee. If fewer than topK filtered matches fall
// inside the over-fetched window, matches deeper in the index are
// missed. The corpus stays small enough that this accepted gap has not
// mattered in practice.
const OverfetchFactor = 5

// Config controls encoder selection and on-disk file names. Immutable
// after construction.
type Config struct {
	Provider  string
	Model     string
	IndexFile string
	MetaFile  string
	Normalize bool
}

// EncoderFactory constructs the embedding encoder. The store calls it at
// most once, on first use; encoders are expensive to construct.
type EncoderFactory func() (embeddings.Service, error)

// Result is one search hit: the document's metadata fields (including
// doc_id) plus its similarity score.
type Result struct {
	Fields map[string]any
	Score  float64
}

// Store owns the encoder, the flat index, and the metadata table. It is
// used either for build-then-save (offline indexing) or load-then-search
// (serving); after load completes the store is read-only and safe to
// share between concurrent readers.
type Store struct {
	cfg     Config
	baseDir string

	newEncoder EncoderFactory
	encoder    embeddings.Service

	index *FlatIndex
	meta  *Metadata
}

// New creates an empty store. The encoder is constructed lazily via
// newEncoder on first use and cached on the store, never in package
// state, so test fixtures and multiple stores share nothing.
func New(cfg Config, baseDir string, newEncoder EncoderFactory) (*Store, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: encoder model is required", ErrConfig)
	}
	if newEncoder == nil {
		return nil, fmt.Errorf("%w: encoder factory is required", ErrConfig)
	}
	if cfg.IndexFile == "" || cfg.MetaFile == "" {
		return nil, fmt.Errorf("%w: index and metadata file names are required", ErrConfig)
	}
	return &Store{cfg: cfg, baseDir: baseDir, newEncoder: newEncoder}, nil
}

// Len returns the number of indexed documents, 0 before build/load.
func (s *Store) Len() int {
	if s.index == nil {
		return 0
	}
	return s.index.Len()
}

// Dimensions returns the embedding dimension, 0 before build/load.
func (s *Store) Dimensions() int {
	if s.index == nil {
		return 0
	}
	return s.index.Dimensions()
}

// getEncoder returns the cached encoder, constructing it on first use.
func (s *Store) getEncoder() (embeddings.Service, error) {
	if s.encoder != nil {
		return s.encoder, nil
	}
	enc, err := s.newEncoder()
	if err != nil {
		return nil, fmt.Errorf("failed to construct encoder %q: %w", s.cfg.Model, err)
	}
	s.encoder = enc
	return enc, nil
}

// encode embeds a batch of texts under the store's normalization policy.
// A query is just a batch of size one.
func (s *Store) encode(ctx context.Context, texts []string) ([][]float32, error) {
	enc, err := s.getEncoder()
	if err != nil {
		return nil, err
	}
	vecs, err := enc.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d texts: %w", len(texts), err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("encoder returned %d vectors for %d texts", len(vecs), len(texts))
	}
	if s.cfg.Normalize {
		for _, v := range vecs {
			embeddings.NormalizeL2(v)
		}
	}
	return vecs, nil
}

// BuildFromDocs encodes all document texts in one batch, builds a fresh
// index in document order, and builds the metadata table in the same
// order. Destructive: any prior in-memory state is replaced.
func (s *Store) BuildFromDocs(ctx context.Context, docs []Document) error {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	vecs, err := s.encode(ctx, texts)
	if err != nil {
		return err
	}

	index := NewFlatIndex()
	if err := index.Add(vecs); err != nil {
		return err
	}

	s.index = index
	s.meta = newMetadataFromDocs(docs)

	log.Debug("Built vector store", "docs", len(docs), "dimensions", index.Dimensions())
	return nil
}

// Save persists the index and metadata as two sibling files under the
// store's base directory. Each file is written to a temporary path and
// renamed, so a crash mid-write leaves at most a stale-but-consistent
// prior pair.
func (s *Store) Save() error {
	if s.index == nil || s.meta == nil {
		return ErrNothingToSave
	}
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	if err := s.index.WriteFile(filepath.Join(s.baseDir, s.cfg.IndexFile)); err != nil {
		return err
	}
	if err := s.meta.save(filepath.Join(s.baseDir, s.cfg.MetaFile)); err != nil {
		return err
	}

	log.Debug("Saved vector store", "dir", s.baseDir, "docs", s.index.Len())
	return nil
}

// Load reads both files back and re-establishes the row-position
// correspondence. Exactly one file present is a corruption condition,
// not partial success; the store is only populated once both halves
// loaded and agree on size.
func (s *Store) Load() error {
	indexPath := filepath.Join(s.baseDir, s.cfg.IndexFile)
	metaPath := filepath.Join(s.baseDir, s.cfg.MetaFile)

	indexExists := fileExists(indexPath)
	metaExists := fileExists(metaPath)
	if !indexExists && !metaExists {
		return fmt.Errorf("%w: run the index build first", ErrNotFound)
	}
	if indexExists != metaExists {
		return fmt.Errorf("%w: index and metadata files must both exist", ErrNotFound)
	}

	index, err := ReadFlatIndex(indexPath)
	if err != nil {
		return err
	}
	meta, err := loadMetadata(metaPath)
	if err != nil {
		return err
	}

	if index.Len() != meta.Len() {
		return fmt.Errorf("%w: index has %d vectors, metadata has %d rows",
			ErrCorrupt, index.Len(), meta.Len())
	}

	s.index = index
	s.meta = meta

	log.Debug("Loaded vector store", "dir", s.baseDir, "docs", index.Len())
	return nil
}

// Search returns up to topK documents ranked by similarity to the query,
// restricted to rows matching all filter key/value pairs exactly. The
// index has no native filtering, so the full index is over-fetched and
// masked against the filtered row subset in ranked order.
func (s *Store) Search(ctx context.Context, query string, topK int, filters map[string]any) ([]Result, error) {
	if s.index == nil || s.meta == nil {
		return nil, ErrNotInitialized
	}
	if topK <= 0 {
		return nil, nil
	}

	// Resolve the filter subset before touching the encoder: an empty
	// subset means no index search is performed at all.
	var allowed map[int]struct{}
	if len(filters) > 0 {
		allowed = s.meta.MatchingRows(filters)
		if len(allowed) == 0 {
			return []Result{}, nil
		}
	}

	vecs, err := s.encode(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	hits, err := s.index.Search(vecs[0], topK*OverfetchFactor)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, topK)
	for _, hit := range hits {
		if hit.Row < 0 {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[hit.Row]; !ok {
				continue
			}
		}
		if hit.Row >= s.meta.Len() {
			return nil, fmt.Errorf("%w: hit row %d has no metadata", ErrCorrupt, hit.Row)
		}
		results = append(results, Result{Fields: s.meta.Row(hit.Row), Score: hit.Score})
		if len(results) >= topK {
			break
		}
	}
	return results, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
