package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/config"
	"github.com/Smriti1996/renewal-intelligence-nba/internal/dataset"
	"github.com/Smriti1996/renewal-intelligence-nba/internal/embeddings"
	"github.com/Smriti1996/renewal-intelligence-nba/internal/llm"
	"github.com/Smriti1996/renewal-intelligence-nba/internal/vectorstore"
)

// openWarehouse opens the configured warehouse database.
func openWarehouse(cfg *config.Config) (*dataset.Warehouse, error) {
	w, err := dataset.Open(cfg.Dataset.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse: %w", err)
	}
	return w, nil
}

// newStore builds the vector store from configuration. The encoder is
// constructed lazily on first use.
func newStore(cfg *config.Config) (*vectorstore.Store, error) {
	model := cfg.Embeddings.Ollama.Model
	if cfg.Embeddings.Provider == "openai" {
		model = cfg.Embeddings.OpenAI.Model
	}

	return vectorstore.New(vectorstore.Config{
		Provider:  cfg.Embeddings.Provider,
		Model:     model,
		IndexFile: cfg.Retrieval.IndexFile,
		MetaFile:  cfg.Retrieval.MetaFile,
		Normalize: cfg.Embeddings.Normalize,
	}, cfg.Retrieval.Dir, func() (embeddings.Service, error) {
		return embeddings.NewService(cfg)
	})
}

// loadStoreIfBuilt loads the saved index, returning nil when no index
// has been built yet so callers can degrade instead of failing.
func loadStoreIfBuilt(cfg *config.Config) (*vectorstore.Store, error) {
	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Load(); err != nil {
		if errors.Is(err, vectorstore.ErrNotFound) {
			log.Warn("No fact index found; answers will not use retrieval. Run 'renewal index' to build one.")
			return nil, nil
		}
		return nil, err
	}
	return store, nil
}

// newRouter assembles the question-answering router from configuration.
func newRouter(cfg *config.Config, w *dataset.Warehouse) (*llm.Router, error) {
	store, err := loadStoreIfBuilt(cfg)
	if err != nil {
		return nil, err
	}

	service, err := llm.NewService(cfg)
	if err != nil {
		return nil, err
	}
	if service == nil {
		log.Warn("LLM provider is disabled; answers will be plain-text fallbacks")
	}

	return llm.NewRouter(w, store, service, cfg.Retrieval.TopK), nil
}
