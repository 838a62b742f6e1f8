package config

import (
	"os"
	"path/filepath"
)

// Default configuration values
const (
	// Embedding defaults
	DefaultEmbeddingProvider = "ollama"
	DefaultOllamaURL         = "http://localhost:11434"
	DefaultOllamaEmbedModel  = "nomic-embed-text"
	DefaultOpenAIEmbedModel  = "text-embedding-3-small"
	DefaultNormalize         = true

	// LLM defaults
	DefaultLLMProvider    = "ollama"
	DefaultOllamaLLMModel = "llama3"
	DefaultOpenAILLMModel = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-haiku-20240307"

	// Retrieval defaults
	DefaultIndexFile     = "facts.idx"
	DefaultMetaFile      = "facts_meta.db"
	DefaultRetrievalTopK = 10
	DefaultMinSupport    = 0

	// Reco defaults
	DefaultRecoTopK                = 5
	DefaultMaxCandidatesPerSegment = 20
	DefaultUpliftWeight            = 0.6
	DefaultEngagementWeight        = 0.3
	DefaultRiskWeight              = 0.1

	// API defaults
	DefaultAPIAddr = ":8080"

	// Dataset
	DefaultDatasetFileName = "warehouse.db"
)

// DefaultConfigDir returns the default configuration directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/renewal"
	}
	return filepath.Join(home, ".config", "renewal")
}

// DefaultDataDir returns the default data directory path.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".local/share/renewal"
	}
	return filepath.Join(home, ".local", "share", "renewal")
}

// DefaultDatasetPath returns the default warehouse database path.
func DefaultDatasetPath() string {
	return filepath.Join(DefaultDataDir(), DefaultDatasetFileName)
}

// DefaultRetrievalDir returns the directory holding the persisted
// vector index and metadata files.
func DefaultRetrievalDir() string {
	return filepath.Join(DefaultDataDir(), "retrieval")
}
