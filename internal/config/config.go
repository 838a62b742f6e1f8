// Package config handles configuration loading and validation for renewal.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// Config represents the complete renewal configuration.
type Config struct {
	Embeddings EmbeddingsConfig `mapstructure:"embeddings"`
	Dataset    DatasetConfig    `mapstructure:"dataset"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval"`
	Reco       RecoConfig       `mapstructure:"reco"`
	LLM        LLMConfig        `mapstructure:"llm"`
	API        APIConfig        `mapstructure:"api"`
}

// EmbeddingsConfig configures the embedding encoder.
type EmbeddingsConfig struct {
	Provider  string            `mapstructure:"provider"`
	Normalize bool              `mapstructure:"normalize"`
	Ollama    OllamaEmbedConfig `mapstructure:"ollama"`
	OpenAI    OpenAIEmbedConfig `mapstructure:"openai"`
}

// OllamaEmbedConfig configures Ollama embeddings.
type OllamaEmbedConfig struct {
	URL   string `mapstructure:"url"`
	Model string `mapstructure:"model"`
}

// OpenAIEmbedConfig configures OpenAI embeddings.
type OpenAIEmbedConfig struct {
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Dimensions int    `mapstructure:"dimensions"`
}

// DatasetConfig configures the SQLite warehouse holding members,
// uplift summaries and recommendations.
type DatasetConfig struct {
	Path string `mapstructure:"path"`
}

// RetrievalConfig configures the fact corpus and vector store.
type RetrievalConfig struct {
	Dir        string `mapstructure:"dir"`
	IndexFile  string `mapstructure:"index_file"`
	MetaFile   string `mapstructure:"meta_file"`
	TopK       int    `mapstructure:"top_k"`
	MinSupport int    `mapstructure:"min_support"`
}

// RecoConfig configures the next-best-action pipeline.
type RecoConfig struct {
	TopK                    int         `mapstructure:"top_k"`
	MaxCandidatesPerSegment int         `mapstructure:"max_candidates_per_segment"`
	Weights                 RecoWeights `mapstructure:"weights"`
}

// RecoWeights are the weighted-sum scoring weights. They should sum to 1.
type RecoWeights struct {
	Uplift     float64 `mapstructure:"uplift"`
	Engagement float64 `mapstructure:"engagement"`
	Risk       float64 `mapstructure:"risk"`
}

// LLMConfig configures the LLM provider used to generate answers.
// Provider "none" disables the LLM and produces fallback answers.
type LLMConfig struct {
	Provider  string          `mapstructure:"provider"`
	Ollama    OllamaLLMConfig `mapstructure:"ollama"`
	OpenAI    OpenAILLMConfig `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
}

// OllamaLLMConfig configures Ollama LLM.
type OllamaLLMConfig struct {
	URL   string `mapstructure:"url"`
	Model string `mapstructure:"model"`
}

// OpenAILLMConfig configures OpenAI LLM.
type OpenAILLMConfig struct {
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// AnthropicConfig configures Anthropic LLM.
type AnthropicConfig struct {
	Model  string `mapstructure:"model"`
	APIKey string `mapstructure:"api_key"`
}

// APIConfig configures the HTTP chat API.
type APIConfig struct {
	Addr string `mapstructure:"addr"`
}

// Global configuration instance
var cfg *Config

// Get returns the current configuration.
func Get() *Config {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Embeddings: EmbeddingsConfig{
			Provider:  DefaultEmbeddingProvider,
			Normalize: DefaultNormalize,
			Ollama: OllamaEmbedConfig{
				URL:   DefaultOllamaURL,
				Model: DefaultOllamaEmbedModel,
			},
			OpenAI: OpenAIEmbedConfig{
				Model: DefaultOpenAIEmbedModel,
			},
		},
		Dataset: DatasetConfig{
			Path: DefaultDatasetPath(),
		},
		Retrieval: RetrievalConfig{
			Dir:        DefaultRetrievalDir(),
			IndexFile:  DefaultIndexFile,
			MetaFile:   DefaultMetaFile,
			TopK:       DefaultRetrievalTopK,
			MinSupport: DefaultMinSupport,
		},
		Reco: RecoConfig{
			TopK:                    DefaultRecoTopK,
			MaxCandidatesPerSegment: DefaultMaxCandidatesPerSegment,
			Weights: RecoWeights{
				Uplift:     DefaultUpliftWeight,
				Engagement: DefaultEngagementWeight,
				Risk:       DefaultRiskWeight,
			},
		},
		LLM: LLMConfig{
			Provider: DefaultLLMProvider,
			Ollama: OllamaLLMConfig{
				URL:   DefaultOllamaURL,
				Model: DefaultOllamaLLMModel,
			},
			OpenAI: OpenAILLMConfig{
				Model: DefaultOpenAILLMModel,
			},
			Anthropic: AnthropicConfig{
				Model: DefaultAnthropicModel,
			},
		},
		API: APIConfig{
			Addr: DefaultAPIAddr,
		},
	}
}

// Load reads configuration from file and environment variables.
func Load(configFile string) error {
	setDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(DefaultConfigDir())
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("RENEWAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug("No config file found, using defaults")
	} else {
		log.Debug("Loaded config from", "file", viper.ConfigFileUsed())
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}

	loadAPIKeysFromEnv()

	return nil
}

// setDefaults sets default values in viper.
func setDefaults() {
	viper.SetDefault("embeddings.provider", DefaultEmbeddingProvider)
	viper.SetDefault("embeddings.normalize", DefaultNormalize)
	viper.SetDefault("embeddings.ollama.url", DefaultOllamaURL)
	viper.SetDefault("embeddings.ollama.model", DefaultOllamaEmbedModel)
	viper.SetDefault("embeddings.openai.model", DefaultOpenAIEmbedModel)

	viper.SetDefault("dataset.path", DefaultDatasetPath())

	viper.SetDefault("retrieval.dir", DefaultRetrievalDir())
	viper.SetDefault("retrieval.index_file", DefaultIndexFile)
	viper.SetDefault("retrieval.meta_file", DefaultMetaFile)
	viper.SetDefault("retrieval.top_k", DefaultRetrievalTopK)
	viper.SetDefault("retrieval.min_support", DefaultMinSupport)

	viper.SetDefault("reco.top_k", DefaultRecoTopK)
	viper.SetDefault("reco.max_candidates_per_segment", DefaultMaxCandidatesPerSegment)
	viper.SetDefault("reco.weights.uplift", DefaultUpliftWeight)
	viper.SetDefault("reco.weights.engagement", DefaultEngagementWeight)
	viper.SetDefault("reco.weights.risk", DefaultRiskWeight)

	viper.SetDefault("llm.provider", DefaultLLMProvider)
	viper.SetDefault("llm.ollama.url", DefaultOllamaURL)
	viper.SetDefault("llm.ollama.model", DefaultOllamaLLMModel)
	viper.SetDefault("llm.openai.model", DefaultOpenAILLMModel)
	viper.SetDefault("llm.anthropic.model", DefaultAnthropicModel)

	viper.SetDefault("api.addr", DefaultAPIAddr)
}

// loadAPIKeysFromEnv loads API keys from environment variables if not already set.
func loadAPIKeysFromEnv() {
	if cfg.Embeddings.OpenAI.APIKey == "" {
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			cfg.Embeddings.OpenAI.APIKey = key
		}
	}
	if cfg.LLM.OpenAI.APIKey == "" {
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			cfg.LLM.OpenAI.APIKey = key
		}
	}
	if cfg.LLM.Anthropic.APIKey == "" {
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			cfg.LLM.Anthropic.APIKey = key
		}
	}
}

// ConfigFilePath returns the path of the loaded config file, or empty string if none.
func ConfigFilePath() string {
	return viper.ConfigFileUsed()
}
