package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/config"
	"github.com/Smriti1996/renewal-intelligence-nba/internal/ui"
)

var configShowPath bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Display current configuration settings and config file locations.

Examples:
  # Show current configuration
  renewal config

  # Show config file paths
  renewal config --path`,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configShowPath, "path", false, "show config file paths")
}

func runConfig(cmd *cobra.Command, args []string) error {
	if configShowPath {
		fmt.Println(ui.SectionTitle.Render("Configuration Paths"))
		fmt.Println()
		fmt.Printf("Active config: %s\n", config.ConfigFilePath())
		fmt.Printf("Warehouse:     %s\n", config.Get().Dataset.Path)
		fmt.Printf("Index dir:     %s\n", config.Get().Retrieval.Dir)
		return nil
	}

	// Show current configuration
	cfg := config.Get()

	fmt.Println(ui.SectionTitle.Render("Current Configuration"))
	fmt.Println()

	fmt.Println(ui.Bold.Render("Embeddings:"))
	fmt.Printf("  Provider: %s\n", cfg.Embeddings.Provider)
	fmt.Printf("  Ollama URL: %s\n", cfg.Embeddings.Ollama.URL)
	fmt.Printf("  Ollama Model: %s\n", cfg.Embeddings.Ollama.Model)
	fmt.Printf("  OpenAI Model: %s\n", cfg.Embeddings.OpenAI.Model)
	if cfg.Embeddings.OpenAI.BaseURL != "" {
		fmt.Printf("  OpenAI Base URL: %s\n", cfg.Embeddings.OpenAI.BaseURL)
	}
	fmt.Println()

	fmt.Println(ui.Bold.Render("LLM:"))
	fmt.Printf("  Provider: %s\n", cfg.LLM.Provider)
	fmt.Printf("  Ollama URL: %s\n", cfg.LLM.Ollama.URL)
	fmt.Printf("  Ollama Model: %s\n", cfg.LLM.Ollama.Model)
	fmt.Printf("  OpenAI Model: %s\n", cfg.LLM.OpenAI.Model)
	fmt.Printf("  Anthropic Model: %s\n", cfg.LLM.Anthropic.Model)
	fmt.Println()

	fmt.Println(ui.Bold.Render("Retrieval:"))
	fmt.Printf("  Index Dir: %s\n", cfg.Retrieval.Dir)
	fmt.Printf("  Top K: %d\n", cfg.Retrieval.TopK)
	fmt.Printf("  Min Support: %d\n", cfg.Retrieval.MinSupport)
	fmt.Println()

	fmt.Println(ui.Bold.Render("Recommendations:"))
	fmt.Printf("  Top K: %d\n", cfg.Reco.TopK)
	fmt.Printf("  Max Candidates Per Segment: %d\n", cfg.Reco.MaxCandidatesPerSegment)
	fmt.Printf("  Weights: uplift=%.2f engagement=%.2f risk=%.2f\n",
		cfg.Reco.Weights.Uplift, cfg.Reco.Weights.Engagement, cfg.Reco.Weights.Risk)
	fmt.Println()

	fmt.Println(ui.Bold.Render("Warehouse:"))
	fmt.Printf("  Path: %s\n", cfg.Dataset.Path)
	fmt.Println()

	fmt.Println(ui.Bold.Render("API:"))
	fmt.Printf("  Address: %s\n", cfg.API.Addr)

	return nil
}
