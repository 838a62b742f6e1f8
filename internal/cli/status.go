package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/config"
	"github.com/Smriti1996/renewal-intelligence-nba/internal/ui"
	"github.com/Smriti1996/renewal-intelligence-nba/internal/vectorstore"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show warehouse and index status",
	Long: `Display information about the local pipeline state including:
- Warehouse row counts (members, uplift facts, recommendations)
- Fact index size, dimensions, and last build time
- Configured providers

Examples:
  # Show current status
  renewal status`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	fmt.Println(ui.Header.Render("Renewal Intelligence Status"))
	fmt.Println()

	// Warehouse
	fmt.Printf("%s %s\n",
		ui.Highlight.Render("Warehouse:"),
		cfg.Dataset.Path,
	)
	if _, err := os.Stat(cfg.Dataset.Path); os.IsNotExist(err) {
		fmt.Printf("  %s\n", ui.Warning.Render("not created (run 'renewal datagen')"))
	} else {
		w, err := openWarehouse(cfg)
		if err != nil {
			return err
		}
		defer w.Close()

		stats, err := w.Stats()
		if err != nil {
			return fmt.Errorf("failed to read warehouse stats: %w", err)
		}
		fmt.Printf("  %s %d\n", ui.Dim.Render("Members:"), stats.Members)
		fmt.Printf("  %s %d\n", ui.Dim.Render("Uplift rows:"), stats.Uplift)
		fmt.Printf("  %s %d\n", ui.Dim.Render("Recommendations:"), stats.Recos)
		if stats.Recos == 0 && stats.Members > 0 {
			fmt.Printf("  %s\n", ui.Warning.Render("no recommendations (run 'renewal reco')"))
		}
	}
	fmt.Println()

	// Fact index
	fmt.Printf("%s %s\n",
		ui.Highlight.Render("Fact index:"),
		cfg.Retrieval.Dir,
	)
	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	switch err := store.Load(); {
	case err == nil:
		fmt.Printf("  %s %d facts, %d dimensions\n",
			ui.Dim.Render("Indexed:"), store.Len(), store.Dimensions())
		if info, statErr := os.Stat(filepath.Join(cfg.Retrieval.Dir, cfg.Retrieval.IndexFile)); statErr == nil {
			fmt.Printf("  %s %s\n", ui.Dim.Render("Built:"), formatTime(info.ModTime()))
		}
	case isNotBuilt(err):
		fmt.Printf("  %s\n", ui.Warning.Render("not built (run 'renewal index')"))
	default:
		log.Warn("Failed to load fact index", "error", err)
		fmt.Printf("  %s\n", ui.Error.Render("unreadable: "+err.Error()))
	}

	// Show config info
	fmt.Println()
	fmt.Println(ui.Dim.Render("Configuration:"))
	fmt.Printf("  Embedding Provider: %s\n", cfg.Embeddings.Provider)
	fmt.Printf("  LLM Provider: %s\n", cfg.LLM.Provider)
	fmt.Printf("  API Address: %s\n", cfg.API.Addr)

	return nil
}

func isNotBuilt(err error) bool {
	return errors.Is(err, vectorstore.ErrNotFound)
}

// formatTime formats a time for display.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}

	// If today, show time only
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return "today at " + t.Format("15:04")
	}

	// If this year, omit year
	if t.Year() == now.Year() {
		return t.Format("Jan 2 at 15:04")
	}

	return t.Format("Jan 2, 2006 at 15:04")
}
