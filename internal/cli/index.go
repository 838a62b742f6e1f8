package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/config"
	"github.com/Smriti1996/renewal-intelligence-nba/internal/corpus"
	"github.com/Smriti1996/renewal-intelligence-nba/internal/ui"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the uplift-fact vector index",
	Long: `Turn the warehouse's uplift rows into natural-language fact
sentences, embed them, and write the vector index and metadata files
used by retrieval. Rows below the configured minimum support are
skipped.

Run 'renewal datagen' first to populate the warehouse.`,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	w, err := openWarehouse(cfg)
	if err != nil {
		return err
	}
	defer w.Close()

	uplift, err := w.ListUplift()
	if err != nil {
		return err
	}
	if len(uplift) == 0 {
		return fmt.Errorf("no uplift rows in warehouse, run 'renewal datagen' first")
	}

	docs := corpus.BuildFactCorpus(uplift, int64(cfg.Retrieval.MinSupport))
	if len(docs) == 0 {
		return fmt.Errorf("all %d uplift rows fall below min support %d", len(uplift), cfg.Retrieval.MinSupport)
	}
	log.Debug("built fact corpus", "facts", len(docs), "uplift_rows", len(uplift))

	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := store.BuildFromDocs(cmd.Context(), docs); err != nil {
		return fmt.Errorf("embedding corpus: %w", err)
	}
	if err := store.Save(); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}

	fmt.Println(ui.Success.Render(fmt.Sprintf("Indexed %d facts in %s", len(docs), time.Since(start).Round(time.Millisecond))))
	return nil
}
