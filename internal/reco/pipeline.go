package reco

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/dataset"
)

// Run executes the full recommendation pipeline against the warehouse:
// load members and uplift, generate and score candidates, rank per
// member, and persist the result. Returns the number of recommendation
// rows written.
func Run(w *dataset.Warehouse, cfg Config) (int, error) {
	members, err := w.ListMembers()
	if err != nil {
		return 0, fmt.Errorf("failed to load members: %w", err)
	}
	if len(members) == 0 {
		return 0, fmt.Errorf("no members in warehouse; generate data first")
	}

	uplift, err := w.ListUplift()
	if err != nil {
		return 0, fmt.Errorf("failed to load uplift summary: %w", err)
	}
	if len(uplift) == 0 {
		return 0, fmt.Errorf("no uplift rows in warehouse; generate data first")
	}

	candidates := GenerateCandidates(members, uplift, cfg.MaxCandidatesPerSegment)
	log.Debug("Generated candidates", "count", len(candidates),
		"members", len(members), "uplift_rows", len(uplift))

	ScoreCandidates(candidates, cfg.Weights)
	recos := RankRecos(candidates, cfg.TopK)

	if err := w.ReplaceRecos(recos); err != nil {
		return 0, fmt.Errorf("failed to persist recommendations: %w", err)
	}

	log.Debug("Recommendation pipeline finished", "recos", len(recos))
	return len(recos), nil
}
