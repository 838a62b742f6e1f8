package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/config"
	"github.com/Smriti1996/renewal-intelligence-nba/internal/dataset"
	"github.com/Smriti1996/renewal-intelligence-nba/internal/reco"
	"github.com/Smriti1996/renewal-intelligence-nba/internal/ui"
)

// recoCmd represents the reco command
var recoCmd = &cobra.Command{
	Use:   "reco [membership_nbr]",
	Short: "Compute or show next-best-action recommendations",
	Long: `Run the recommendation pipeline over the warehouse: candidate
generation per segment, weighted scoring, and per-member top-K ranking.
Results replace any previously computed recommendations.

With a membership number argument, show that member's stored
recommendations instead of recomputing.

Examples:
  # Recompute all recommendations
  renewal reco

  # Show recommendations for member 42
  renewal reco 42`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReco,
}

func runReco(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	w, err := openWarehouse(cfg)
	if err != nil {
		return err
	}
	defer w.Close()

	if len(args) == 1 {
		nbr, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid membership number %q", args[0])
		}
		return showMemberRecos(w, nbr, cfg.Reco.TopK)
	}

	n, err := reco.Run(w, reco.Config{
		TopK:                    cfg.Reco.TopK,
		MaxCandidatesPerSegment: cfg.Reco.MaxCandidatesPerSegment,
		Weights: reco.Weights{
			Uplift:     cfg.Reco.Weights.Uplift,
			Engagement: cfg.Reco.Weights.Engagement,
			Risk:       cfg.Reco.Weights.Risk,
		},
	})
	if err != nil {
		return err
	}

	fmt.Println(ui.Success.Render(fmt.Sprintf("Computed %d recommendations", n)))
	return nil
}

func showMemberRecos(w *dataset.Warehouse, nbr int64, limit int) error {
	recos, err := w.RecosForMember(nbr, limit)
	if err != nil {
		return err
	}
	if len(recos) == 0 {
		fmt.Println(ui.Warning.Render(fmt.Sprintf("No recommendations for member %d. Run 'renewal reco' first.", nbr)))
		return nil
	}

	fmt.Println(ui.SectionTitle.Render(fmt.Sprintf("Recommendations for member %d", nbr)))
	for _, r := range recos {
		fmt.Printf("%s %s\n",
			ui.Bold.Render(fmt.Sprintf("%d. %s:%s", r.MemberRank, r.EntityType, r.EntityName)),
			ui.ResultScore.Render(ui.FormatScore(r.Score)))
		fmt.Printf("   %s\n", r.ExplanationShort)
	}
	return nil
}
