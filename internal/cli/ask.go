package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/config"
	"github.com/Smriti1996/renewal-intelligence-nba/internal/ui"
)

var askMember int64

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a one-shot question about renewals",
	Long: `Route a single natural-language question through intent
detection, fact retrieval, and the configured LLM, then print the
answer. Use --member to ground the answer in a specific member's
stored recommendations.

Examples:
  renewal ask "what drives renewal for long-tenure members?"
  renewal ask --member 42 "why was this recommended?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().Int64Var(&askMember, "member", 0, "membership number to ground the answer in")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	query := strings.Join(args, " ")

	w, err := openWarehouse(cfg)
	if err != nil {
		return err
	}
	defer w.Close()

	router, err := newRouter(cfg, w)
	if err != nil {
		return err
	}

	var member *int64
	if askMember > 0 {
		member = &askMember
	}

	answer, err := router.Answer(cmd.Context(), query, member)
	if err != nil {
		return err
	}

	fmt.Println(ui.Intent.Render(fmt.Sprintf("intent: %s", answer.Intent)))
	fmt.Println()

	rendered, err := renderMarkdown(answer.Text)
	if err != nil {
		// Fallback to raw output if rendering fails
		fmt.Println(answer.Text)
		return nil
	}
	fmt.Print(rendered)
	return nil
}

// renderMarkdown renders markdown content using glamour.
func renderMarkdown(content string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(content)
}
