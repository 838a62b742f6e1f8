package cli

import (
	"github.com/spf13/cobra"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/config"
	"github.com/Smriti1996/renewal-intelligence-nba/internal/tui"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat about renewals and recommendations",
	Long: `Open an interactive terminal session against the renewal
assistant. Questions are routed the same way as 'renewal ask'.

Inside the session:
  /member <nbr>   ground answers in a member's recommendations
  /member         clear the member context
  esc or ctrl+c   quit`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	w, err := openWarehouse(cfg)
	if err != nil {
		return err
	}
	defer w.Close()

	router, err := newRouter(cfg, w)
	if err != nil {
		return err
	}

	return tui.Run(router)
}
