package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/api"
	"github.com/Smriti1996/renewal-intelligence-nba/internal/config"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP chat API",
	Long: `Start the HTTP server exposing the chat endpoint used by
frontends. The server answers questions with the same router as
'renewal ask' and shuts down cleanly on SIGINT or SIGTERM.

Endpoints:
  GET  /api/health
  GET  /api/ready
  POST /api/chat`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
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

	srv := api.NewServer(cfg.API.Addr, router)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
