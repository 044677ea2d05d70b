package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/patent-rank/internal/logger"
	"github.com/pdiddy/patent-rank/internal/metrics"
	"github.com/pdiddy/patent-rank/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search form over HTTP",
	Long: `Serve starts a local web form with fields for the OPS Client ID, Client
Secret and question, and renders the ranked table on submit. It also
exposes POST /api/search (JSON), GET /healthz and GET /metrics.
Credentials are taken from each request and never stored.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8501", "listen address")
	serveCmd.Flags().Int("max-results", 5, "number of search hits to fetch (1-100)")
	serveCmd.Flags().Int("top-k", 3, "number of ranked results to show")
	serveCmd.Flags().Int("excerpt", 160, "maximum characters of title and abstract per table cell (0 = full)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{
		keyServeAddr:     "addr",
		keyOPSMaxResults: "max-results",
		keyRankTopK:      "top-k",
		keyOutputExcerpt: "excerpt",
	}); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level, _ := cmd.Flags().GetString("log-level")
	if level == logger.DefaultLevel && !cmd.Flags().Changed("log-level") {
		level = "info"
	}
	l, err := logger.New(level, true)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	metrics.Register()
	srv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           server.New(newPipeline(cfg, l), l, cfg.Output.Excerpt).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		l.Info("starting HTTP server",
			zap.String("addr", cfg.Serve.Addr),
			zap.String("version", version),
			zap.String("embedding_provider", string(cfg.Embedding.Provider)),
			zap.String("embedding_model", cfg.Embedding.Model),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	fmt.Fprintf(printer.Out(), "Listening on http://%s\n", cfg.Serve.Addr)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	l.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	l.Info("server stopped")
	return nil
}
