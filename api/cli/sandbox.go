package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbeaudouin05/fintrack-client/api/config"
	"github.com/tbeaudouin05/fintrack-client/api/logging"
	"github.com/tbeaudouin05/fintrack-client/api/router"
)

func newSandboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Serve an in-memory fintrack API for local development",
		RunE:  runSandbox,
	}
	cmd.Flags().String("port", "", "listen port (defaults to PORT)")
	return cmd
}

func runSandbox(cmd *cobra.Command, _ []string) error {
	if config.AppConfig == nil {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		config.AppConfig = cfg
	}
	cfg := config.AppConfig
	logger := logging.SetDefault(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	port, _ := cmd.Flags().GetString("port")
	if port == "" {
		port = cfg.SandboxPort
	}
	sb := router.NewSandbox(router.Options{
		JWTSecret:   cfg.SandboxJWTSecret,
		TokenTTL:    cfg.SandboxTokenTTL,
		AdminSecret: cfg.AdminSecret,
		Logger:      logger,
	})
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router.NewRouter(sb, cfg.APIPrefix),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(cmd.Context(), srv, logger)
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("sandbox listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("sandbox shutting down")
	return srv.Shutdown(shutdownCtx)
}
