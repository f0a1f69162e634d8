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

	"legalassist-backend/internal/bootstrap"
	"legalassist-backend/internal/shared/config"
	"legalassist-backend/internal/shared/server"
	"legalassist-backend/internal/shared/telemetry"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		port string
		env  string
	)

	cmd := &cobra.Command{
		Use:   "api",
		Short: "Serve the document assistant HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("env") {
				cfg.Env = env
			}
			return run(cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "8080", "Listen port")
	cmd.Flags().StringVar(&env, "env", "dev", "Runtime environment (dev, staging, production)")
	return cmd
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		telemetry.Info("api.started", map[string]any{"addr": srv.Addr, "env": cfg.Env})
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	telemetry.Info("api.stopping", map[string]any{"timeout_s": cfg.ShutdownTimeout.Seconds()})
	return srv.Shutdown(shutdownCtx)
}
