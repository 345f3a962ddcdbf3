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

	"eps-citas/internal/adapters/auth/jwtauth"
	"eps-citas/internal/config"
	"eps-citas/internal/platform/logger"
	"eps-citas/internal/router"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "eps-mock-api",
		Short: "Backend demo del sistema de citas EPS",
	}

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var (
		envFile string
		noSeed  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el backend demo",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(envFile)
			if err != nil {
				return err
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}
			if noSeed {
				cfg.SeedDemoData = false
			}
			return runServer(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "archivo .env opcional")
	cmd.Flags().BoolVar(&noSeed, "no-seed", false, "no cargar datos demo")
	return cmd
}

func runServer(ctx context.Context, cfg *config.Config) error {
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName + "-mock-api",
	})
	defer func() { _ = logger.Zap(log).Sync() }()

	signer, err := jwtauth.New(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}

	h, err := router.NewRouter(router.Options{
		Tokens: signer,
		DSN:    cfg.DatabaseDSN,
		Logger: log,
		Seed:   cfg.SeedDemoData,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "seed": cfg.SeedDemoData, "postgres": cfg.DatabaseDSN != ""})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
