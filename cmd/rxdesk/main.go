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

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"rxdesk/m/internal/auth"
	"rxdesk/m/internal/clinic"
	"rxdesk/m/internal/config"
	"rxdesk/m/internal/database"
	"rxdesk/m/internal/logging"
	"rxdesk/m/internal/migrations"
	"rxdesk/m/internal/rpc"
	"rxdesk/m/internal/seed"
	"rxdesk/m/internal/store"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "rxdesk",
		Short:         "Clinic and pharmacy RPC backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// bootstrap loads config, builds the logger and opens a migrated database.
func bootstrap() (config.Config, zerolog.Logger, *sqlx.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, zerolog.Logger{}, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, zerolog.Logger{}, nil, err
	}
	logger := logging.New(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return config.Config{}, zerolog.Logger{}, nil, err
	}
	if err := migrations.Run(db); err != nil {
		db.Close()
		return config.Config{}, zerolog.Logger{}, nil, err
	}
	logger.Info().Str("driver", cfg.DBDriver).Msg("database ready")
	return cfg, logger, db, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate the database and start the RPC server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()

			st := store.New(db)
			if cfg.MedicineCatalog != "" {
				if _, err := seed.LoadMedicinesFile(cmd.Context(), st, cfg.MedicineCatalog, logger); err != nil {
					logger.Warn().Err(err).Str("file", cfg.MedicineCatalog).Msg("medicine catalog not loaded")
				}
			}

			tokens := auth.NewTokens(cfg.Secret, cfg.TokenTTL)
			svc := clinic.New(st, tokens, logger, clinic.WithLowStockThreshold(cfg.LowStockThreshold))
			handler := rpc.New(svc, tokens, logger, rpc.WithCORSOrigins(cfg.CORSOrigins))

			srv := &http.Server{
				Addr:              ":" + cfg.HTTPPort,
				Handler:           handler.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(srv, logger, cfg.ShutdownTimeout)
		},
	}
}

// serve runs srv until SIGINT or SIGTERM, then drains within timeout.
func serve(srv *http.Server, logger zerolog.Logger, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("rxdesk server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()
			logger.Info().Msg("migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import reference data",
	}

	medicines := &cobra.Command{
		Use:   "medicines",
		Short: "Import a medicine catalog CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			cfg, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()
			if file == "" {
				file = cfg.MedicineCatalog
			}
			if file == "" {
				return errors.New("no catalog given: pass --file or set MEDICINE_CATALOG")
			}
			res, err := seed.LoadMedicinesFile(cmd.Context(), store.New(db), file, logger)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d medicine(s); %d already present, %d invalid.\n", res.Inserted, res.Existing, res.Invalid)
			return nil
		},
	}
	medicines.Flags().String("file", "", "Path to the catalog CSV")
	cmd.AddCommand(medicines)
	return cmd
}
