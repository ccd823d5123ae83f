package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nadirsultanli/order-management-system-sub008/internal/core/config"
	"github.com/nadirsultanli/order-management-system-sub008/internal/core/container"
	"github.com/nadirsultanli/order-management-system-sub008/internal/core/logger"
	"github.com/nadirsultanli/order-management-system-sub008/internal/core/routes"
	"github.com/nadirsultanli/order-management-system-sub008/internal/database"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard gateway.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		log := logger.NewLogger(cfg.LogLevel)
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c, err := container.NewAppContainer(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("build container: %w", err)
		}
		defer c.Close()
		c.Start(ctx)

		// runs before Close so verification toasts reach NATS
		defer func() {
			drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			c.Drain(drainCtx)
		}()

		server := &http.Server{
			Addr:              cfg.AppHost,
			Handler:           routes.NewRouter(c),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("Starting gateway", zap.String("addr", cfg.AppHost), zap.String("api", cfg.APIBaseURL))
			errCh <- server.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		log.Info("Shutting down gateway")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the audit log migrations.",
	Long:  `Applies every pending migration from --dir to DATABASE_URL.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		migrationDir, _ := cmd.Flags().GetString("dir")
		if migrationDir == "" {
			migrationDir = cfg.MigrationsDir
		}

		log := logger.NewLogger(cfg.LogLevel)
		defer func() { _ = log.Sync() }()

		if err := database.RunMigrations(cfg.DatabaseURL, migrationDir, true, log); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}

		return nil
	},
}

func Execute(ctx context.Context) {
	rootCmd := &cobra.Command{
		Use:   "cylinderops",
		Short: "Cylinder logistics dashboard gateway",
	}
	MigrateCmd.Flags().String("dir", "", "Directory containing the migration files (defaults to MIGRATIONS_DIR)")
	rootCmd.AddCommand(ServeCmd, MigrateCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
