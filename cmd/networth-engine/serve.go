package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/networthpro/retirement-engine/internal/config"
	"github.com/networthpro/retirement-engine/internal/logging"
	"github.com/networthpro/retirement-engine/internal/server"
	"github.com/networthpro/retirement-engine/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		addr   string
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API for the web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return err
			}
			// Flags override file and environment settings
			if addr != "" {
				cfg.Addr = addr
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			if verbose {
				cfg.Log.Level = "debug"
			}

			log := logging.New(&cfg.Log)
			defer log.Sync()

			planStore, err := store.NewPlanStore(cfg.DBPath)
			if err != nil {
				return err
			}
			defer planStore.Close()

			srv, err := server.New(planStore, log)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe(cfg.Addr)
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-quit:
				log.Info("shutting down", zap.String("signal", sig.String()))
				if err := srv.Shutdown(); err != nil {
					return err
				}
				log.Info("server exited gracefully")
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8090)")
	cmd.Flags().StringVar(&dbPath, "db", "", "plan store database file (default from config, networth.db)")
	return cmd
}
