package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the critical shell and the deferred bundle",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal("Error loading configuration", err)
		}
		addr := serveAddr
		if addr == "" {
			addr = cfg.Addr
		}
		if addr == "" {
			addr = ":8080"
		}

		site, err := openSite(cfg)
		if err != nil {
			fatal("Error initializing site", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := site.Start(ctx); err != nil {
			fatal("Error starting site", err)
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           site.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("shutdown", "error", err)
			}
		}()

		slog.Info("serving critical shell", "addr", addr, "default_locale", site.Locales().Default().Tag)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("Error serving", err)
		}

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := site.Stop(stopCtx); err != nil {
			slog.Warn("stopping site", "error", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides the configuration, default :8080)")
	rootCmd.AddCommand(serveCmd)
}
