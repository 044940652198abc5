package main

import (
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rgehrsitz/ratebook/internal/httpapi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve bracket lookups over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
			}

			opts := httpapi.Options{Logger: a.logger, Metrics: a.recorder}
			if a.cfg.Metrics.Enabled {
				opts.Gatherer = a.registry
			}
			server := httpapi.NewServer(opts)
			for _, family := range a.cfg.Families {
				engine, err := a.engine(family.Name)
				if err != nil {
					return err
				}
				server.Register(family, engine)
			}

			srv := &http.Server{
				Addr:         a.cfg.Server.Addr,
				Handler:      server,
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: a.cfg.Server.WriteTimeout,
				IdleTimeout:  120 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.logger.Info("Serving rule families",
				zap.Strings("families", server.Families()),
				zap.String("store", a.cfg.Store.Driver),
				zap.Bool("cache", a.redis != nil))
			return httpapi.Serve(ctx, srv, a.cfg.Server.ShutdownTimeout, a.logger)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	return cmd
}

