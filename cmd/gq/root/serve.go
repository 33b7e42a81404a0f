package root

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"growthquest/internal/api"
	"growthquest/internal/engine"
	"growthquest/internal/metrics"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			m := metrics.New()
			svc, _, cleanup, err := openService(ctx, engine.WithObserver(m))
			if err != nil {
				return err
			}
			defer cleanup()

			if addr == "" {
				addr = cfg.HTTPAddr
			}
			srv := api.NewServer(api.ServerConfig{
				ListenAddr:  addr,
				CORSOrigins: cfg.CORSOrigins,
			}, svc, m, logger)

			logger.Info().
				Str("environment", cfg.Environment).
				Str("addr", addr).
				Str("level_policy", cfg.LevelPolicy).
				Bool("ai_enabled", cfg.AIEnabled()).
				Msg("starting growthquest api")

			g, gctx := errgroup.WithContext(ctx)
			g.Go(srv.Start)
			g.Go(func() error {
				<-gctx.Done()
				return srv.Shutdown()
			})
			if err := g.Wait(); err != nil {
				return err
			}
			logger.Info().Msg("shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default $GQ_HTTP_ADDR)")

	return cmd
}
