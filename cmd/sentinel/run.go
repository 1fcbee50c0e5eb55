package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"StockSentinel/internal/metrics"
	"StockSentinel/internal/scheduler"
)

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler, chat bot and metrics endpoint until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts, true)
			if err != nil {
				return err
			}
			defer a.close()
			log := a.log
			log.Info().Msg("StockSentinel starting")

			if addr := a.cfg.Metrics.Addr; addr != "" {
				srv := metrics.Serve(addr)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
				log.Info().Str("addr", addr).Msg("metrics endpoint listening")
			}

			sched := scheduler.NewScheduler(ctx, a.svc, log.With().Str("component", "scheduler").Logger())
			if err := sched.Register(a.cfg.Batch.Cron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if a.telegram != nil {
				go a.telegram.StartPolling(ctx, a.svc.HandleCommand)
				log.Info().Msg("telegram polling started")
			}

			if a.cfg.Batch.RunOnStart {
				log.Info().Msg("run_on_start enabled, executing cycle now")
				go sched.RunNow()
			}

			log.Info().Str("cron", a.cfg.Batch.Cron).Msg("StockSentinel is running, press Ctrl+C to stop")
			<-ctx.Done()
			log.Info().Msg("shutdown signal received, stopping")
			a.svc.Wait()
			return nil
		},
	}
}
