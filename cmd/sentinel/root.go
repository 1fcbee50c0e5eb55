package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"StockSentinel/internal/config"
	"StockSentinel/internal/directory"
	"StockSentinel/internal/logging"
	"StockSentinel/internal/notifier"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/service"
)

type options struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "sentinel",
		Short:         "Technical analysis and buy/sell alerts for B3 stocks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.Path(), "path to the YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	root.AddCommand(
		newRunCmd(opts),
		newAnalyzeCmd(opts),
		newCycleCmd(opts),
		newProvidersCmd(opts),
		newHistoryCmd(opts),
	)
	return root
}

// app holds everything a command needs. close releases the database.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	svc      *service.Service
	recorder recorder.Recorder
	sqlite   *recorder.SQLiteRecorder
	telegram *notifier.TelegramNotifier
}

func loadConfig(opts *options) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logging.New(cfg.Log.Level, cfg.Log.Format), nil
}

// newApp builds the pipeline. With notify unset, digests are discarded.
func newApp(ctx context.Context, opts *options, notify bool) (*app, error) {
	cfg, log, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, recorder: recorder.NewNoopRecorder()}

	var dir directory.Directory = directory.NewStatic(cfg.Subscribers)
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log.With().Str("component", "recorder").Logger())
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop and static subscribers")
		} else {
			a.recorder, a.sqlite = sr, sr
			dir, err = sqliteDirectory(ctx, sr, cfg.Subscribers)
			if err != nil {
				sr.Close()
				return nil, err
			}
		}
	}

	var n notifier.Notifier = notifier.Noop{}
	if cfg.TelegramEnabled() {
		a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log.With().Str("component", "telegram").Logger())
		if cfg.Telegram.APIBase != "" {
			a.telegram.APIBase = cfg.Telegram.APIBase
		}
		if notify {
			n = a.telegram
		}
	} else if notify {
		log.Warn().Msg("telegram not configured, digests will be discarded")
	}

	a.svc, err = service.Build(cfg, dir, n, a.recorder, log)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func sqliteDirectory(ctx context.Context, sr *recorder.SQLiteRecorder, seed []config.SubscriberEntry) (*directory.SQLite, error) {
	d, err := directory.NewSQLite(sr.DB())
	if err != nil {
		return nil, err
	}
	if err := d.Seed(ctx, seed); err != nil {
		return nil, err
	}
	return d, nil
}

func (a *app) close() {
	if err := a.recorder.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close recorder")
	}
}
