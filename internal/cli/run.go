package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"print-relay/internal/alert"
	"print-relay/internal/config"
	"print-relay/internal/dedup"
	"print-relay/internal/dispatch"
	"print-relay/internal/feed"
	"print-relay/internal/logger"
	"print-relay/internal/orderid"
	"print-relay/internal/poller"
	"print-relay/internal/printer"
	"print-relay/internal/store"
)

// NewRunCommand creates the run command, the relay's only long-running
// mode.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start polling the feed and printing tickets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(rootOpts)
		},
	}
}

func run(opts *RootOptions) error {
	// Secrets and printer addresses may live in a .env file next to
	// the binary; absence is fine.
	_ = godotenv.Load()

	path := opts.ConfigPath
	if path == "" {
		var err error
		path, err = config.FindConfig()
		if err != nil {
			return fmt.Errorf("no config file found, pass --config")
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	level := logger.ParseLevel(cfg.Log.Level)
	if opts.Verbose {
		level = logger.LevelDebug
	}
	lg := logger.NewWithLevel("print-relay", level)
	lg.Info("starting_up", map[string]any{"config": path})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kv, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer kv.Close()

	var alerts *alert.Notifier
	if cfg.Rabbit != nil {
		alerts, err = alert.Dial(cfg.Rabbit.Host, cfg.Rabbit.Port,
			cfg.Rabbit.User, cfg.Rabbit.Password, lg.WithService("alerts"))
		if err != nil {
			return fmt.Errorf("connect alert broker: %w", err)
		}
		defer alerts.Close()
	}

	printers, err := buildPrinters(cfg)
	if err != nil {
		return err
	}
	registers := make(map[string]printer.Printer, len(cfg.Routing.Registers))
	for register, name := range cfg.Routing.Registers {
		registers[register] = printers[name]
	}

	disp := dispatch.New(dispatch.Config{
		Registers:  registers,
		Kitchen:    printers[cfg.Routing.Kitchen],
		Pacing:     cfg.Dispatch.Pacing.Std(),
		Attempts:   cfg.Dispatch.RetryAttempts,
		RetryDelay: cfg.Dispatch.RetryDelay.Std(),
	}, lg.WithService("dispatch"), alerts)

	src := feed.NewClient(feed.Options{
		BaseURL:        cfg.Feed.BaseURL,
		TokenURL:       cfg.Feed.TokenURL,
		ClientID:       cfg.Feed.ClientID,
		AssertionToken: cfg.Feed.AssertionToken,
		Timeout:        cfg.Feed.Timeout.Std(),
	})

	var meme *string
	if cfg.Meme != "" {
		meme = &cfg.Meme
	}
	p := poller.New(src, dedup.New(kv), orderid.New(kv), disp, alerts,
		lg.WithService("poller"), poller.Config{
			BatchSize: cfg.Feed.BatchSize,
			Interval:  cfg.Feed.PollInterval.Std(),
			Meme:      meme,
		})

	return p.Run(ctx)
}

func openStore(ctx context.Context, cfg config.Store) (store.KV, error) {
	switch cfg.Driver {
	case "postgres":
		return store.ConnectPostgres(ctx, cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database)
	default:
		return store.OpenSQLite(cfg.Path)
	}
}

func buildPrinters(cfg config.App) (map[string]printer.Printer, error) {
	out := make(map[string]printer.Printer, len(cfg.Printers))
	for name, pc := range cfg.Printers {
		enc, err := printer.NewEncoder(pc.Protocol)
		if err != nil {
			return nil, fmt.Errorf("printer %q: %w", name, err)
		}
		out[name] = printer.NewNetwork(pc.Addr, enc, cfg.Dispatch.SendTimeout.Std())
	}
	return out, nil
}
