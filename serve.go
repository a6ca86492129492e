package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"BreachProtocol/internal/server"
)

func newServeCmd() *cobra.Command {
	cfg := server.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the game over websockets",
		RunE: func(cmd *cobra.Command, args []string) error {
			explicit := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { explicit[f.Name] = true })
			resolved, err := server.LoadConfigFile(cfg, explicit)
			if err != nil {
				return err
			}
			resolved.Overrides = tuningOverrides(cmd.Flags())
			resolved.Logger = logger

			app, err := server.NewApp(resolved)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx)
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.Addr, "addr", cfg.Addr, "address to listen on (e.g. 127.0.0.1:8080)")
	f.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "save database directory")
	f.BoolVar(&cfg.InMemory, "in-memory", false, "keep saves in memory only")
	f.StringVar(&cfg.CatalogPath, "catalog", "", "campaign YAML (default: built-in campaign)")
	f.StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "server config YAML")
	f.BoolVar(&cfg.WatchConfig, "watch", true, "reload tuning when the config file changes")
	addTuningFlags(f)
	return cmd
}

func addTuningFlags(f *pflag.FlagSet) {
	f.Float64("starting-credits", 0, "override credits for new agents")
	f.Duration("tick", 0, "override the mission loop step")
	f.Duration("feedback-delay", 0, "override the puzzle success banner time")
	f.Float64("puzzle-fail-trace", 0, "override trace per failed puzzle")
	f.Float64("warn-high", 0, "override the first trace warning")
	f.Float64("warn-critical", 0, "override the second trace warning")
	f.Bool("autosave", true, "save after every successful mission")
}

func floatFlag(f *pflag.FlagSet, name string) *float64 {
	if !f.Changed(name) {
		return nil
	}
	v, err := f.GetFloat64(name)
	if err != nil {
		return nil
	}
	return &v
}

func durationFlag(f *pflag.FlagSet, name string) *time.Duration {
	if !f.Changed(name) {
		return nil
	}
	v, err := f.GetDuration(name)
	if err != nil {
		return nil
	}
	return &v
}

// tuningOverrides collects the tuning flags that were set explicitly.
func tuningOverrides(f *pflag.FlagSet) server.TuningOverrides {
	o := server.TuningOverrides{
		StartingCredits: floatFlag(f, "starting-credits"),
		TickInterval:    durationFlag(f, "tick"),
		FeedbackDelay:   durationFlag(f, "feedback-delay"),
		PuzzleFailTrace: floatFlag(f, "puzzle-fail-trace"),
		WarnHigh:        floatFlag(f, "warn-high"),
		WarnCritical:    floatFlag(f, "warn-critical"),
	}
	if f.Changed("autosave") {
		if v, err := f.GetBool("autosave"); err == nil {
			o.AutoSave = &v
		}
	}
	return o
}
