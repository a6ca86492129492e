package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"BreachProtocol/internal/game"
	"BreachProtocol/internal/store"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect campaign content",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Check a campaign YAML for schema errors and unlock cycles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := game.LoadCatalog(args[0])
			if err != nil {
				return err
			}
			var bosses int
			for _, n := range cat.Nodes {
				if n.IsBoss {
					bosses++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d nodes (%d boss), %d upgrades, %d intel logs\n",
				args[0], len(cat.Nodes), bosses, len(cat.Upgrades), len(cat.Intel))
			return nil
		},
	})
	return cmd
}

func newSaveCmd() *cobra.Command {
	var dataDir string
	open := func() (*store.Store, error) {
		cfg := store.DefaultConfig(dataDir)
		cfg.GCInterval = 0
		cfg.Logger = logger.Named("store")
		return store.Open(cfg)
	}

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Manage agent saves",
	}
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "data", "save database directory")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List agents with a save",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open()
			if err != nil {
				return err
			}
			defer st.Close()
			agents, err := st.Agents(cmd.Context())
			if err != nil {
				return err
			}
			for _, a := range agents {
				snap, status, err := st.ForAgent(a).Load(cmd.Context())
				switch {
				case err != nil:
					fmt.Fprintf(cmd.OutOrStdout(), "%s\terror: %v\n", a, err)
				case status == game.LoadCorrupted:
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tcorrupted\n", a)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tC %.0f\t%d missions\n", a, snap.Credits, snap.History.MissionsCompleted)
				}
			}
			return nil
		},
	})

	var agent string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Delete one agent's save",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open()
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.ForAgent(agent).Clear(cmd.Context()); err != nil {
				return err
			}
			logger.Info("save cleared", zap.String("agent", agent))
			return nil
		},
	}
	reset.Flags().StringVar(&agent, "agent", "", "agent name")
	_ = reset.MarkFlagRequired("agent")
	cmd.AddCommand(reset)
	return cmd
}

func newSimulateCmd() *cobra.Command {
	var (
		cfg         game.SimConfig
		catalogPath string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play the campaign headless with an auto-solver on a virtual clock",
		RunE: func(cmd *cobra.Command, args []string) error {
			if catalogPath != "" {
				cat, err := game.LoadCatalog(catalogPath)
				if err != nil {
					return err
				}
				cfg.Catalog = cat
			}
			cfg.Logger = logger.Named("sim")

			report, err := game.Simulate(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			for i, m := range report.Missions {
				fmt.Fprintf(out, "%2d  %-22s %-8s trace %5.1f  credits %6.0f  retries %d  difficulty %.2f\n",
					i+1, m.Node, m.Outcome, m.Trace, m.Credits, m.Retries, m.Difficulty)
			}
			fmt.Fprintf(out, "final: %s, C %.0f, %d intel, %s game time\n",
				report.Final.State, report.Final.Profile.Credits, len(report.Final.Profile.Intel),
				report.Elapsed.Round(time.Second))
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&cfg.Seed, "seed", 1, "random seed")
	f.Float64Var(&cfg.FailChance, "fail-chance", 0, "chance the auto-solver botches a puzzle (0-1)")
	f.IntVar(&cfg.MaxMissions, "missions", 50, "stop after this many missions")
	f.BoolVar(&cfg.BuyUpgrades, "buy", true, "buy upgrades between missions")
	f.StringVar(&catalogPath, "catalog", "", "campaign YAML (default: built-in campaign)")
	f.BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
