// Command spawnctl inspects and edits the boss spawn store from a shell.
//
// Usage:
//
//	spawnctl list
//	spawnctl plan
//	spawnctl update Death 2025-01-01 10:00
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/araddon/dateparse"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ErlanBelekov/boss-notifier/config"
	"github.com/ErlanBelekov/boss-notifier/internal/infrastructure"
	"github.com/ErlanBelekov/boss-notifier/internal/repository"
	"github.com/ErlanBelekov/boss-notifier/internal/scheduler"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

func main() {
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "spawnctl",
		Short:        "Inspect and edit boss spawn times",
		SilenceUsage: true,
	}
	root.AddCommand(listCmd(), planCmd(), updateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// withStore opens the configured store for one command.
func withStore(fn func(ctx context.Context, cfg *config.Config, repo repository.EntityRepository) error) error {
	cfg, err := config.LoadStore()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := infrastructure.OpenStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	return fn(ctx, cfg, store.Entities)
}

// plan reads the store and reports what a server refresh would arm now.
func plan(ctx context.Context, cfg *config.Config, repo repository.EntityRepository) ([]scheduler.PendingTimer, error) {
	entities, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	pending, _ := scheduler.Plan(entities, cfg.LeadTime(), time.Now())
	return pending, nil
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every boss in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, repo repository.EntityRepository) error {
				entities, err := repo.List(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tLOCATION\tNEXT SPAWN\tSTATUS")
				for _, e := range entities {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, e.Location, e.NextSpawnAt.In(cfg.Location()).Format("2006-01-02 15:04"), e.Status)
				}
				return w.Flush()
			})
		},
	}
}

func planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show which notifications a refresh would schedule now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, repo repository.EntityRepository) error {
				pending, err := plan(ctx, cfg, repo)
				if err != nil {
					return err
				}
				loc := cfg.Location()
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tNOTIFY AT\tSPAWN AT")
				for _, p := range pending {
					fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.FireAt.In(loc).Format("2006-01-02 15:04"), p.SpawnAt.In(loc).Format("2006-01-02 15:04"))
				}
				if err := w.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\n%d notifications, lead time %s\n", len(pending), cfg.LeadTime())
				return nil
			})
		},
	}
}

func updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <name> <date-time...>",
		Short: "Set a boss's next spawn time",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, repo repository.EntityRepository) error {
				when := strings.Join(args[1:], " ")
				at, err := dateparse.ParseIn(when, cfg.Location())
				if err != nil {
					return fmt.Errorf("parse %q: %w", when, err)
				}
				if err := repo.UpdateSpawn(ctx, args[0], at); err != nil {
					return err
				}
				pending, err := plan(ctx, cfg, repo)
				if err != nil {
					return fmt.Errorf("saved, but could not read back the store: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s next spawn set to %s (%d notifications would be scheduled)\n",
					args[0], at.In(cfg.Location()).Format("2006-01-02 15:04 MST"), len(pending))
				return nil
			})
		},
	}
}
