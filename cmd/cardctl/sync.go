package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/app"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/spf13/cobra"
)

var syncSetID string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull sets and cards from the card API",
	Long: `Pull catalog data from the card API into the database.

Available subcommands:
  sets  - upsert every set
  cards - upsert the cards of one set (--set ID) or of every set (--set all)
  card  - upsert a single card by id`,
}

var syncSetsCmd = &cobra.Command{
	Use:   "sets",
	Short: "Upsert every set",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			run, err := a.Sync.SyncSets(ctx)
			return printRun(run, err)
		})
	},
}

var syncCardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "Upsert the cards of a set, or of all sets",
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncSetID == "" {
			return errors.New("--set is required (a set id or \"all\")")
		}
		return withApp(func(ctx context.Context, a *app.App) error {
			var (
				run *models.SyncRun
				err error
			)
			if syncSetID == "all" {
				run, err = a.Sync.SyncAllCards(ctx)
			} else {
				run, err = a.Sync.SyncSetCards(ctx, syncSetID)
			}
			return printRun(run, err)
		})
	},
}

var syncCardCmd = &cobra.Command{
	Use:   "card ID",
	Short: "Upsert one card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			run, err := a.Sync.SyncCard(ctx, args[0])
			return printRun(run, err)
		})
	},
}

func printRun(run *models.SyncRun, runErr error) error {
	if run == nil {
		return runErr
	}

	var b strings.Builder
	fmt.Fprintf(&b, "sync %s %s %s: %d total, %d ok, %d failed in %s\n",
		run.Kind, run.Target, run.RunID, run.Total, run.Succeeded, run.Failed,
		run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	for _, r := range run.Results {
		if !r.Success {
			fmt.Fprintf(&b, "  FAIL %s: %s\n", r.ID, r.Error)
		}
	}
	if err := output(run, b.String()); err != nil {
		return err
	}
	return runErr
}

func init() {
	syncCardsCmd.Flags().StringVar(&syncSetID, "set", "", "set id, or \"all\"")
	syncCmd.AddCommand(syncSetsCmd, syncCardsCmd, syncCardCmd)
	rootCmd.AddCommand(syncCmd)
}
