package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/avvvet/pokecard-services/internal/comm"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/app"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/broker"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/service"
	"github.com/avvvet/pokecard-services/internal/nats"
	"github.com/spf13/cobra"
)

var (
	priceTier   string
	priceLimit  int
	priceBursts int
	priceStale  bool
)

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Refresh market prices",
	Long: `Refresh market prices tier by tier.

Available subcommands:
  run     - queue cards (by --tier, or --stale) and drain the queue here
  card    - refresh one card now
  request - ask a running inventorysvc to queue a refresh over NATS (alias: enqueue)`,
}

var pricesRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Queue cards and drain the queue in bursts",
	RunE: func(cmd *cobra.Command, args []string) error {
		tier, err := service.ParseTier(priceTier)
		if err != nil {
			return err
		}
		return withApp(func(ctx context.Context, a *app.App) error {
			var added int
			if priceStale {
				added, err = a.Prices.EnqueueStale(ctx)
			} else {
				added, err = a.Prices.EnqueueTier(ctx, tier, priceLimit)
			}
			if err != nil {
				return err
			}
			fmt.Printf("queued %d card(s)\n", added)

			run, err := a.Prices.ProcessQueue(ctx, priceBursts)
			if run != nil {
				var b strings.Builder
				fmt.Fprintf(&b, "price run %s: %d burst(s), %d ok, %d failed, %d left in queue\n",
					run.RunID, run.Bursts, run.Succeeded, run.Failed, run.Remaining)
				for _, r := range run.Results {
					if !r.Success {
						fmt.Fprintf(&b, "  FAIL %s (%s): %s\n", r.CardID, r.Tier, r.Error)
					}
				}
				if oerr := output(run, b.String()); oerr != nil {
					return oerr
				}
			}
			return err
		})
	},
}

var pricesCardCmd = &cobra.Command{
	Use:   "card ID",
	Short: "Refresh one card's price now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			res, err := a.Prices.UpdateCardPrice(ctx, args[0])
			if err != nil {
				return err
			}
			text := fmt.Sprintf("%s: %s -> %s\n", res.CardID, priceText(res.OldPrice.Valid, res.OldPrice.Decimal.StringFixed(2)),
				priceText(res.NewPrice.Valid, res.NewPrice.Decimal.StringFixed(2)))
			return output(res, text)
		})
	},
}

func priceText(valid bool, s string) string {
	if !valid {
		return "unpriced"
	}
	return "$" + s
}

var pricesRequestCmd = &cobra.Command{
	Use:     "request [CARD_ID...]",
	Aliases: []string{"enqueue"},
	Short:   "Ask a running inventorysvc to refresh cards or a tier",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := service.ParseTier(priceTier); err != nil {
			return err
		}
		n, err := nats.Connect("cardctl")
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer n.Close()

		b := broker.NewBroker(cmd.Context(), n.Conn, "cardctl")
		req := comm.PriceRefreshRequest{CardIDs: args, Tier: priceTier, Limit: priceLimit}
		if err := b.RequestPriceRefresh(req); err != nil {
			return err
		}
		fmt.Println("refresh requested")
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{pricesRunCmd, pricesRequestCmd} {
		c.Flags().StringVar(&priceTier, "tier", "all", "high, medium, low or all")
		c.Flags().IntVar(&priceLimit, "limit", 0, "max cards to queue per tier (0 uses the tuning default)")
	}
	pricesRunCmd.Flags().BoolVar(&priceStale, "stale", false, "queue cards past their tier refresh age instead of --tier")
	pricesRunCmd.Flags().IntVar(&priceBursts, "bursts", 0, "stop after this many bursts (0 drains the queue)")

	pricesCmd.AddCommand(pricesRunCmd, pricesCardCmd, pricesRequestCmd)
	rootCmd.AddCommand(pricesCmd)
}
