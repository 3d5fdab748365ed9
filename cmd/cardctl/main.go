package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	config "github.com/avvvet/pokecard-services/configs"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/app"
	invconfig "github.com/avvvet/pokecard-services/internal/inventorysvc/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	asJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "cardctl",
	Short: "Operate the card inventory from the command line",
	Long: `cardctl runs the inventory jobs (sync, price refresh, validation)
directly against the database, without going through inventorysvc.

It reads the same environment and tuning file as the service.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.WarnLevel)
		if verbose {
			log.SetLevel(log.InfoLevel)
		}
		config.LoadEnv("cardctl")
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print results as JSON")
}

// withApp runs fn with the services wired from the environment. Ctrl-C
// cancels the context.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := invconfig.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// output prints v as JSON with --json, else the text form.
func output(v interface{}, text string) error {
	if !asJSON {
		fmt.Print(text)
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
