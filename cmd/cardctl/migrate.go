package main

import (
	"context"
	"fmt"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/app"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the inventory tables if they do not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := db.Migrate(ctx, a.Pool); err != nil {
				return err
			}
			fmt.Println("schema up to date")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
