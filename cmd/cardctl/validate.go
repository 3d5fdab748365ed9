package main

import (
	"context"
	"errors"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/app"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the data-quality checks",
	Long: `Run every data-quality check and print the report.

Exits non-zero when an error-severity check finds issues.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			report, err := a.Validation.Run(ctx)
			if err != nil {
				return err
			}
			if err := output(report, report.Summary()); err != nil {
				return err
			}
			if !report.Passed {
				return errors.New("validation failed")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
