package main

import (
	"context"
	"fmt"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/app"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/spf13/cobra"
)

var (
	userEmail string
	userRole  string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage sellers that own listings",
}

var usersAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a seller",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			id, err := a.Users.CreateUser(ctx, models.User{Name: args[0], Email: userEmail, Role: userRole})
			if err != nil {
				return err
			}
			return output(map[string]int64{"user_id": id}, fmt.Sprintf("created user %d\n", id))
		})
	},
}

func init() {
	usersAddCmd.Flags().StringVar(&userEmail, "email", "", "contact email")
	usersAddCmd.Flags().StringVar(&userRole, "role", "seller", "seller or admin")
	usersCmd.AddCommand(usersAddCmd)
	rootCmd.AddCommand(usersCmd)
}
