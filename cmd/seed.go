/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/cookshare/apiserver/internal/seed"
	"github.com/cookshare/apiserver/internal/server"
	"github.com/cookshare/apiserver/types"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	seedFile string
	seedUser string
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create recipes from a YAML file",
	Long: `Creates every recipe in a YAML seed file on behalf of an existing
account. Recipes go through the same ownership checks as API writes. Usage:

	cookshare seed --file recipes.yaml --user <account id>
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := uuid.Parse(seedUser)
		if err != nil {
			return errors.New("--user must be an account id")
		}

		file, err := seed.LoadFile(seedFile)
		if err != nil {
			return err
		}

		app, err := server.NewApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		created, err := seed.Apply(cmd.Context(), app.Recipes, types.CallerIdentity{UserID: owner.String()}, file)
		for _, recipe := range created {
			logger.Info("seeded recipe", "recipe_id", recipe.ID, "title", recipe.Title)
		}
		if err != nil {
			return fmt.Errorf("seed stopped after %d recipes: %w", len(created), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %d recipes\n", len(created))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Seed file to load")
	seedCmd.Flags().StringVarP(&seedUser, "user", "u", "", "Account id that will own the recipes")
	_ = seedCmd.MarkFlagRequired("file")
	_ = seedCmd.MarkFlagRequired("user")
}
