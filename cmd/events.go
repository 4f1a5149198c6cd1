/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cookshare/apiserver/internal/events"
	"github.com/cookshare/apiserver/internal/mq"
	"github.com/cookshare/apiserver/types"
	"github.com/spf13/cobra"
)

// eventsCmd represents the events command
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect recipe events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print recipe events as they are published",
	Long: `Subscribes to the recipe events channel (MQ_RECIPE_CHANNEL) and prints
one JSON line per event until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		queue, err := mq.NewFromConfig(cmd.Context(), cfg.MQ)
		if err != nil {
			return err
		}
		defer queue.Close()

		enc := json.NewEncoder(cmd.OutOrStdout())
		err = events.Tail(cmd.Context(), queue, cfg.MQ.Channel, logger, func(event types.RecipeEvent) error {
			return enc.Encode(event)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("tail %s: %w", cfg.MQ.Channel, err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
