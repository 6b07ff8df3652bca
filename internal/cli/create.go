package cli

import (
	"encoding/json"
	"fmt"

	"github.com/me/prodigy/pkg/model"
	"github.com/spf13/cobra"
)

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <payload_ref>",
		Short: "Schedule a new fault entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Post("/api/v1/entries", model.CreateEntryRequest{PayloadRef: args[0]})
			if err != nil {
				return fmt.Errorf("create entry: %w", err)
			}

			var e model.Entry
			if err := json.Unmarshal(resp.Data, &e); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry created: %s (%s)\n", e.ID, e.Status)
			return nil
		},
	}
}
