package cli

import (
	"encoding/json"
	"fmt"

	"github.com/me/prodigy/pkg/model"
	"github.com/spf13/cobra"
)

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <entry_id>",
		Short: "Cancel a pending or running entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			resp, err := client.Put("/api/v1/entries/"+id+"/cancel", nil)
			if err != nil {
				return fmt.Errorf("cancel entry: %w", err)
			}

			var e model.Entry
			if err := json.Unmarshal(resp.Data, &e); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry %s: %s\n", id, e.Status)
			return nil
		},
	}
}
