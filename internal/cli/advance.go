package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/me/prodigy/pkg/model"
	"github.com/spf13/cobra"
)

func newAdvanceCmd() *cobra.Command {
	var result, errMsg string

	cmd := &cobra.Command{
		Use:   "advance <entry_id> <status>",
		Short: "Move an entry to its next status",
		Long: "Move an entry to RUNNING, SUCCEEDED, FAILED or CANCELLED.\n" +
			"--result and --error are recorded only on a terminal status.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			req := model.AdvanceEntryRequest{
				Status: strings.ToUpper(args[1]),
				Result: result,
				Error:  errMsg,
			}

			resp, err := client.Post("/api/v1/entries/"+id+"/advance", req)
			if err != nil {
				return fmt.Errorf("advance entry: %w", err)
			}

			var e model.Entry
			if err := json.Unmarshal(resp.Data, &e); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry %s: %s\n", e.ID, e.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&result, "result", "", "Result to record on SUCCEEDED")
	cmd.Flags().StringVar(&errMsg, "error", "", "Error to record on FAILED")
	return cmd
}
