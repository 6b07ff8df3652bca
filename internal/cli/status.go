package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/me/prodigy/pkg/model"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [entry_id]",
		Short: "Show one entry, or every entry when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				body, err := client.Status("")
				if err != nil {
					return fmt.Errorf("query status: %w", err)
				}
				var entries []model.Entry
				if err := json.Unmarshal(body, &entries); err != nil {
					return fmt.Errorf("parse response: %w", err)
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "No entries found.")
					return nil
				}
				for i, e := range entries {
					if i > 0 {
						fmt.Fprintln(out)
					}
					printEntry(out, e)
				}
				return nil
			}

			body, err := client.Status(args[0])
			if err != nil {
				return fmt.Errorf("query status: %w", err)
			}
			var e model.Entry
			if err := json.Unmarshal(body, &e); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			printEntry(out, e)
			return nil
		},
	}
}

func printEntry(w io.Writer, e model.Entry) {
	fmt.Fprintf(w, "Entry: %s\n", e.ID)
	fmt.Fprintf(w, "  Status:  %s\n", e.Status)
	fmt.Fprintf(w, "  Payload: %s\n", e.PayloadRef)
	fmt.Fprintf(w, "  Created: %s\n", e.CreatedAt.Format("2006-01-02T15:04:05.000000Z07:00"))
	fmt.Fprintf(w, "  Updated: %s\n", e.UpdatedAt.Format("2006-01-02T15:04:05.000000Z07:00"))
	if e.Result != "" {
		fmt.Fprintf(w, "  Result:  %s\n", e.Result)
	}
	if e.Error != "" {
		fmt.Fprintf(w, "  Error:   %s\n", e.Error)
	}
}
