package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/me/prodigy/pkg/model"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries in creation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if status != "" {
				q.Set("status", strings.ToUpper(status))
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			path := "/api/v1/entries"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			resp, err := client.Get(path)
			if err != nil {
				return fmt.Errorf("list entries: %w", err)
			}

			var entries []model.Entry
			if err := json.Unmarshal(resp.Data, &entries); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No entries found.")
				return nil
			}

			fmt.Fprintf(out, "%-44s  %-10s  %-30s  %-16s  %s\n", "ID", "STATUS", "PAYLOAD", "CREATED", "UPDATED")
			fmt.Fprintf(out, "%-44s  %-10s  %-30s  %-16s  %s\n", "--", "------", "-------", "-------", "-------")
			for _, e := range entries {
				fmt.Fprintf(out, "%-44s  %-10s  %-30s  %-16s  %s\n",
					e.ID, e.Status, e.PayloadRef, humanize.Time(e.CreatedAt), humanize.Time(e.UpdatedAt))
			}

			if resp.Pagination != nil && resp.Pagination.HasMore {
				fmt.Fprintf(out, "\n(%d of %d shown)\n", len(entries), resp.Pagination.Total)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only entries in this status")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of entries (server default when 0)")
	return cmd
}
