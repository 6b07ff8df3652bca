package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

const defaultTerminalWidth = 80

func newHintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hint",
		Short: "Print the available commands",
		Args:  cobra.NoArgs,
		// The hint never fails: write errors are logged and dropped.
		Run: func(cmd *cobra.Command, args []string) {
			var names []string
			for _, c := range cmd.Root().Commands() {
				if c.IsAvailableCommand() {
					names = append(names, c.Name())
				}
			}
			if err := printColumns(cmd.OutOrStdout(), names, terminalWidth()); err != nil {
				logger.Error("print hint", "error", err)
			}
		},
	}
}

// terminalWidth reads COLUMNS, falling back to 80.
func terminalWidth() int {
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return n
	}
	return defaultTerminalWidth
}

// printColumns lays items out row by row in equal-width columns that fit
// within width. An item wider than width gets a row of its own.
func printColumns(w io.Writer, items []string, width int) error {
	if len(items) == 0 {
		return nil
	}
	longest := 0
	for _, it := range items {
		longest = max(longest, len(it))
	}
	colWidth := longest + 2
	perRow := max(1, width/colWidth)

	var b strings.Builder
	for i, it := range items {
		last := i%perRow == perRow-1 || i == len(items)-1
		if last {
			b.WriteString(it)
			b.WriteByte('\n')
			continue
		}
		b.WriteString(it)
		b.WriteString(strings.Repeat(" ", colWidth-len(it)))
	}
	_, err := fmt.Fprint(w, b.String())
	return err
}
