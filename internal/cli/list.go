// list.go implements the "deliver list" command.
//
// The list command prints the entries of a submission archive, which is
// the "verify contents" step suggested after a successful run. It also
// checks that the archive has exactly one top-level directory, as a
// submission produced by deliver always does.

package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/deliver/internal/archive"
	"github.com/shinji-kodama/deliver/internal/config"
	"github.com/shinji-kodama/deliver/internal/model"
)

// listView is the JSON shape of the list command output.
type listView struct {
	Archive  string          `json:"archive"`
	TopLevel []string        `json:"topLevel"`
	Entries  []archive.Entry `json:"entries"`
}

// NewListCommand creates the "list" cobra command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <archive>",
		Short: "List the contents of a submission archive",
		Long: `List every entry of a tar.gz submission archive with its mode and size.

Examples:
  deliver list deliverables/2a/assignment2A-s1234567.tar.gz
  deliver list deliverables/2b/assignment2B-s1234567-s7654321.tar.gz --json`,

		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return model.NewCLIError(model.ExitUsage,
					fmt.Sprintf("expected exactly one archive path, got %d", len(args)))
			}
			return nil
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args[0])
		},
	}
	return cmd
}

// runList reads the archive and prints its entries.
func runList(cmd *cobra.Command, path string) error {
	// Step 1: Read every header of the archive.
	entries, err := archive.List(path)
	if err != nil {
		return model.WrapCLIError(model.ExitArchive, fmt.Sprintf("failed to read %s", path), err)
	}
	roots := archive.TopLevel(entries)

	// Step 2: Output.
	out := cmd.OutOrStdout()
	if IsJSONOutput() {
		return writeJSON(out, listView{Archive: path, TopLevel: roots, Entries: entries})
	}

	// Colour preference is optional here: an unreadable user config just
	// means plain output.
	color := "auto"
	if user, _, _, err := config.LoadUser(""); err == nil {
		color = user.Output.Color
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Mode.String(), formatEntrySize(e), formatEntryName(e)})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Mode", "Size", "Name"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft},
		shouldColorize(out, color),
	))

	fmt.Fprintf(out, "%d entries\n", len(entries))
	if len(roots) != 1 {
		fmt.Fprintf(out, "⚠ expected a single top-level directory, found %d: %s\n",
			len(roots), strings.Join(roots, ", "))
	}
	return nil
}

// formatEntrySize renders regular file sizes; directories and links get "-".
func formatEntrySize(e archive.Entry) string {
	if e.IsDir || e.Symlink != "" {
		return "-"
	}
	return humanize.Bytes(uint64(e.Size))
}

// formatEntryName appends the link target to symlink entries.
func formatEntryName(e archive.Entry) string {
	if e.Symlink != "" {
		return e.Name + " -> " + e.Symlink
	}
	return e.Name
}
