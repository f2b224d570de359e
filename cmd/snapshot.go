// File: cmd/snapshot.go
package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/framescope/internal/engine"
)

// newSnapshotCmd creates and configures the `snapshot` command.
func newSnapshotCmd() *cobra.Command {
	var framePaths []string

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [url]",
		Short: "Enumerate interactive elements in a page or a nested frame",
		Long: `Loads the URL and prints a textual tree of interactive elements with
their reference ids. Use --frame with a ">>"-delimited chain of iframe
selectors to target a nested frame; repeat it to snapshot several frames
concurrently. Without --frame the top-level document is snapshotted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEngine(cmd, args[0], func(ctx context.Context, eng *engine.Engine) error {
				if len(framePaths) == 0 {
					framePaths = []string{""}
				}
				if len(framePaths) == 1 {
					res, err := eng.Snapshot(ctx, framePaths[0])
					if err != nil {
						return err
					}
					fmt.Fprint(cmd.OutOrStdout(), res.Render())
					return nil
				}

				results, failures := eng.SnapshotAll(ctx, framePaths)
				keys := make([]string, 0, len(results))
				for k := range results {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprint(cmd.OutOrStdout(), results[k].Render())
				}
				for k, err := range failures {
					fmt.Fprintf(cmd.ErrOrStderr(), "frame %q: %v\n", k, err)
				}
				if len(results) == 0 && len(failures) > 0 {
					return fmt.Errorf("every frame snapshot failed")
				}
				return nil
			})
		},
	}

	snapshotCmd.Flags().StringArrayVarP(&framePaths, "frame", "f", nil, `frame path, e.g. 'iframe#outer >> iframe[name="inner"]'`)
	return snapshotCmd
}
