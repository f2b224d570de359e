// File: cmd/click.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/framescope/internal/engine"
)

// newClickCmd creates and configures the `click` command.
func newClickCmd() *cobra.Command {
	var framePath string
	var show bool

	clickCmd := &cobra.Command{
		Use:   "click [url] [refId]",
		Short: "Snapshot a frame and click one of its references",
		Long: `Loads the URL, snapshots the chosen frame and dispatches a click on
the given reference id. Reference ids are assigned in discovery order, so a
prior 'snapshot' run against the same page reports the ids this command will
produce.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, refID := args[0], args[1]
			return runWithEngine(cmd, url, func(ctx context.Context, eng *engine.Engine) error {
				res, err := eng.Snapshot(ctx, framePath)
				if err != nil {
					return err
				}
				if show {
					fmt.Fprint(cmd.OutOrStdout(), res.Render())
				}
				if err := eng.ResolveAndClick(ctx, framePath, refID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "clicked %s\n", refID)
				return nil
			})
		},
	}

	clickCmd.Flags().StringVarP(&framePath, "frame", "f", "", "frame path of the reference")
	clickCmd.Flags().BoolVar(&show, "show", false, "print the snapshot before clicking")
	return clickCmd
}
