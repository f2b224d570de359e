// File: cmd/list.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/framescope/api/schemas"
	"github.com/xkilldash9x/framescope/internal/engine"
)

// newListCmd creates and configures the `list` command.
func newListCmd() *cobra.Command {
	var framePath string
	var roleFilter string
	var namedOnly bool

	listCmd := &cobra.Command{
		Use:   "list [url]",
		Short: "Diagnostic listing of interactive elements without storing references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEngine(cmd, args[0], func(ctx context.Context, eng *engine.Engine) error {
				filter := schemas.ListFilter{Role: roleFilter, NamedOnly: namedOnly}
				elements, err := eng.ListInteractive(ctx, framePath, filter)
				if err != nil {
					return err
				}
				if len(elements) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no interactive elements found")
					return nil
				}
				for _, el := range elements {
					line := fmt.Sprintf("%s %q enabled=%t", el.Role, el.Name, el.Enabled)
					if el.Box != nil {
						line += fmt.Sprintf(" box=(%.0f,%.0f) %.0fx%.0f", el.Box.X, el.Box.Y, el.Box.Width, el.Box.Height)
					}
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	}

	listCmd.Flags().StringVarP(&framePath, "frame", "f", "", "frame path to inspect")
	listCmd.Flags().StringVar(&roleFilter, "role", "", "keep only roles containing this substring")
	listCmd.Flags().BoolVar(&namedOnly, "named", false, "drop unnamed elements")
	return listCmd
}
