// File: cmd/run.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/framescope/internal/browser"
	"github.com/xkilldash9x/framescope/internal/engine"
)

// runWithEngine launches a browser session, navigates to the target URL and
// hands an assembled engine to the command body. The session is torn down
// when the body returns, error path included.
func runWithEngine(cmd *cobra.Command, url string, fn func(ctx context.Context, eng *engine.Engine) error) error {
	ctx := cmd.Context()

	session, err := browser.NewSession(ctx, cfg)
	if err != nil {
		return fmt.Errorf("starting browser: %w", err)
	}
	defer session.Close()

	eng := engine.NewFromSession(session, cfg)
	if err := eng.Navigate(ctx, url); err != nil {
		return fmt.Errorf("loading %s: %w", url, err)
	}
	return fn(ctx, eng)
}
