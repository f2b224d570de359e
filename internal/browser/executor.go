// File: internal/browser/executor.go
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/accessibility"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/domsnapshot"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/framescope/internal/config"
)

// Executor issues protocol calls against one target (the page, or an attached
// out-of-process iframe target). Calls are sequential, bounded by the
// configured call timeout, and optionally paced by a shared rate limiter.
type Executor struct {
	ctx     context.Context
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger
}

func newExecutor(ctx context.Context, cfg config.ProtocolConfig, limiter *rate.Limiter, logger *zap.Logger) *Executor {
	return &Executor{
		ctx:     ctx,
		timeout: cfg.CallTimeout,
		limiter: limiter,
		logger:  logger,
	}
}

// run executes a protocol action combining the target's lifecycle context
// with the caller's context plus the per-call timeout.
func (e *Executor) run(ctx context.Context, name string, fn func(context.Context) error) error {
	opCtx, opCancel := CombineContext(e.ctx, ctx)
	defer opCancel()

	if e.limiter != nil {
		if err := e.limiter.Wait(opCtx); err != nil {
			return fmt.Errorf("%s canceled while pacing: %w", name, err)
		}
	}

	callCtx, callCancel := context.WithTimeout(opCtx, e.timeout)
	defer callCancel()

	err := chromedp.Run(callCtx, chromedp.ActionFunc(fn))
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%s timed out after %s: %w", name, e.timeout, err)
		}
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

// FrameTree fetches the target's current frame tree.
func (e *Executor) FrameTree(ctx context.Context) (*page.FrameTree, error) {
	var tree *page.FrameTree
	err := e.run(ctx, "Page.getFrameTree", func(c context.Context) error {
		var err error
		tree, err = page.GetFrameTree().Do(c)
		return err
	})
	return tree, err
}

// FullAXTree fetches the accessibility tree scoped to the given frame id.
// An empty frame id scopes to the target's main frame.
func (e *Executor) FullAXTree(ctx context.Context, frameID cdp.FrameID) ([]*accessibility.Node, error) {
	var nodes []*accessibility.Node
	err := e.run(ctx, "Accessibility.getFullAXTree", func(c context.Context) error {
		params := accessibility.GetFullAXTree()
		if frameID != "" {
			params = params.WithFrameID(frameID)
		}
		var err error
		nodes, err = params.Do(c)
		return err
	})
	return nodes, err
}

// CaptureLayout fetches a structural snapshot of every document in the
// target: node tables, attribute tables, layout boxes and scroll offsets,
// all indexed into a shared string table.
func (e *Executor) CaptureLayout(ctx context.Context) ([]*domsnapshot.DocumentSnapshot, []string, error) {
	var docs []*domsnapshot.DocumentSnapshot
	var stringTable []string
	err := e.run(ctx, "DOMSnapshot.captureSnapshot", func(c context.Context) error {
		var err error
		docs, stringTable, err = domsnapshot.CaptureSnapshot([]string{"display", "visibility"}).
			WithIncludeDOMRects(true).
			Do(c)
		return err
	})
	return docs, stringTable, err
}

// FrameOwner describes the iframe element that embeds the given frame in its
// parent document.
func (e *Executor) FrameOwner(ctx context.Context, frameID cdp.FrameID) (*cdp.Node, error) {
	var node *cdp.Node
	err := e.run(ctx, "DOM.getFrameOwner", func(c context.Context) error {
		backendID, _, err := dom.GetFrameOwner(frameID).Do(c)
		if err != nil {
			return err
		}
		node, err = dom.DescribeNode().WithBackendNodeID(backendID).Do(c)
		return err
	})
	return node, err
}

// FrameOwnerBackendID returns just the backend node id of a frame's owner
// element, for box-model lookups.
func (e *Executor) FrameOwnerBackendID(ctx context.Context, frameID cdp.FrameID) (cdp.BackendNodeID, error) {
	var backendID cdp.BackendNodeID
	err := e.run(ctx, "DOM.getFrameOwner", func(c context.Context) error {
		var err error
		backendID, _, err = dom.GetFrameOwner(frameID).Do(c)
		return err
	})
	return backendID, err
}

// BoxModel resolves a backend node handle to its box model.
func (e *Executor) BoxModel(ctx context.Context, id cdp.BackendNodeID) (*dom.BoxModel, error) {
	var box *dom.BoxModel
	err := e.run(ctx, "DOM.getBoxModel", func(c context.Context) error {
		var err error
		box, err = dom.GetBoxModel().WithBackendNodeID(id).Do(c)
		return err
	})
	return box, err
}

// ScrollIntoView brings a node into the viewport before a box-model read.
func (e *Executor) ScrollIntoView(ctx context.Context, id cdp.BackendNodeID) error {
	return e.run(ctx, "DOM.scrollIntoViewIfNeeded", func(c context.Context) error {
		return dom.ScrollIntoViewIfNeeded().WithBackendNodeID(id).Do(c)
	})
}

// DispatchMouse issues a single raw mouse event.
func (e *Executor) DispatchMouse(ctx context.Context, params *input.DispatchMouseEventParams) error {
	return e.run(ctx, "Input.dispatchMouseEvent", func(c context.Context) error {
		return params.Do(c)
	})
}

// Evaluate runs an expression in the target's main world and unmarshals the
// result into out.
func (e *Executor) Evaluate(ctx context.Context, expr string, out any) error {
	return e.run(ctx, "Runtime.evaluate", func(c context.Context) error {
		return chromedp.Evaluate(expr, out).Do(c)
	})
}
