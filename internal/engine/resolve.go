// File: internal/engine/resolve.go
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/framescope/api/schemas"
	"github.com/xkilldash9x/framescope/internal/browser"
	"github.com/xkilldash9x/framescope/internal/collect"
	"github.com/xkilldash9x/framescope/internal/config"
	"github.com/xkilldash9x/framescope/internal/frames"
	"github.com/xkilldash9x/framescope/internal/input"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const frameRetryInterval = 250 * time.Millisecond

// resolvedFrame is the outcome of resolving a frame path: the protocol
// frame id, the backend that can reach the frame's document, the residual
// path relative to that backend's top document, and the frame's pre-order
// position in the backend's tree.
type resolvedFrame struct {
	path      frames.Path
	localPath frames.Path
	frameID   cdp.FrameID
	ordinal   int
	backend   Backend
}

// resolveFrame turns a frame path into a concrete handle, retrying within
// the configured wait so late-attaching frames get a chance to register.
func (e *Engine) resolveFrame(ctx context.Context, path frames.Path) (*resolvedFrame, func(), error) {
	deadline := time.Now().Add(e.cfg.Snapshot.FrameWait)
	for {
		res, release, err := e.tryResolve(ctx, path)
		if err == nil {
			return res, release, nil
		}
		if time.Now().After(deadline) {
			return nil, nil, err
		}
		select {
		case <-time.After(frameRetryInterval):
		case <-ctx.Done():
			return nil, nil, fmt.Errorf("frame resolution canceled: %v: %w", ctx.Err(), schemas.ErrFrameNotFound)
		}
	}
}

// tryResolve descends the frame tree one path segment at a time, matching
// each segment against the current frame's direct children.
func (e *Engine) tryResolve(ctx context.Context, path frames.Path) (*resolvedFrame, func(), error) {
	main := e.provider.Main()
	tree, err := main.FrameTree(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("frame tree unavailable: %v: %w", err, schemas.ErrFrameNotFound)
	}
	if tree == nil || tree.Frame == nil {
		return nil, nil, fmt.Errorf("frame tree is empty: %w", schemas.ErrFrameNotFound)
	}

	node := tree
	for _, seg := range path {
		child, ok := frames.MatchChild(ctx, main, node, seg)
		if !ok {
			return nil, nil, fmt.Errorf("path segment %q did not match any child of frame %s: %w",
				seg, node.Frame.ID, schemas.ErrFrameNotFound)
		}
		node = child
	}
	frameID := node.Frame.ID

	backend, release, err := e.provider.ForFrame(ctx, frameID)
	if err != nil {
		return nil, nil, fmt.Errorf("no backend for frame %s: %v: %w", frameID, err, schemas.ErrFrameNotFound)
	}

	res := &resolvedFrame{
		path:    path,
		frameID: frameID,
		backend: backend,
	}
	if backend == main {
		res.localPath = path
		for i, id := range frames.Flatten(tree) {
			if id == frameID {
				res.ordinal = i
				break
			}
		}
	}
	// An attached frame target sees the frame as its own top document, so
	// localPath stays empty and the document ordinal stays zero.
	return res, release, nil
}

// ResolveAndClick looks up a stored reference and dispatches a click using
// whichever resolution strategy the producing tier attached. Exactly one
// branch runs; the strategy was fixed when the entry was created.
func (e *Engine) ResolveAndClick(ctx context.Context, framePath, refID string) error {
	path := frames.Parse(framePath)
	entry, err := e.store.Lookup(path.Key(), refID)
	if err != nil {
		return err
	}

	e.logger.Debug("Resolving reference",
		zap.String("frame", path.Key()),
		zap.String("ref", refID),
		zap.String("kind", string(entry.Resolution.Kind())))

	switch entry.Resolution.Kind() {
	case schemas.ResolveNode:
		return e.nodeClick(ctx, path, entry)
	case schemas.ResolvePoint:
		return input.Click(ctx, e.provider.Main(), entry.Resolution.Point())
	case schemas.ResolveLocator:
		return e.locatorClick(ctx, path, entry)
	default:
		return fmt.Errorf("reference %s carries no resolution strategy: %w", refID, schemas.ErrDispatchFailed)
	}
}

// nodeClick resolves a backend node handle to its box model and clicks the
// centroid. A handle goes stale when the frame's document is replaced, in
// which case the box-model lookup fails and the click is not retried.
func (e *Engine) nodeClick(ctx context.Context, path frames.Path, entry schemas.RefEntry) error {
	res, release, err := e.resolveFrame(ctx, path)
	if err != nil {
		return err
	}
	defer release()

	id := entry.Resolution.BackendNode()
	if err := res.backend.ScrollIntoView(ctx, id); err != nil {
		e.logger.Debug("Scroll into view failed, clicking anyway", zap.String("ref", entry.ID), zap.Error(err))
	}
	box, err := res.backend.BoxModel(ctx, id)
	if err != nil {
		return fmt.Errorf("box model for reference %s (node handle stale?): %v: %w", entry.ID, err, schemas.ErrDispatchFailed)
	}
	pt, err := input.BoxCenter(box)
	if err != nil {
		return err
	}
	return input.Click(ctx, res.backend, pt)
}

type locateOutcome struct {
	Status  string `json:"status"`
	Missing string `json:"missing"`
	Clicked bool   `json:"clicked"`
}

// locatorClick re-finds the element by role and name inside the frame's own
// script context and performs a native click there. The frame is resolved
// first so a frame promoted to its own target gets its script evaluated
// there, where a main-target descent would stop at the origin boundary.
func (e *Engine) locatorClick(ctx context.Context, path frames.Path, entry schemas.RefEntry) error {
	res, release, err := e.resolveFrame(ctx, path)
	if err != nil {
		return err
	}
	defer release()

	role, name := entry.Resolution.Locator()
	script, err := collect.LocateClickScript(res.localPath, role, name)
	if err != nil {
		return fmt.Errorf("building locator script: %w", schemas.ErrDispatchFailed)
	}

	var raw []byte
	if err := res.backend.Evaluate(ctx, script, &raw); err != nil {
		return fmt.Errorf("locator evaluation: %v: %w", err, schemas.ErrDispatchFailed)
	}
	var outcome locateOutcome
	if err := json.Unmarshal(raw, &outcome); err != nil {
		return fmt.Errorf("decoding locator outcome: %v: %w", err, schemas.ErrDispatchFailed)
	}

	switch outcome.Status {
	case "ok":
		if !outcome.Clicked {
			return fmt.Errorf("no element matching role %q name %q in frame %q: %w",
				role, name, path.Key(), schemas.ErrDispatchFailed)
		}
		return nil
	case "frame_not_found":
		return fmt.Errorf("frame segment %q did not match: %w", outcome.Missing, schemas.ErrFrameNotFound)
	case "blocked":
		return fmt.Errorf("frame document no longer scriptable: %w", schemas.ErrDispatchFailed)
	default:
		return fmt.Errorf("unexpected locator status %q: %w", outcome.Status, schemas.ErrDispatchFailed)
	}
}

// originResolver maps a frame id to the viewport-space origin of its owner
// iframe element. The owner element lives in the parent document, so the
// lookup always goes through the page target.
type originResolver struct {
	engine *Engine
	res    *resolvedFrame
}

func (o *originResolver) FrameOrigin(ctx context.Context, frameID cdp.FrameID) (schemas.Point, error) {
	if o.res.path.IsTop() {
		return schemas.Point{}, nil
	}
	main := o.engine.provider.Main()
	backendID, err := main.FrameOwnerBackendID(ctx, frameID)
	if err != nil {
		return schemas.Point{}, fmt.Errorf("owner of frame %s: %w", frameID, err)
	}
	box, err := main.BoxModel(ctx, backendID)
	if err != nil {
		return schemas.Point{}, fmt.Errorf("owner box of frame %s: %w", frameID, err)
	}
	if len(box.Content) < 8 {
		return schemas.Point{}, fmt.Errorf("owner box of frame %s has no content quad", frameID)
	}
	return schemas.Point{X: box.Content[0], Y: box.Content[1]}, nil
}

// sessionProvider adapts a live browser session to the engine's backend
// interfaces.
type sessionProvider struct {
	session *browser.Session
}

func (p sessionProvider) Main() Backend { return p.session.Executor() }

func (p sessionProvider) ForFrame(ctx context.Context, frameID cdp.FrameID) (Backend, func(), error) {
	exec, release, err := p.session.FrameExecutor(ctx, frameID)
	if err != nil {
		return nil, nil, err
	}
	return exec, release, nil
}

// NewFromSession assembles an engine directly on a browser session.
func NewFromSession(s *browser.Session, cfg *config.Config) *Engine {
	return New(sessionProvider{session: s}, s, cfg)
}
