// File: internal/engine/engine.go

// Package engine orchestrates the ranked discovery tiers, the reference
// store and click dispatch into the three caller-facing operations:
// Snapshot, ResolveAndClick and ListInteractive.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/page"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/framescope/api/schemas"
	"github.com/xkilldash9x/framescope/internal/collect"
	"github.com/xkilldash9x/framescope/internal/config"
	"github.com/xkilldash9x/framescope/internal/frames"
	"github.com/xkilldash9x/framescope/internal/input"
	"github.com/xkilldash9x/framescope/internal/observability"
	"github.com/xkilldash9x/framescope/internal/refstore"
)

// Backend is the protocol surface the engine needs against one target.
type Backend interface {
	collect.Evaluator
	collect.AXFetcher
	collect.LayoutFetcher
	input.MouseDispatcher
	FrameTree(ctx context.Context) (*page.FrameTree, error)
	FrameOwner(ctx context.Context, frameID cdp.FrameID) (*cdp.Node, error)
	FrameOwnerBackendID(ctx context.Context, frameID cdp.FrameID) (cdp.BackendNodeID, error)
	BoxModel(ctx context.Context, id cdp.BackendNodeID) (*dom.BoxModel, error)
	ScrollIntoView(ctx context.Context, id cdp.BackendNodeID) error
}

// BackendProvider hands out protocol backends. Main is the page target;
// ForFrame attaches to the target hosting a frame the page target's tree
// does not contain, with a release function the engine calls once the
// operation completes.
type BackendProvider interface {
	Main() Backend
	ForFrame(ctx context.Context, frameID cdp.FrameID) (Backend, func(), error)
}

// Navigator loads a URL in the page target.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// Engine is the tiered snapshot and reference resolution engine. Operations
// against the same frame are logically sequential from one caller; disjoint
// frames may be snapshotted concurrently.
type Engine struct {
	provider BackendProvider
	nav      Navigator
	store    *refstore.Store
	cfg      *config.Config
	logger   *zap.Logger
}

// New assembles an engine on top of a backend provider. nav may be nil when
// the caller manages navigation itself.
func New(provider BackendProvider, nav Navigator, cfg *config.Config) *Engine {
	return &Engine{
		provider: provider,
		nav:      nav,
		store:    refstore.New(),
		cfg:      cfg,
		logger:   observability.GetLogger().Named("engine"),
	}
}

// Navigate loads the URL and discards every stored reference, since entry
// sets do not survive a document replacement.
func (e *Engine) Navigate(ctx context.Context, url string) error {
	if e.nav == nil {
		return fmt.Errorf("engine has no navigator attached")
	}
	if err := e.nav.Navigate(ctx, url); err != nil {
		return err
	}
	e.store.InvalidateAll()
	return nil
}

// Invalidate drops the stored entry set for one frame path.
func (e *Engine) Invalidate(framePath string) {
	e.store.Invalidate(frames.Parse(framePath).Key())
}

// Snapshot discovers interactive elements in the frame at the given path,
// trying each tier strictly in rank order, and replaces the frame's entry
// set with the outcome. A frame where every tier comes up empty yields a
// success result with no entries, not an error.
func (e *Engine) Snapshot(ctx context.Context, framePath string) (*schemas.SnapshotResult, error) {
	path := frames.Parse(framePath)

	res, release, err := e.resolveFrame(ctx, path)
	if err != nil {
		return nil, err
	}
	defer release()

	candidates, tier := e.runTiers(ctx, res)
	if len(candidates) == 0 {
		e.store.Replace(path.Key(), nil)
		return &schemas.SnapshotResult{FramePath: path.Key(), Tier: schemas.TierNone}, nil
	}

	entries := make([]schemas.RefEntry, 0, len(candidates))
	for _, cand := range candidates {
		entries = append(entries, schemas.RefEntry{
			ID:         e.store.NextID(tier),
			Role:       cand.Role,
			Name:       cand.Name,
			Resolution: cand.Resolution,
			Box:        cand.Box,
			Enabled:    cand.Enabled,
		})
	}
	e.store.Replace(path.Key(), entries)

	e.logger.Info("Snapshot complete",
		zap.String("frame", path.Key()),
		zap.String("tier", string(tier)),
		zap.Int("entries", len(entries)))

	return &schemas.SnapshotResult{
		FramePath: path.Key(),
		Tier:      tier,
		Prefix:    tier.RefPrefix(),
		Entries:   entries,
	}, nil
}

// SnapshotAll snapshots several disjoint frame paths concurrently. Results
// and per-path failures are keyed by frame key; one frame failing does not
// abort the others.
func (e *Engine) SnapshotAll(ctx context.Context, framePaths []string) (map[string]*schemas.SnapshotResult, map[string]error) {
	results := make(map[string]*schemas.SnapshotResult, len(framePaths))
	failures := make(map[string]error)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, raw := range framePaths {
		g.Go(func() error {
			key := frames.Parse(raw).Key()
			res, err := e.Snapshot(gctx, raw)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[key] = err
				return nil
			}
			results[key] = res
			return nil
		})
	}
	_ = g.Wait()
	return results, failures
}

// ListInteractive is a read-only diagnostic view over the same tier chain.
// It never touches the reference store.
func (e *Engine) ListInteractive(ctx context.Context, framePath string, filter schemas.ListFilter) ([]schemas.ElementSummary, error) {
	path := frames.Parse(framePath)

	res, release, err := e.resolveFrame(ctx, path)
	if err != nil {
		return nil, err
	}
	defer release()

	candidates, _ := e.runTiers(ctx, res)

	var out []schemas.ElementSummary
	for _, cand := range candidates {
		if !filter.Match(cand.Role, cand.Name, collect.UnnamedLabel) {
			continue
		}
		out = append(out, schemas.ElementSummary{
			Role:    cand.Role,
			Name:    cand.Name,
			Enabled: cand.Enabled,
			Box:     cand.Box,
		})
	}
	return out, nil
}

// runTiers tries each collector in rank order under a per-tier timeout. Any
// error, timeout included, escalates to the next rank. The accessibility
// tier additionally escalates when it produced fewer entries than the
// configured floor.
func (e *Engine) runTiers(ctx context.Context, res *resolvedFrame) ([]collect.Candidate, schemas.Tier) {
	target := collect.Target{
		Path:      res.path,
		LocalPath: res.localPath,
		FrameID:   res.frameID,
		Ordinal:   res.ordinal,
	}

	for _, collector := range e.collectors(res) {
		tierCtx, cancel := context.WithTimeout(ctx, e.cfg.Snapshot.TierTimeout)
		candidates, err := collector.Collect(tierCtx, target)
		cancel()

		if err != nil {
			if errors.Is(err, schemas.ErrEmptyResult) {
				e.logger.Debug("Tier found nothing, escalating",
					zap.String("tier", string(collector.Tier())), zap.String("frame", res.path.Key()))
			} else {
				e.logger.Debug("Tier failed, escalating",
					zap.String("tier", string(collector.Tier())), zap.String("frame", res.path.Key()), zap.Error(err))
			}
			continue
		}
		if collector.Tier() == schemas.TierAXTree && len(candidates) < e.cfg.Snapshot.MinAXEntries {
			e.logger.Debug("Accessibility tier below entry floor, escalating",
				zap.Int("entries", len(candidates)), zap.Int("floor", e.cfg.Snapshot.MinAXEntries))
			continue
		}
		if len(candidates) > 0 {
			return candidates, collector.Tier()
		}
	}
	return nil, schemas.TierNone
}

// collectors builds the ranked chain for one resolved frame.
func (e *Engine) collectors(res *resolvedFrame) []collect.Collector {
	limit := e.cfg.Snapshot.NameLimit
	return []collect.Collector{
		collect.NewInPage(res.backend, limit),
		collect.NewAXTree(res.backend, limit),
		collect.NewLayout(res.backend, &originResolver{engine: e, res: res}, limit),
	}
}
