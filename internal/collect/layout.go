// File: internal/collect/layout.go
package collect

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/domsnapshot"
	"go.uber.org/zap"

	"github.com/xkilldash9x/framescope/api/schemas"
	"github.com/xkilldash9x/framescope/internal/observability"
)

// LayoutFetcher retrieves a structural snapshot of the frame's target.
type LayoutFetcher interface {
	CaptureLayout(ctx context.Context) ([]*domsnapshot.DocumentSnapshot, []string, error)
}

// OriginResolver maps a frame id to the viewport-space origin of its owner
// iframe element. The top-level frame resolves to (0, 0).
type OriginResolver interface {
	FrameOrigin(ctx context.Context, frameID cdp.FrameID) (schemas.Point, error)
}

// layoutTags are always treated as clickable regardless of snapshot flags.
var layoutTags = map[string]bool{
	"a":        true,
	"button":   true,
	"input":    true,
	"select":   true,
	"textarea": true,
}

// Layout is the last-resort collector. It reads a one-shot DOM/layout
// snapshot and emits fixed viewport points, since no node identity is
// assumed to survive past the snapshot.
type Layout struct {
	fetcher   LayoutFetcher
	origins   OriginResolver
	nameLimit int
	logger    *zap.Logger
}

// NewLayout returns the layout-snapshot collector.
func NewLayout(fetcher LayoutFetcher, origins OriginResolver, nameLimit int) *Layout {
	return &Layout{
		fetcher:   fetcher,
		origins:   origins,
		nameLimit: nameLimit,
		logger:    observability.GetLogger().Named("collect.layout"),
	}
}

func (c *Layout) Tier() schemas.Tier { return schemas.TierLayout }

// Collect enumerates laid-out nodes with a non-degenerate box, classifying
// them as clickable from the snapshot's own flag, the tag allowlist, or an
// explicit role attribute. Each candidate's center is translated from the
// document's local space into page-absolute viewport coordinates.
func (c *Layout) Collect(ctx context.Context, target Target) ([]Candidate, error) {
	docs, table, err := c.fetcher.CaptureLayout(ctx)
	if err != nil {
		c.logger.Debug("Layout snapshot failed", zap.String("frame", target.Path.Key()), zap.Error(err))
		return nil, fmt.Errorf("layout snapshot: %v: %w", err, schemas.ErrCollectionFailed)
	}

	doc := pickDocument(docs, table, target)
	if doc == nil || doc.Nodes == nil || doc.Layout == nil {
		return nil, fmt.Errorf("no snapshot document for frame %s: %w", target.FrameID, schemas.ErrCollectionFailed)
	}

	origin, err := c.origins.FrameOrigin(ctx, target.FrameID)
	if err != nil {
		return nil, fmt.Errorf("frame owner origin for %s: %v: %w", target.FrameID, err, schemas.ErrCollectionFailed)
	}

	clickable := make(map[int64]bool)
	if doc.Nodes.IsClickable != nil {
		for _, idx := range doc.Nodes.IsClickable.Index {
			clickable[idx] = true
		}
	}

	var candidates []Candidate
	seen := make(map[int64]bool)
	for i, nodeIdx := range doc.Layout.NodeIndex {
		if seen[nodeIdx] {
			continue
		}
		if i >= len(doc.Layout.Bounds) {
			break
		}
		bounds := doc.Layout.Bounds[i]
		if len(bounds) < 4 || bounds[2] <= 0 || bounds[3] <= 0 {
			continue
		}
		if int(nodeIdx) >= len(doc.Nodes.NodeName) {
			continue
		}

		tag := strings.ToLower(stringAt(table, doc.Nodes.NodeName[nodeIdx]))
		attrs := attributesAt(doc.Nodes, table, nodeIdx)
		roleAttr := attrs["role"]
		_, disabled := attrs["disabled"]
		if !clickable[nodeIdx] && !layoutTags[tag] && roleAttr == "" {
			continue
		}
		seen[nodeIdx] = true

		// Local center, adjusted out of the document's scroll, then shifted
		// by the owning iframe's viewport box origin.
		cx := bounds[0] + bounds[2]/2 - doc.ScrollOffsetX + origin.X
		cy := bounds[1] + bounds[3]/2 - doc.ScrollOffsetY + origin.Y

		candidates = append(candidates, Candidate{
			Role: layoutRole(tag, roleAttr),
			Name: layoutName(attrs, tag, c.nameLimit),
			Resolution: schemas.PointResolution(schemas.Point{
				X: cx,
				Y: cy,
			}),
			Box: &schemas.BoundingBox{
				X:      bounds[0] - doc.ScrollOffsetX + origin.X,
				Y:      bounds[1] - doc.ScrollOffsetY + origin.Y,
				Width:  bounds[2],
				Height: bounds[3],
			},
			Enabled: !disabled,
		})
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("layout snapshot produced no usable entries: %w", schemas.ErrEmptyResult)
	}
	return candidates, nil
}

// pickDocument matches a snapshot document to the target frame by frame id,
// falling back to the target's positional ordinal in the flattened tree.
func pickDocument(docs []*domsnapshot.DocumentSnapshot, table []string, target Target) *domsnapshot.DocumentSnapshot {
	for _, doc := range docs {
		if stringAt(table, doc.FrameID) == string(target.FrameID) {
			return doc
		}
	}
	if target.Ordinal >= 0 && target.Ordinal < len(docs) {
		return docs[target.Ordinal]
	}
	if len(docs) == 1 {
		return docs[0]
	}
	return nil
}

// layoutName derives a label from the attributes the snapshot exposes, with
// the tag name as last resort.
func layoutName(attrs map[string]string, tag string, limit int) string {
	if s := cleanName(attrs["aria-label"], limit); s != "" {
		return s
	}
	if s := cleanName(attrs["title"], limit); s != "" {
		return s
	}
	return nameOrUnnamed(tag, limit)
}

func layoutRole(tag, roleAttr string) string {
	if roleAttr != "" {
		return strings.ToLower(roleAttr)
	}
	switch tag {
	case "a":
		return "link"
	case "button":
		return "button"
	case "input", "textarea", "select":
		return "textbox"
	default:
		return "button"
	}
}

func stringAt(table []string, idx domsnapshot.StringIndex) string {
	if idx < 0 || int(idx) >= len(table) {
		return ""
	}
	return table[idx]
}

// attributesAt flattens a node's attribute name/value index pairs.
func attributesAt(nodes *domsnapshot.NodeTreeSnapshot, table []string, nodeIdx int64) map[string]string {
	attrs := make(map[string]string)
	if int(nodeIdx) >= len(nodes.Attributes) {
		return attrs
	}
	pairs := nodes.Attributes[nodeIdx]
	for i := 0; i+1 < len(pairs); i += 2 {
		name := stringAt(table, domsnapshot.StringIndex(pairs[i]))
		if name == "" {
			continue
		}
		attrs[strings.ToLower(name)] = stringAt(table, domsnapshot.StringIndex(pairs[i+1]))
	}
	return attrs
}
