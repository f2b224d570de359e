// File: internal/collect/axtree.go
package collect

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/accessibility"
	"github.com/chromedp/cdproto/cdp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/framescope/api/schemas"
	"github.com/xkilldash9x/framescope/internal/observability"
)

// AXFetcher retrieves the accessibility tree scoped to one frame.
type AXFetcher interface {
	FullAXTree(ctx context.Context, frameID cdp.FrameID) ([]*accessibility.Node, error)
}

// interactiveRoles is deliberately broad: custom-widget frameworks often
// expose only structural roles, so headings, regions, images and groups are
// accepted alongside the narrow interactive set.
var interactiveRoles = map[string]bool{
	"button":     true,
	"link":       true,
	"textbox":    true,
	"checkbox":   true,
	"radio":      true,
	"combobox":   true,
	"tab":        true,
	"menuitem":   true,
	"option":     true,
	"switch":     true,
	"searchbox":  true,
	"spinbutton": true,
	"heading":    true,
	"region":     true,
	"graphic":    true,
	"image":      true,
	"group":      true,
}

// AXTree enumerates elements from the browser's accessibility tree. It works
// across origin boundaries because the tree is fetched over the protocol,
// not read from inside the page.
type AXTree struct {
	fetcher   AXFetcher
	nameLimit int
	logger    *zap.Logger
}

// NewAXTree returns the accessibility-tree collector.
func NewAXTree(fetcher AXFetcher, nameLimit int) *AXTree {
	return &AXTree{
		fetcher:   fetcher,
		nameLimit: nameLimit,
		logger:    observability.GetLogger().Named("collect.axtree"),
	}
}

func (c *AXTree) Tier() schemas.Tier { return schemas.TierAXTree }

// Collect walks the frame's accessibility tree root-down and keeps nodes
// that are not ignored, carry a backend node handle, and match the
// interactive-role set. When the strict walk yields nothing, named generic
// nodes are accepted as a second chance before giving up.
func (c *AXTree) Collect(ctx context.Context, target Target) ([]Candidate, error) {
	nodes, err := c.fetcher.FullAXTree(ctx, target.FrameID)
	if err != nil {
		c.logger.Debug("Accessibility tree fetch failed", zap.String("frame", target.Path.Key()), zap.Error(err))
		return nil, fmt.Errorf("accessibility tree for frame %s: %v: %w", target.FrameID, err, schemas.ErrCollectionFailed)
	}

	ordered := orderNodes(nodes)

	candidates := c.pick(ordered, false)
	if len(candidates) == 0 {
		candidates = c.pick(ordered, true)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("accessibility tree produced no usable entries: %w", schemas.ErrEmptyResult)
	}
	return candidates, nil
}

func (c *AXTree) pick(nodes []*accessibility.Node, allowNamedGeneric bool) []Candidate {
	var out []Candidate
	for _, n := range nodes {
		if n.Ignored || n.BackendDOMNodeID == 0 {
			continue
		}
		role := axValueString(n.Role)
		name := axValueString(n.Name)
		if !interactiveRoles[role] {
			if !allowNamedGeneric || role != "generic" || name == "" {
				continue
			}
		}
		out = append(out, Candidate{
			Role:       role,
			Name:       nameOrUnnamed(name, c.nameLimit),
			Resolution: schemas.NodeResolution(n.BackendDOMNodeID),
			Enabled:    !axDisabled(n),
		})
	}
	return out
}

// orderNodes rebuilds document order from the flat node list: roots first,
// then children depth-first via ChildIDs.
func orderNodes(nodes []*accessibility.Node) []*accessibility.Node {
	byID := make(map[accessibility.NodeID]*accessibility.Node, len(nodes))
	child := make(map[accessibility.NodeID]bool)
	for _, n := range nodes {
		byID[n.NodeID] = n
		for _, id := range n.ChildIDs {
			child[id] = true
		}
	}

	var ordered []*accessibility.Node
	visited := make(map[accessibility.NodeID]bool, len(nodes))
	var walk func(id accessibility.NodeID)
	walk = func(id accessibility.NodeID) {
		n, ok := byID[id]
		if !ok || visited[id] {
			return
		}
		visited[id] = true
		ordered = append(ordered, n)
		for _, childID := range n.ChildIDs {
			walk(childID)
		}
	}
	for _, n := range nodes {
		if !child[n.NodeID] {
			walk(n.NodeID)
		}
	}
	// Orphans can appear when the tree arrives partially loaded.
	for _, n := range nodes {
		if !visited[n.NodeID] {
			walk(n.NodeID)
		}
	}
	return ordered
}

// axValueString decodes an accessibility value, which arrives as raw JSON
// text. Non-string payloads fall back to their verbatim text.
func axValueString(v *accessibility.Value) string {
	if v == nil || len(v.Value) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(v.Value), &s); err == nil {
		return s
	}
	return string(v.Value)
}

func axDisabled(n *accessibility.Node) bool {
	for _, p := range n.Properties {
		if string(p.Name) != "disabled" {
			continue
		}
		if p.Value == nil || len(p.Value.Value) == 0 {
			return false
		}
		var b bool
		if err := json.Unmarshal([]byte(p.Value.Value), &b); err == nil {
			return b
		}
		return false
	}
	return false
}
