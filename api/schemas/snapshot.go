package schemas

import (
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
)

// -- Snapshot Schemas --

// Tier identifies which discovery strategy produced a snapshot.
type Tier string

const (
	// TierInPage is the baseline: a discovery routine evaluated inside the
	// frame's own script context. Only works for same-origin frames.
	TierInPage Tier = "inpage"
	// TierAXTree reads the accessibility tree over the protocol and works
	// across origin boundaries.
	TierAXTree Tier = "axtree"
	// TierLayout falls back to a full DOM/layout snapshot and yields fixed
	// viewport points instead of re-findable elements.
	TierLayout Tier = "layout"
	// TierNone means every tier ran and none found an interactive surface.
	TierNone Tier = "none"
)

// RefPrefix returns the reference id prefix associated with the tier.
func (t Tier) RefPrefix() string {
	switch t {
	case TierInPage:
		return "el-"
	case TierAXTree:
		return "ax-"
	case TierLayout:
		return "pt-"
	}
	return ""
}

// Point is an absolute coordinate in the top-level page's viewport.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox describes an element's layout rectangle.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the geometric center of the box.
func (b BoundingBox) Center() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// ResolutionKind discriminates the three mutually exclusive ways a stored
// reference can later be turned back into an input action.
type ResolutionKind string

const (
	// ResolveLocator re-finds the element by role and name inside the
	// frame's script context.
	ResolveLocator ResolutionKind = "locator"
	// ResolveNode uses an opaque protocol node handle, valid for the
	// lifetime of the frame's current document.
	ResolveNode ResolutionKind = "node"
	// ResolvePoint dispatches at a viewport coordinate captured at
	// snapshot time.
	ResolvePoint ResolutionKind = "point"
)

// Resolution is a tagged variant: exactly one strategy is populated, fixed at
// construction. The zero value is invalid and rejected by consumers.
type Resolution struct {
	kind ResolutionKind

	role string
	name string

	backendNode cdp.BackendNodeID

	point Point
}

// LocatorResolution builds a resolution that re-finds by role and name.
func LocatorResolution(role, name string) Resolution {
	return Resolution{kind: ResolveLocator, role: role, name: name}
}

// NodeResolution builds a resolution around a protocol node handle.
func NodeResolution(id cdp.BackendNodeID) Resolution {
	return Resolution{kind: ResolveNode, backendNode: id}
}

// PointResolution builds a resolution that clicks a fixed viewport point.
func PointResolution(p Point) Resolution {
	return Resolution{kind: ResolvePoint, point: p}
}

// Kind reports which strategy this resolution carries.
func (r Resolution) Kind() ResolutionKind { return r.kind }

// Valid reports whether the resolution was built through a constructor.
func (r Resolution) Valid() bool {
	switch r.kind {
	case ResolveLocator, ResolveNode, ResolvePoint:
		return true
	}
	return false
}

// Locator returns the role/name pair for a locator resolution.
func (r Resolution) Locator() (role, name string) { return r.role, r.name }

// BackendNode returns the protocol node handle for a node resolution.
func (r Resolution) BackendNode() cdp.BackendNodeID { return r.backendNode }

// Point returns the click coordinate for a point resolution.
func (r Resolution) Point() Point { return r.point }

// RefEntry is one stored interactive element: a stable id plus how to act on
// it later. Entries are owned by the reference store and invalidated wholesale
// when their frame key is re-snapshotted.
type RefEntry struct {
	ID         string      `json:"id"`
	Role       string      `json:"role"`
	Name       string      `json:"name"`
	Resolution Resolution  `json:"-"`
	Box        *BoundingBox `json:"box,omitempty"`
	Enabled    bool        `json:"enabled"`
}

// SnapshotResult is the caller-facing outcome of one snapshot request.
// An empty Entries slice with TierNone is a success, not an error: the frame
// simply has no discoverable interactive surface.
type SnapshotResult struct {
	FramePath string     `json:"frame_path"`
	Tier      Tier       `json:"tier"`
	Prefix    string     `json:"prefix"`
	Entries   []RefEntry `json:"entries"`
}

// Render produces the textual tree handed back to callers.
func (s *SnapshotResult) Render() string {
	var b strings.Builder
	target := s.FramePath
	if target == "" {
		target = "(top)"
	}
	fmt.Fprintf(&b, "frame: %s\n", target)
	if len(s.Entries) == 0 {
		b.WriteString("no interactive elements found\n")
		return b.String()
	}
	fmt.Fprintf(&b, "tier: %s, refs: %s*\n", s.Tier, s.Prefix)
	for _, e := range s.Entries {
		fmt.Fprintf(&b, "- [%s] %s %q\n", e.ID, e.Role, e.Name)
	}
	return b.String()
}

// ElementSummary is the read-only diagnostic view returned by ListInteractive.
// It never enters the reference store.
type ElementSummary struct {
	Role    string       `json:"role"`
	Name    string       `json:"name"`
	Enabled bool         `json:"enabled"`
	Box     *BoundingBox `json:"box,omitempty"`
}

// ListFilter narrows the diagnostic listing.
type ListFilter struct {
	// Role keeps only elements whose role contains the given substring.
	Role string
	// NamedOnly drops elements that fell back to the unnamed sentinel.
	NamedOnly bool
}

// Match reports whether an element passes the filter. unnamedSentinel is the
// label assigned to elements with no derivable name.
func (f ListFilter) Match(role, name, unnamedSentinel string) bool {
	if f.Role != "" && !strings.Contains(role, f.Role) {
		return false
	}
	if f.NamedOnly && name == unnamedSentinel {
		return false
	}
	return true
}
