// File: internal/collect/collector.go

// Package collect implements the ranked element-discovery strategies. Each
// collector enumerates interactive elements in one frame and reports either
// a candidate list, a collection failure (the strategy could not run), or an
// empty result (it ran and found nothing). Both failure shapes tell the
// caller to try the next rank.
package collect

import (
	"context"
	"strings"

	"github.com/chromedp/cdproto/cdp"

	"github.com/xkilldash9x/framescope/api/schemas"
	"github.com/xkilldash9x/framescope/internal/frames"
)

// UnnamedLabel is reported for elements with no derivable label.
const UnnamedLabel = "(unnamed)"

// Target identifies the frame a collector should enumerate.
type Target struct {
	// Path is the caller-supplied owner-selector chain.
	Path frames.Path
	// LocalPath is Path relative to the top document of the target being
	// queried. It equals Path when the frame is hosted by the page target
	// and shrinks when the query runs against an attached frame target.
	LocalPath frames.Path
	// FrameID is the protocol frame id for Path's innermost frame.
	FrameID cdp.FrameID
	// Ordinal is Path's position in the flattened frame tree, used to pair
	// snapshot documents with frames when an explicit id match fails.
	Ordinal int
}

// Candidate is one discovered element before it is assigned a reference id.
type Candidate struct {
	Role       string
	Name       string
	Resolution schemas.Resolution
	Box        *schemas.BoundingBox
	Enabled    bool
}

// Collector is one ranked discovery strategy.
type Collector interface {
	Tier() schemas.Tier
	Collect(ctx context.Context, target Target) ([]Candidate, error)
}

// cleanName collapses whitespace and truncates to limit runes. Returns ""
// when nothing printable remains.
func cleanName(raw string, limit int) string {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return ""
	}
	if limit > 0 {
		runes := []rune(s)
		if len(runes) > limit {
			s = string(runes[:limit])
		}
	}
	return s
}

// nameOrUnnamed applies the unnamed sentinel after cleaning.
func nameOrUnnamed(raw string, limit int) string {
	if s := cleanName(raw, limit); s != "" {
		return s
	}
	return UnnamedLabel
}
