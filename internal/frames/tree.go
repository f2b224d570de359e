package frames

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
)

// OwnerInspector is the protocol surface needed to inspect a frame's owner
// element. Satisfied by *browser.Executor.
type OwnerInspector interface {
	// FrameOwner returns the DOM node that embeds the given frame (the
	// iframe element in the parent document).
	FrameOwner(ctx context.Context, id cdp.FrameID) (*cdp.Node, error)
}

// Flatten returns every frame id of the tree in pre-order, parent before
// children. The ordering is stable and matches the engine's positional
// pairing of layout-snapshot documents with frames.
func Flatten(t *page.FrameTree) []cdp.FrameID {
	if t == nil || t.Frame == nil {
		return nil
	}
	ids := []cdp.FrameID{t.Frame.ID}
	for _, child := range t.ChildFrames {
		ids = append(ids, Flatten(child)...)
	}
	return ids
}

// findSubtree locates the subtree rooted at id, along with the position of
// that frame among its parent's children (1-based, 0 for the root).
func findSubtree(t *page.FrameTree, id cdp.FrameID) (*page.FrameTree, int) {
	if t == nil || t.Frame == nil {
		return nil, 0
	}
	if t.Frame.ID == id {
		return t, 0
	}
	for i, child := range t.ChildFrames {
		if child.Frame != nil && child.Frame.ID == id {
			return child, i + 1
		}
		if sub, pos := findSubtree(child, id); sub != nil {
			return sub, pos
		}
	}
	return nil, 0
}

// SelectorForFrame reverse-maps an opaque frame id to the selector string a
// caller would use for its owner element: iframe#<id>, iframe[name=<name>],
// or a positional iframe:nth-of-type(n) when neither attribute exists.
func SelectorForFrame(ctx context.Context, insp OwnerInspector, tree *page.FrameTree, id cdp.FrameID) (string, error) {
	sub, pos := findSubtree(tree, id)
	if sub == nil {
		return "", fmt.Errorf("frame %s not present in frame tree", id)
	}
	if pos == 0 {
		return "", nil // top-level document has no owner
	}

	owner, err := insp.FrameOwner(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to inspect owner of frame %s: %w", id, err)
	}
	attrs := attributeMap(owner)
	if v := attrs["id"]; v != "" {
		return "iframe#" + v, nil
	}
	if v := attrs["name"]; v != "" {
		return fmt.Sprintf("iframe[name=%q]", v), nil
	}
	return fmt.Sprintf("iframe:nth-of-type(%d)", pos), nil
}

// MatchChild matches a single path segment against one frame's direct
// children, synthesizing each child's selector forms the same way
// SelectorForFrame does.
func MatchChild(ctx context.Context, insp OwnerInspector, parent *page.FrameTree, selector string) (*page.FrameTree, bool) {
	if parent == nil {
		return nil, false
	}
	want := normalizeSelector(selector)
	for i, child := range parent.ChildFrames {
		if child.Frame == nil {
			continue
		}
		owner, err := insp.FrameOwner(ctx, child.Frame.ID)
		if err != nil {
			continue
		}
		attrs := attributeMap(owner)
		forms := []string{fmt.Sprintf("iframe:nth-of-type(%d)", i+1)}
		if v := attrs["id"]; v != "" {
			forms = append(forms, "iframe#"+v, "#"+v)
		}
		if v := attrs["name"]; v != "" {
			forms = append(forms, fmt.Sprintf("iframe[name=%s]", v), fmt.Sprintf("[name=%s]", v))
		}
		for _, form := range forms {
			if normalizeSelector(form) == want {
				return child, true
			}
		}
	}
	return nil, false
}

func normalizeSelector(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, "'", "")
	return s
}

// attributeMap converts a node's flat [name, value, ...] attribute slice into
// a lookup map.
func attributeMap(n *cdp.Node) map[string]string {
	attrs := make(map[string]string)
	if n == nil {
		return attrs
	}
	for i := 0; i+1 < len(n.Attributes); i += 2 {
		attrs[strings.ToLower(n.Attributes[i])] = n.Attributes[i+1]
	}
	return attrs
}
