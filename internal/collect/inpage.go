// File: internal/collect/inpage.go
package collect

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/framescope/api/schemas"
	"github.com/xkilldash9x/framescope/internal/frames"
	"github.com/xkilldash9x/framescope/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Evaluator runs an expression in the page target's main world and captures
// the JSON result.
type Evaluator interface {
	Evaluate(ctx context.Context, expr string, out any) error
}

// InPage is the baseline collector. It runs a discovery routine inside the
// target frame's own script context, descending the iframe contentDocument
// chain from the top document. A cross-origin boundary throws inside the
// page, which surfaces here as a collection failure rather than a fatal
// error.
type InPage struct {
	eval      Evaluator
	nameLimit int
	logger    *zap.Logger
}

// NewInPage returns the baseline collector.
func NewInPage(eval Evaluator, nameLimit int) *InPage {
	return &InPage{
		eval:      eval,
		nameLimit: nameLimit,
		logger:    observability.GetLogger().Named("collect.inpage"),
	}
}

func (c *InPage) Tier() schemas.Tier { return schemas.TierInPage }

type inPageItem struct {
	Role    string  `json:"role"`
	Name    string  `json:"name"`
	Enabled bool    `json:"enabled"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	W       float64 `json:"w"`
	H       float64 `json:"h"`
}

type inPageResult struct {
	Status  string       `json:"status"`
	Missing string       `json:"missing"`
	Items   []inPageItem `json:"items"`
}

// Collect enumerates interactive elements inside the frame's own document.
func (c *InPage) Collect(ctx context.Context, target Target) ([]Candidate, error) {
	script, err := discoveryScript(target.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("building discovery script: %w", schemas.ErrCollectionFailed)
	}

	var raw []byte
	if err := c.eval.Evaluate(ctx, script, &raw); err != nil {
		c.logger.Debug("In-page evaluation failed", zap.String("frame", target.Path.Key()), zap.Error(err))
		return nil, fmt.Errorf("in-page evaluation: %v: %w", err, schemas.ErrCollectionFailed)
	}

	var result inPageResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding discovery result: %v: %w", err, schemas.ErrCollectionFailed)
	}

	switch result.Status {
	case "ok":
	case "frame_not_found":
		return nil, fmt.Errorf("frame segment %q did not match: %w", result.Missing, schemas.ErrFrameNotFound)
	case "blocked":
		return nil, fmt.Errorf("frame document not scriptable: %w", schemas.ErrCollectionFailed)
	default:
		return nil, fmt.Errorf("unexpected discovery status %q: %w", result.Status, schemas.ErrCollectionFailed)
	}

	if len(result.Items) == 0 {
		return nil, fmt.Errorf("in-page discovery found nothing: %w", schemas.ErrEmptyResult)
	}

	candidates := make([]Candidate, 0, len(result.Items))
	for _, item := range result.Items {
		name := nameOrUnnamed(item.Name, c.nameLimit)
		cand := Candidate{
			Role:       item.Role,
			Name:       name,
			Resolution: schemas.LocatorResolution(item.Role, name),
			Enabled:    item.Enabled,
		}
		if item.W > 0 && item.H > 0 {
			cand.Box = &schemas.BoundingBox{X: item.X, Y: item.Y, Width: item.W, Height: item.H}
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

// jsHelpers holds the shared routines every in-page script starts with:
// chain descent, role derivation and the label precedence chain.
const jsHelpers = `
	const descend = (segs) => {
		let doc = document;
		for (const sel of segs) {
			const owner = doc.querySelector(sel);
			if (!owner) return { doc: null, missing: sel };
			let child = null;
			try { child = owner.contentDocument; } catch (e) { return { doc: null, blocked: true }; }
			if (!child) return { doc: null, blocked: true };
			doc = child;
		}
		return { doc: doc };
	};
	const roleOf = (el) => {
		const explicit = el.getAttribute('role');
		if (explicit) return explicit.toLowerCase();
		const tag = el.tagName.toLowerCase();
		if (tag === 'a') return 'link';
		if (tag === 'button') return 'button';
		if (tag === 'select') return 'combobox';
		if (tag === 'textarea') return 'textbox';
		if (tag === 'input') {
			const t = (el.type || 'text').toLowerCase();
			if (t === 'checkbox') return 'checkbox';
			if (t === 'radio') return 'radio';
			if (t === 'submit' || t === 'reset' || t === 'button' || t === 'image') return 'button';
			if (t === 'search') return 'searchbox';
			if (t === 'range') return 'slider';
			if (t === 'number') return 'spinbutton';
			return 'textbox';
		}
		if (/^h[1-6]$/.test(tag)) return 'heading';
		return 'generic';
	};
	const nameOf = (el) => {
		const aria = el.getAttribute('aria-label');
		if (aria && aria.trim()) return aria.trim();
		if (el.title && el.title.trim()) return el.title.trim();
		const tag = el.tagName.toLowerCase();
		const type = (el.type || '').toLowerCase();
		const formField = tag === 'input' || tag === 'textarea' || tag === 'select';
		if (formField && el.placeholder && el.placeholder.trim()) return el.placeholder.trim();
		if (tag === 'input' && (type === 'submit' || type === 'reset' || type === 'button') && el.value) return el.value.trim();
		return (el.textContent || '').trim();
	};
	const interactiveIn = (doc) => {
		const primary = 'button, a[href], input:not([type=hidden]), select, textarea, ' +
			'[role=button], [role=link], [role=checkbox], [role=radio], [role=tab], ' +
			'[role=menuitem], [role=combobox], [role=option], [role=switch], ' +
			'[role=textbox], [role=searchbox], [contenteditable=true], [tabindex]';
		let els = Array.from(doc.querySelectorAll(primary)).filter((el) => {
			const ti = el.getAttribute('tabindex');
			return ti === null || parseInt(ti, 10) >= 0;
		});
		if (els.length === 0) {
			const fallback = 'h1, h2, h3, h4, h5, h6, [role=heading], main, nav, header, footer, ' +
				'[role=region], [role=main], [role=navigation], section[aria-label]';
			els = Array.from(doc.querySelectorAll(fallback));
		}
		return els;
	};
`

// discoveryScript builds the enumeration routine for one frame path.
func discoveryScript(path frames.Path) (string, error) {
	segs, err := json.Marshal([]string(path))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`(() => {
	%s
	const chain = descend(%s);
	if (chain.blocked) return { status: 'blocked', items: [] };
	if (!chain.doc) return { status: 'frame_not_found', missing: chain.missing, items: [] };
	const doc = chain.doc;
	const seen = new Set();
	const items = [];
	for (const el of interactiveIn(doc)) {
		if (seen.has(el)) continue;
		seen.add(el);
		const r = el.getBoundingClientRect();
		items.push({
			role: roleOf(el),
			name: nameOf(el),
			enabled: !el.disabled,
			x: r.x, y: r.y, w: r.width, h: r.height,
		});
	}
	return { status: 'ok', items: items };
})()`, jsHelpers, segs), nil
}

// LocateClickScript builds a routine that re-finds an element by role and
// name inside the frame's own document and performs a native click on it.
func LocateClickScript(path frames.Path, role, name string) (string, error) {
	segs, err := json.Marshal([]string(path))
	if err != nil {
		return "", err
	}
	wantRole, err := json.Marshal(role)
	if err != nil {
		return "", err
	}
	wantName, err := json.Marshal(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`(() => {
	%s
	const chain = descend(%s);
	if (chain.blocked) return { status: 'blocked' };
	if (!chain.doc) return { status: 'frame_not_found', missing: chain.missing };
	const doc = chain.doc;
	const wantRole = %s;
	const wantName = %s;
	const matches = (got, want) => {
		if (want === '(unnamed)') return got === '';
		return got === want || (want.length > 0 && got.startsWith(want));
	};
	for (const el of interactiveIn(doc)) {
		if (roleOf(el) !== wantRole) continue;
		if (!matches(nameOf(el), wantName)) continue;
		el.scrollIntoView({ block: 'center', inline: 'center' });
		el.click();
		return { status: 'ok', clicked: true };
	}
	return { status: 'ok', clicked: false };
})()`, jsHelpers, segs, wantRole, wantName), nil
}
