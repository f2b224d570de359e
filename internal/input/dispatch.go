// File: internal/input/dispatch.go

// Package input converts resolved elements and points into raw pointer
// events. Dispatch happens at absolute viewport coordinates and bypasses
// DOM-level actionability checks entirely.
package input

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/dom"
	protoinput "github.com/chromedp/cdproto/input"

	"github.com/xkilldash9x/framescope/api/schemas"
)

// MouseDispatcher issues a single raw mouse event over the protocol.
type MouseDispatcher interface {
	DispatchMouse(ctx context.Context, params *protoinput.DispatchMouseEventParams) error
}

// BoxCenter returns the centroid of a box model's content quad.
func BoxCenter(box *dom.BoxModel) (schemas.Point, error) {
	if box == nil || len(box.Content) < 8 {
		return schemas.Point{}, fmt.Errorf("box model has no content quad: %w", schemas.ErrDispatchFailed)
	}
	q := box.Content
	return schemas.Point{
		X: (q[0] + q[2] + q[4] + q[6]) / 4,
		Y: (q[1] + q[3] + q[5] + q[7]) / 4,
	}, nil
}

// Click issues a press-then-release pair at an absolute viewport point.
func Click(ctx context.Context, d MouseDispatcher, pt schemas.Point) error {
	press := protoinput.DispatchMouseEvent(protoinput.MousePressed, pt.X, pt.Y).
		WithButton(protoinput.Left).
		WithClickCount(1)
	if err := d.DispatchMouse(ctx, press); err != nil {
		return fmt.Errorf("mouse press at (%.1f, %.1f): %v: %w", pt.X, pt.Y, err, schemas.ErrDispatchFailed)
	}

	release := protoinput.DispatchMouseEvent(protoinput.MouseReleased, pt.X, pt.Y).
		WithButton(protoinput.Left).
		WithClickCount(1)
	if err := d.DispatchMouse(ctx, release); err != nil {
		return fmt.Errorf("mouse release at (%.1f, %.1f): %v: %w", pt.X, pt.Y, err, schemas.ErrDispatchFailed)
	}
	return nil
}
