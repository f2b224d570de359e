// File: internal/collect/layout_test.go
package collect

import (
	"context"
	"errors"
	"testing"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/domsnapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/framescope/api/schemas"
)

type fakeLayoutFetcher struct {
	docs  []*domsnapshot.DocumentSnapshot
	table []string
	err   error
}

func (f *fakeLayoutFetcher) CaptureLayout(_ context.Context) ([]*domsnapshot.DocumentSnapshot, []string, error) {
	return f.docs, f.table, f.err
}

type fakeOrigins struct {
	origin schemas.Point
	err    error
}

func (f *fakeOrigins) FrameOrigin(_ context.Context, _ cdp.FrameID) (schemas.Point, error) {
	return f.origin, f.err
}

// layoutDoc builds a one-document snapshot from parallel node/layout rows.
type layoutRow struct {
	nodeName  domsnapshot.StringIndex
	attrs     domsnapshot.ArrayOfStrings
	bounds    []float64
	clickable bool
}

func layoutDoc(frameID domsnapshot.StringIndex, scrollX, scrollY float64, rows []layoutRow) *domsnapshot.DocumentSnapshot {
	nodes := &domsnapshot.NodeTreeSnapshot{IsClickable: &domsnapshot.RareBooleanData{}}
	layout := &domsnapshot.LayoutTreeSnapshot{}
	for i, row := range rows {
		nodes.NodeName = append(nodes.NodeName, row.nodeName)
		nodes.Attributes = append(nodes.Attributes, row.attrs)
		if row.clickable {
			nodes.IsClickable.Index = append(nodes.IsClickable.Index, int64(i))
		}
		layout.NodeIndex = append(layout.NodeIndex, int64(i))
		layout.Bounds = append(layout.Bounds, row.bounds)
	}
	return &domsnapshot.DocumentSnapshot{
		FrameID:       frameID,
		Nodes:         nodes,
		Layout:        layout,
		ScrollOffsetX: scrollX,
		ScrollOffsetY: scrollY,
	}
}

func TestLayoutCrossOriginClickPoint(t *testing.T) {
	// A 40x20 element with role="button" at local box origin (80,190), so
	// its local center is (100,200), inside an iframe whose viewport box
	// starts at (50,300).
	table := []string{"", "DIV", "role", "button", "frame-x"}
	doc := layoutDoc(4, 0, 0, []layoutRow{
		{nodeName: 1, attrs: domsnapshot.ArrayOfStrings{2, 3}, bounds: []float64{80, 190, 40, 20}},
	})
	c := NewLayout(
		&fakeLayoutFetcher{docs: []*domsnapshot.DocumentSnapshot{doc}, table: table},
		&fakeOrigins{origin: schemas.Point{X: 50, Y: 300}},
		80,
	)

	got, err := c.Collect(context.Background(), Target{FrameID: "frame-x"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "button", got[0].Role)
	assert.Equal(t, schemas.ResolvePoint, got[0].Resolution.Kind())
	assert.Equal(t, schemas.Point{X: 150, Y: 500}, got[0].Resolution.Point())
}

func TestLayoutScrollOffsetSubtracted(t *testing.T) {
	table := []string{"", "BUTTON", "frame-x"}
	doc := layoutDoc(2, 5, 10, []layoutRow{
		{nodeName: 1, bounds: []float64{80, 190, 40, 20}},
	})
	c := NewLayout(
		&fakeLayoutFetcher{docs: []*domsnapshot.DocumentSnapshot{doc}, table: table},
		&fakeOrigins{origin: schemas.Point{X: 50, Y: 300}},
		80,
	)

	got, err := c.Collect(context.Background(), Target{FrameID: "frame-x"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, schemas.Point{X: 145, Y: 490}, got[0].Resolution.Point())
}

func TestLayoutClassification(t *testing.T) {
	table := []string{"", "DIV", "BUTTON", "role", "tab", "frame-x"}
	doc := layoutDoc(5, 0, 0, []layoutRow{
		// Plain div with no role: not clickable, skipped.
		{nodeName: 1, bounds: []float64{0, 0, 100, 100}},
		// Interactive tag.
		{nodeName: 2, bounds: []float64{0, 0, 50, 20}},
		// Explicit role attribute on a div.
		{nodeName: 1, attrs: domsnapshot.ArrayOfStrings{3, 4}, bounds: []float64{0, 40, 50, 20}},
		// Snapshot's own clickable flag.
		{nodeName: 1, bounds: []float64{0, 80, 50, 20}, clickable: true},
		// Degenerate box, skipped even though clickable.
		{nodeName: 2, bounds: []float64{0, 120, 0, 20}},
	})
	c := NewLayout(
		&fakeLayoutFetcher{docs: []*domsnapshot.DocumentSnapshot{doc}, table: table},
		&fakeOrigins{},
		80,
	)

	got, err := c.Collect(context.Background(), Target{FrameID: "frame-x"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "button", got[0].Role)
	assert.Equal(t, "tab", got[1].Role)
	// Unknown tags flagged clickable default to button.
	assert.Equal(t, "button", got[2].Role)
}

func TestLayoutNaming(t *testing.T) {
	table := []string{"", "BUTTON", "aria-label", "Close dialog", "title", "Tooltip", "frame-x"}
	doc := layoutDoc(6, 0, 0, []layoutRow{
		// aria-label wins over title.
		{nodeName: 1, attrs: domsnapshot.ArrayOfStrings{2, 3, 4, 5}, bounds: []float64{0, 0, 10, 10}},
		// title alone.
		{nodeName: 1, attrs: domsnapshot.ArrayOfStrings{4, 5}, bounds: []float64{0, 20, 10, 10}},
		// Tag name as last resort.
		{nodeName: 1, bounds: []float64{0, 40, 10, 10}},
	})
	c := NewLayout(
		&fakeLayoutFetcher{docs: []*domsnapshot.DocumentSnapshot{doc}, table: table},
		&fakeOrigins{},
		80,
	)

	got, err := c.Collect(context.Background(), Target{FrameID: "frame-x"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Close dialog", got[0].Name)
	assert.Equal(t, "Tooltip", got[1].Name)
	assert.Equal(t, "button", got[2].Name)
}

func TestLayoutDisabledAttribute(t *testing.T) {
	// A bare disabled attribute has no value; presence alone must flip the
	// enabled flag.
	table := []string{"", "BUTTON", "disabled", "frame-x"}
	doc := layoutDoc(3, 0, 0, []layoutRow{
		{nodeName: 1, attrs: domsnapshot.ArrayOfStrings{2, 0}, bounds: []float64{0, 0, 10, 10}},
		{nodeName: 1, bounds: []float64{0, 20, 10, 10}},
	})
	c := NewLayout(
		&fakeLayoutFetcher{docs: []*domsnapshot.DocumentSnapshot{doc}, table: table},
		&fakeOrigins{},
		80,
	)

	got, err := c.Collect(context.Background(), Target{FrameID: "frame-x"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.False(t, got[0].Enabled)
	assert.True(t, got[1].Enabled)
}

func TestLayoutDocumentSelection(t *testing.T) {
	table := []string{"", "BUTTON", "frame-a", "frame-b"}
	docA := layoutDoc(2, 0, 0, []layoutRow{{nodeName: 1, bounds: []float64{0, 0, 10, 10}}})
	docB := layoutDoc(3, 0, 0, []layoutRow{
		{nodeName: 1, bounds: []float64{0, 0, 10, 10}},
		{nodeName: 1, bounds: []float64{0, 20, 10, 10}},
	})
	fetcher := &fakeLayoutFetcher{docs: []*domsnapshot.DocumentSnapshot{docA, docB}, table: table}
	c := NewLayout(fetcher, &fakeOrigins{}, 80)

	// Explicit frame id match.
	got, err := c.Collect(context.Background(), Target{FrameID: "frame-b"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// Unknown frame id falls back to the positional ordinal.
	got, err = c.Collect(context.Background(), Target{FrameID: "frame-z", Ordinal: 1})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestLayoutFailureModes(t *testing.T) {
	c := NewLayout(&fakeLayoutFetcher{err: errors.New("boom")}, &fakeOrigins{}, 80)
	_, err := c.Collect(context.Background(), Target{})
	assert.ErrorIs(t, err, schemas.ErrCollectionFailed)

	// A document with no clickable surface escalates as empty.
	table := []string{"", "DIV", "frame-x"}
	doc := layoutDoc(2, 0, 0, []layoutRow{{nodeName: 1, bounds: []float64{0, 0, 10, 10}}})
	c = NewLayout(&fakeLayoutFetcher{docs: []*domsnapshot.DocumentSnapshot{doc}, table: table}, &fakeOrigins{}, 80)
	_, err = c.Collect(context.Background(), Target{FrameID: "frame-x"})
	assert.ErrorIs(t, err, schemas.ErrEmptyResult)

	// Owner box lookup failure is a collection failure.
	c = NewLayout(&fakeLayoutFetcher{docs: []*domsnapshot.DocumentSnapshot{doc}, table: table}, &fakeOrigins{err: errors.New("no owner")}, 80)
	_, err = c.Collect(context.Background(), Target{FrameID: "frame-x"})
	assert.ErrorIs(t, err, schemas.ErrCollectionFailed)
}
