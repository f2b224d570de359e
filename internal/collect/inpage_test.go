// File: internal/collect/inpage_test.go
package collect

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/framescope/api/schemas"
	"github.com/xkilldash9x/framescope/internal/frames"
)

// fakeEvaluator returns a canned JSON payload or an error.
type fakeEvaluator struct {
	payload string
	err     error
	lastExpr string
}

func (f *fakeEvaluator) Evaluate(_ context.Context, expr string, out any) error {
	f.lastExpr = expr
	if f.err != nil {
		return f.err
	}
	raw, ok := out.(*[]byte)
	if !ok {
		return errors.New("unexpected output type")
	}
	*raw = []byte(f.payload)
	return nil
}

func inPageTarget(raw string) Target {
	path := frames.Parse(raw)
	return Target{Path: path, LocalPath: path}
}

func TestInPageCollect(t *testing.T) {
	eval := &fakeEvaluator{payload: `{
		"status": "ok",
		"items": [
			{"role": "button", "name": "Submit", "enabled": true, "x": 10, "y": 20, "w": 80, "h": 30},
			{"role": "link", "name": "", "enabled": true, "x": 0, "y": 0, "w": 0, "h": 0}
		]
	}`}
	c := NewInPage(eval, 80)

	got, err := c.Collect(context.Background(), inPageTarget(""))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "button", got[0].Role)
	assert.Equal(t, "Submit", got[0].Name)
	assert.Equal(t, schemas.ResolveLocator, got[0].Resolution.Kind())
	require.NotNil(t, got[0].Box)
	assert.Equal(t, 80.0, got[0].Box.Width)

	// Empty names fall back to the sentinel, degenerate boxes are dropped.
	assert.Equal(t, UnnamedLabel, got[1].Name)
	assert.Nil(t, got[1].Box)
}

func TestInPageNameTruncation(t *testing.T) {
	long := strings.Repeat("x", 200)
	eval := &fakeEvaluator{payload: `{"status":"ok","items":[{"role":"button","name":"` + long + `","enabled":true}]}`}
	c := NewInPage(eval, 10)

	got, err := c.Collect(context.Background(), inPageTarget(""))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 10), got[0].Name)
}

func TestInPageFailureModes(t *testing.T) {
	testCases := []struct {
		name    string
		eval    *fakeEvaluator
		wantErr error
	}{
		{"evaluation error escalates", &fakeEvaluator{err: errors.New("ctx destroyed")}, schemas.ErrCollectionFailed},
		{"cross-origin boundary escalates", &fakeEvaluator{payload: `{"status":"blocked","items":[]}`}, schemas.ErrCollectionFailed},
		{"missing segment is frame not found", &fakeEvaluator{payload: `{"status":"frame_not_found","missing":"iframe#x","items":[]}`}, schemas.ErrFrameNotFound},
		{"zero items is empty result", &fakeEvaluator{payload: `{"status":"ok","items":[]}`}, schemas.ErrEmptyResult},
		{"garbage payload escalates", &fakeEvaluator{payload: `not json`}, schemas.ErrCollectionFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewInPage(tc.eval, 80)
			_, err := c.Collect(context.Background(), inPageTarget("iframe#outer"))
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestDiscoveryScriptEmbedsSegments(t *testing.T) {
	eval := &fakeEvaluator{payload: `{"status":"ok","items":[{"role":"button","name":"b","enabled":true}]}`}
	c := NewInPage(eval, 80)

	_, err := c.Collect(context.Background(), inPageTarget(`iframe#outer >> iframe[name="inner"]`))
	require.NoError(t, err)
	assert.Contains(t, eval.lastExpr, `"iframe#outer"`)
	assert.Contains(t, eval.lastExpr, `iframe[name=\"inner\"]`)
}

func TestLocateClickScript(t *testing.T) {
	script, err := LocateClickScript(frames.Parse("iframe#a"), "button", "Next")
	require.NoError(t, err)
	assert.Contains(t, script, `"iframe#a"`)
	assert.Contains(t, script, `"button"`)
	assert.Contains(t, script, `"Next"`)
	assert.Contains(t, script, "el.click()")
}
