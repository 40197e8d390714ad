package state_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MeetBoard/internal/state"
)

func newTools(t *testing.T) *state.ToolState {
	t.Helper()
	ts, err := state.NewToolState(state.Tool{
		Mode:  state.ModePen,
		Style: state.Style{Color: "#000000", Width: 2},
	})
	require.NoError(t, err)
	return ts
}

func TestModeClassification(t *testing.T) {
	preview := map[state.Mode]bool{
		state.ModePen:       false,
		state.ModeEraser:    false,
		state.ModeLine:      true,
		state.ModeRectangle: true,
		state.ModeCircle:    true,
		state.ModeText:      true,
	}
	for _, m := range state.Modes {
		assert.Equal(t, preview[m], m.IsPreview(), "mode %s", m)
	}
}

func TestParseMode(t *testing.T) {
	m, err := state.ParseMode("circle")
	require.NoError(t, err)
	assert.Equal(t, state.ModeCircle, m)

	_, err = state.ParseMode("lasso")
	assert.ErrorIs(t, err, state.ErrUnknownMode)
}

func TestStyleValidate(t *testing.T) {
	assert.NoError(t, state.Style{Color: "#e03131", Width: 1}.Validate())
	assert.NoError(t, state.Style{Color: "#ABCDEF", Width: 20}.Validate())
	assert.ErrorIs(t, state.Style{Color: "red", Width: 2}.Validate(), state.ErrInvalidColor)
	assert.ErrorIs(t, state.Style{Color: "#fff", Width: 2}.Validate(), state.ErrInvalidColor)
	assert.ErrorIs(t, state.Style{Color: "#000000", Width: 0}.Validate(), state.ErrInvalidWidth)
	assert.ErrorIs(t, state.Style{Color: "#000000", Width: 21}.Validate(), state.ErrInvalidWidth)
}

func TestToolStateSetters(t *testing.T) {
	ts := newTools(t)
	var seen []state.Tool
	ts.OnChange(func(tl state.Tool) { seen = append(seen, tl) })

	require.NoError(t, ts.SetMode(state.ModeRectangle))
	require.NoError(t, ts.SetColor("#1971c2"))
	require.NoError(t, ts.SetWidth(50))

	want := state.Tool{Mode: state.ModeRectangle, Style: state.Style{Color: "#1971c2", Width: state.MaxWidth}}
	assert.Equal(t, want, ts.Current())
	require.Len(t, seen, 3)
	assert.Equal(t, want, seen[2])

	require.NoError(t, ts.SetWidth(-3))
	assert.Equal(t, state.MinWidth, ts.Current().Style.Width)
}

func TestToolStateRejectsInvalid(t *testing.T) {
	ts := newTools(t)
	calls := 0
	ts.OnChange(func(state.Tool) { calls++ })

	assert.ErrorIs(t, ts.SetColor("blue"), state.ErrInvalidColor)
	assert.ErrorIs(t, ts.SetMode("spray"), state.ErrUnknownMode)
	assert.Equal(t, "#000000", ts.Current().Style.Color)
	assert.Equal(t, state.ModePen, ts.Current().Mode)
	assert.Zero(t, calls)

	_, err := state.NewToolState(state.Tool{Mode: state.ModePen, Style: state.Style{Color: "#000000"}})
	assert.ErrorIs(t, err, state.ErrInvalidWidth)
}

func TestAttachedFiles(t *testing.T) {
	af := state.NewAttachedFiles()
	a := af.Append("one.txt", []byte("hello"))
	b := af.Append("two.pdf", []byte("%PDF-1.7\n"))

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 5, a.Size())
	assert.Equal(t, "text/plain; charset=utf-8", a.MIME)
	assert.Equal(t, "application/pdf", b.MIME)

	got := af.All()
	want := []state.Attachment{a, b}
	if diff := cmp.Diff(want, got, cmpopts.EquateApproxTime(0)); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}

	got[0].Name = "mutated"
	assert.Equal(t, "one.txt", af.All()[0].Name, "All must return a copy")

	af.Clear()
	assert.Zero(t, af.Len())
	assert.Empty(t, af.All())
}

func TestPointDist(t *testing.T) {
	assert.InDelta(t, 30, state.Pt(100, 100).Dist(state.Pt(130, 100)), 1e-9)
	assert.InDelta(t, 5, state.Pt(0, 0).Dist(state.Pt(-3, -4)), 1e-9)
}
