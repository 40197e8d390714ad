package board_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MeetBoard/internal/board"
	"MeetBoard/internal/state"
)

var (
	red   = state.Style{Color: "#ff0000", Width: 4}
	blue  = state.Style{Color: "#0000ff", Width: 4}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

func tool(m state.Mode, s state.Style) state.Tool { return state.Tool{Mode: m, Style: s} }

func mounted(t *testing.T, w, h int) *board.Surface {
	t.Helper()
	s := board.New(nil)
	s.Mount(board.Size{Width: w, Height: h})
	require.True(t, s.Ready())
	t.Cleanup(s.Unmount)
	return s
}

func at(t *testing.T, s *board.Surface, x, y int) color.RGBA {
	t.Helper()
	img := s.Image()
	require.NotNil(t, img)
	return img.RGBAAt(x, y)
}

func isRed(c color.RGBA) bool  { return c.R > 200 && c.G < 80 && c.B < 80 }
func isBlue(c color.RGBA) bool { return c.B > 200 && c.R < 80 && c.G < 80 }
func isWhite(c color.RGBA) bool {
	return c.R >= 250 && c.G >= 250 && c.B >= 250 && c.A == 255
}

func allBackground(img *image.RGBA) bool {
	for _, v := range img.Pix {
		if v != 0xff {
			return false
		}
	}
	return true
}

func drag(s *board.Surface, tl state.Tool, pts ...state.Point) {
	s.BeginStroke(pts[0], tl)
	for _, p := range pts[1:] {
		s.ContinueStroke(p, tl)
	}
	s.EndStroke()
}

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestMountFillsBackground(t *testing.T) {
	s := mounted(t, 64, 32)

	assert.Equal(t, board.Size{Width: 64, Height: 32}, s.Size())
	assert.True(t, allBackground(s.Image()))
	assert.Equal(t, board.Idle{}, s.Phase())
}

func TestNotReadyIsNoop(t *testing.T) {
	s := board.New(nil)
	s.Mount(board.Size{Width: 0, Height: 100})
	defer s.Unmount()

	assert.False(t, s.Ready())
	s.BeginStroke(state.Pt(1, 1), tool(state.ModePen, red))
	s.ContinueStroke(state.Pt(5, 5), tool(state.ModePen, red))
	s.EndStroke()
	s.Clear()
	_, ok := s.ImportImage("a.png", encodePNG(t, 2, 2, color.Black))
	assert.False(t, ok)
	assert.Equal(t, board.Idle{}, s.Phase())
	assert.Nil(t, s.Image())

	_, err := s.ExportPNG()
	assert.ErrorIs(t, err, board.ErrNotReady)

	s.Resize(board.Size{Width: 10, Height: 10})
	assert.True(t, s.Ready())
}

func TestResizeClearsContent(t *testing.T) {
	s := mounted(t, 100, 100)
	drag(s, tool(state.ModePen, red), state.Pt(10, 50), state.Pt(90, 50))
	require.False(t, allBackground(s.Image()))

	s.Resize(board.Size{Width: 160, Height: 90})

	assert.Equal(t, board.Size{Width: 160, Height: 90}, s.Size())
	assert.True(t, allBackground(s.Image()))
}

func TestResizeAbortsDrag(t *testing.T) {
	s := mounted(t, 100, 100)
	rect := tool(state.ModeRectangle, red)
	s.BeginStroke(state.Pt(10, 10), rect)
	require.Equal(t, board.Stroking{Mode: state.ModeRectangle}, s.Phase())

	s.Resize(board.Size{Width: 120, Height: 120})
	assert.Equal(t, board.Idle{}, s.Phase())

	s.ContinueStroke(state.Pt(50, 50), rect)
	assert.True(t, allBackground(s.Image()))
}

func TestPreviewDoesNotAccumulate(t *testing.T) {
	for _, mode := range []state.Mode{state.ModeLine, state.ModeRectangle, state.ModeCircle} {
		t.Run(string(mode), func(t *testing.T) {
			once := mounted(t, 200, 200)
			many := mounted(t, 200, 200)
			for _, s := range []*board.Surface{once, many} {
				drag(s, tool(state.ModePen, blue), state.Pt(20, 180), state.Pt(180, 20))
			}

			tl := tool(mode, red)
			once.BeginStroke(state.Pt(100, 100), tl)
			once.ContinueStroke(state.Pt(140, 120), tl)

			many.BeginStroke(state.Pt(100, 100), tl)
			for _, p := range []state.Point{{X: 10, Y: 10}, {X: 190, Y: 60}, {X: 60, Y: 170}, {X: 140, Y: 120}} {
				many.ContinueStroke(p, tl)
			}

			assert.Equal(t, once.Image().Pix, many.Image().Pix)
			assert.True(t, isBlue(at(t, many, 40, 160)), "content under the preview survives")
			once.EndStroke()
			many.EndStroke()
			assert.Equal(t, once.Image().Pix, many.Image().Pix)
		})
	}
}

func TestPenAccumulatesAndEraserRestores(t *testing.T) {
	s := mounted(t, 100, 100)
	pts := []state.Point{{X: 10, Y: 50}, {X: 30, Y: 50}, {X: 50, Y: 50}, {X: 70, Y: 50}, {X: 90, Y: 50}}

	s.BeginStroke(pts[0], tool(state.ModePen, red))
	for _, p := range pts[1:] {
		s.ContinueStroke(p, tool(state.ModePen, red))
	}
	for x := 10; x <= 90; x++ {
		assert.True(t, isRed(at(t, s, x, 50)), "pixel (%d,50) not painted", x)
	}
	s.EndStroke()
	assert.True(t, isWhite(at(t, s, 50, 20)))

	drag(s, tool(state.ModeEraser, state.Style{Color: "#ff0000", Width: 12}), pts...)
	for x := 10; x <= 90; x++ {
		assert.True(t, isWhite(at(t, s, x, 50)), "pixel (%d,50) not erased", x)
	}
}

func TestRectangleGeometry(t *testing.T) {
	s := mounted(t, 100, 100)
	rect := tool(state.ModeRectangle, red)

	drag(s, rect, state.Pt(10, 10), state.Pt(50, 40))
	for _, p := range [][2]int{{30, 10}, {30, 40}, {10, 25}, {50, 25}} {
		assert.True(t, isRed(at(t, s, p[0], p[1])), "edge pixel %v", p)
	}
	assert.True(t, isWhite(at(t, s, 30, 25)), "rectangle must be unfilled")
	assert.True(t, isWhite(at(t, s, 70, 25)))
}

func TestRectangleNegativeExtents(t *testing.T) {
	s := mounted(t, 100, 100)
	rect := tool(state.ModeRectangle, red)

	s.BeginStroke(state.Pt(10, 10), rect)
	s.ContinueStroke(state.Pt(50, 40), rect)
	s.ContinueStroke(state.Pt(5, 5), rect)
	s.EndStroke()

	for _, p := range [][2]int{{7, 5}, {7, 10}, {5, 7}, {10, 7}} {
		assert.True(t, isRed(at(t, s, p[0], p[1])), "edge pixel %v", p)
	}
	// the earlier preview to (50,40) is gone
	assert.True(t, isWhite(at(t, s, 30, 40)))
	assert.True(t, isWhite(at(t, s, 50, 25)))
}

func TestCircleGeometry(t *testing.T) {
	s := mounted(t, 200, 200)
	drag(s, tool(state.ModeCircle, red), state.Pt(100, 100), state.Pt(130, 100))

	for _, p := range [][2]int{{130, 100}, {70, 100}, {100, 130}, {100, 70}} {
		assert.True(t, isRed(at(t, s, p[0], p[1])), "rim pixel %v", p)
	}
	for _, p := range [][2]int{{100, 100}, {115, 100}, {140, 100}, {100, 60}} {
		assert.True(t, isWhite(at(t, s, p[0], p[1])), "pixel %v off the rim", p)
	}
}

func TestTextModeHasNoPreview(t *testing.T) {
	s := mounted(t, 50, 50)
	tl := tool(state.ModeText, red)
	s.BeginStroke(state.Pt(5, 5), tl)
	s.ContinueStroke(state.Pt(40, 40), tl)
	assert.Equal(t, board.Stroking{Mode: state.ModeText}, s.Phase())
	s.EndStroke()
	assert.True(t, allBackground(s.Image()))
}

func TestModeChangeMidDragKeepsClassification(t *testing.T) {
	s := mounted(t, 100, 100)
	s.BeginStroke(state.Pt(10, 50), tool(state.ModePen, red))
	s.ContinueStroke(state.Pt(50, 50), tool(state.ModeRectangle, red))
	s.ContinueStroke(state.Pt(90, 50), tool(state.ModeCircle, red))

	assert.Equal(t, board.Stroking{Mode: state.ModePen}, s.Phase())
	assert.True(t, isRed(at(t, s, 30, 50)))
	assert.True(t, isRed(at(t, s, 70, 50)))
	s.EndStroke()
}

func TestBeginWhileStrokingIsIgnored(t *testing.T) {
	s := mounted(t, 100, 100)
	s.BeginStroke(state.Pt(10, 10), tool(state.ModeLine, red))
	s.BeginStroke(state.Pt(90, 90), tool(state.ModePen, red))
	assert.Equal(t, board.Stroking{Mode: state.ModeLine}, s.Phase())

	s.ContinueStroke(state.Pt(90, 10), tool(state.ModeLine, red))
	assert.True(t, isRed(at(t, s, 50, 10)))
	s.EndStroke()
	s.EndStroke()
	assert.Equal(t, board.Idle{}, s.Phase())
}

func TestImportImageScaling(t *testing.T) {
	s := mounted(t, 400, 300)

	file, ok := s.ImportImage("wide.png", encodePNG(t, 800, 400, color.RGBA{R: 255, A: 255}))
	require.True(t, ok)
	assert.Equal(t, "wide.png", file.Name)
	assert.Equal(t, "image/png", file.MIME)
	require.Equal(t, 1, s.Settle())

	for _, p := range [][2]int{{200, 150}, {101, 101}, {298, 198}, {101, 198}} {
		assert.True(t, isRed(at(t, s, p[0], p[1])), "inside pixel %v", p)
	}
	for _, p := range [][2]int{{98, 150}, {302, 150}, {200, 98}, {200, 202}} {
		assert.True(t, isWhite(at(t, s, p[0], p[1])), "outside pixel %v", p)
	}
	assert.Equal(t, 1, s.Files().Len())
}

func TestImportUndecodableIsRecordedNotPainted(t *testing.T) {
	s := mounted(t, 100, 100)

	file, ok := s.ImportImage("notes.txt", []byte("just some notes"))
	require.True(t, ok)
	assert.Equal(t, 0, s.Settle())

	assert.True(t, allBackground(s.Image()))
	require.Len(t, s.Files().All(), 1)
	assert.Equal(t, file.ID, s.Files().All()[0].ID)
}

func TestImportWaitsForIdle(t *testing.T) {
	s := mounted(t, 200, 200)
	rect := tool(state.ModeRectangle, blue)
	s.BeginStroke(state.Pt(0, 0), rect)

	_, ok := s.ImportImage("sq.png", encodePNG(t, 40, 40, color.RGBA{R: 255, A: 255}))
	require.True(t, ok)
	assert.Equal(t, 0, s.Settle(), "paint must wait for the drag to end")
	s.ContinueStroke(state.Pt(10, 10), rect)
	assert.True(t, isWhite(at(t, s, 100, 100)))

	s.EndStroke()
	assert.True(t, isRed(at(t, s, 100, 100)))
}

func TestImportSignalsPending(t *testing.T) {
	s := mounted(t, 100, 100)
	pending := make(chan struct{}, 1)
	s.OnPending = func() { pending <- struct{}{} }

	_, ok := s.ImportImage("dot.png", encodePNG(t, 10, 10, color.RGBA{R: 255, A: 255}))
	require.True(t, ok)

	select {
	case <-pending:
	case <-time.After(2 * time.Second):
		t.Fatal("OnPending was not called")
	}
	assert.Equal(t, 1, s.Drain())
	assert.True(t, isRed(at(t, s, 50, 50)))
}

func TestUnmountAbandonsDecode(t *testing.T) {
	s := board.New(nil)
	s.Mount(board.Size{Width: 100, Height: 100})
	_, ok := s.ImportImage("late.png", encodePNG(t, 10, 10, color.Black))
	require.True(t, ok)

	s.Unmount()
	assert.Equal(t, 0, s.Settle())

	s.Mount(board.Size{Width: 100, Height: 100})
	defer s.Unmount()
	assert.Equal(t, 0, s.Drain())
	assert.True(t, allBackground(s.Image()))
}

func TestClearResetsAttachments(t *testing.T) {
	s := mounted(t, 200, 200)
	_, ok := s.ImportImage("a.png", encodePNG(t, 50, 50, color.RGBA{G: 255, A: 255}))
	require.True(t, ok)
	_, ok = s.ImportImage("b.pdf", []byte("%PDF-1.4"))
	require.True(t, ok)
	s.Settle()
	require.Equal(t, 2, s.Files().Len())

	s.Clear()

	assert.Equal(t, 0, s.Files().Len())
	assert.True(t, allBackground(s.Image()))
}

func TestClearDropsPendingImports(t *testing.T) {
	s := mounted(t, 200, 200)
	_, ok := s.ImportImage("a.png", encodePNG(t, 50, 50, color.RGBA{G: 255, A: 255}))
	require.True(t, ok)

	s.Clear()

	assert.Zero(t, s.Settle())
	assert.Zero(t, s.Files().Len())
	assert.True(t, allBackground(s.Image()))

	// Imports after the clear still paint.
	_, ok = s.ImportImage("b.png", encodePNG(t, 50, 50, color.RGBA{G: 255, A: 255}))
	require.True(t, ok)
	assert.Equal(t, 1, s.Settle())
}

func TestClearAbortsDrag(t *testing.T) {
	s := mounted(t, 200, 200)
	rect := tool(state.ModeRectangle, red)
	s.BeginStroke(state.Pt(20, 20), rect)
	s.ContinueStroke(state.Pt(120, 120), rect)

	s.Clear()
	assert.Equal(t, board.Idle{}, s.Phase())

	s.ContinueStroke(state.Pt(150, 150), rect)
	s.EndStroke()
	assert.True(t, allBackground(s.Image()))
}

func TestExportRoundTrip(t *testing.T) {
	s := mounted(t, 200, 120)
	drag(s, tool(state.ModePen, red), state.Pt(20, 60), state.Pt(180, 60))

	data, err := s.ExportPNG()
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 200, 120), img.Bounds())
	assert.True(t, isRed(color.RGBAModel.Convert(img.At(100, 60)).(color.RGBA)))
	assert.Equal(t, white, color.RGBAModel.Convert(img.At(100, 20)).(color.RGBA))
	assert.Equal(t, white, color.RGBAModel.Convert(img.At(5, 60)).(color.RGBA))
}

func TestPlaceText(t *testing.T) {
	s := mounted(t, 200, 80)
	s.PlaceText(state.Pt(10, 50), "Hello", state.Style{Color: "#000000", Width: 8})

	img := s.Image()
	inked := 0
	for y := 20; y < 60; y++ {
		for x := 10; x < 150; x++ {
			if !isWhite(img.RGBAAt(x, y)) {
				inked++
			}
		}
	}
	assert.Positive(t, inked)

	s.BeginStroke(state.Pt(0, 0), tool(state.ModeLine, red))
	before := s.Image().Pix
	s.PlaceText(state.Pt(10, 20), "ignored", state.Style{Color: "#000000", Width: 8})
	assert.Equal(t, before, s.Image().Pix)
	s.EndStroke()
}

func TestFitImage(t *testing.T) {
	std := board.Size{Width: 400, Height: 300}
	tests := []struct {
		name string
		img  board.Size
		buf  board.Size
		want image.Rectangle
	}{
		{"wide", board.Size{Width: 800, Height: 400}, std, image.Rect(100, 100, 300, 200)},
		{"tall", board.Size{Width: 300, Height: 600}, std, image.Rect(163, 75, 238, 225)},
		{"small stays", board.Size{Width: 40, Height: 20}, std, image.Rect(180, 140, 220, 160)},
		{"square", board.Size{Width: 1000, Height: 1000}, std, image.Rect(125, 75, 275, 225)},
		{"flat buffer", board.Size{Width: 500, Height: 400}, board.Size{Width: 1000, Height: 100}, image.Rect(469, 25, 532, 75)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := board.FitImage(tt.img, tt.buf)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FitImage(%v, %v) mismatch (-want +got):\n%s", tt.img, tt.buf, diff)
			}
			assert.LessOrEqual(t, got.Dx(), tt.buf.Width/2+1)
			assert.LessOrEqual(t, got.Dy(), tt.buf.Height/2)
		})
	}
	assert.True(t, board.FitImage(board.Size{}, std).Empty())
}
