package board

import (
	"strings"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"

	"MeetBoard/internal/state"
)

// fontCache loads the embedded Go Regular font on first use.
type fontCache struct {
	once   sync.Once
	source *text.FontSource
	err    error
	faces  map[float64]text.Face
}

func (fc *fontCache) face(size float64) (text.Face, error) {
	fc.once.Do(func() {
		fc.source, fc.err = text.NewFontSource(goregular.TTF)
		fc.faces = make(map[float64]text.Face)
	})
	if fc.err != nil {
		return nil, fc.err
	}
	f, ok := fc.faces[size]
	if !ok {
		f = fc.source.Face(size)
		fc.faces[size] = f
	}
	return f, nil
}

// FontSize maps a stroke width to the point size used by the text tool.
func FontSize(width int) float64 {
	return 12 + 2*float64(width)
}

// PlaceText commits s with its baseline starting at p, using the style's
// color and a size derived from its width. Multi-line input is drawn one
// line per row. It is ignored while a drag session is open.
func (s *Surface) PlaceText(p state.Point, str string, style state.Style) {
	if s.dc == nil || s.drag != nil || strings.TrimSpace(str) == "" {
		return
	}
	if err := style.Validate(); err != nil {
		s.log.WithError(err).Warn("text rejected")
		return
	}
	size := FontSize(style.Width)
	face, err := s.fonts.face(size)
	if err != nil {
		s.log.WithError(err).Error("font unavailable")
		return
	}
	s.dc.SetFont(face)
	s.dc.SetColor(gg.Hex(style.Color).Color())
	for i, line := range strings.Split(str, "\n") {
		s.dc.DrawString(line, p.X, p.Y+float64(i)*size*1.2)
	}
	s.log.WithField("chars", len(str)).Debug("text placed")
}
