package ui

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/gogpu/gg"
	"github.com/sirupsen/logrus"

	"MeetBoard/internal/state"
)

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Hex      string
	OnTapped func(hex string)
}

func newColorSwatch(hex string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{Hex: hex, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(gg.Hex(s.Hex).Color())
	rect.SetMinSize(fyne.NewSize(28, 28))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Hex)
	}
}

// modeIcons pairs each drawing mode with its toolbar icon.
var modeIcons = []struct {
	mode state.Mode
	icon fyne.Resource
}{
	{state.ModePen, theme.DocumentCreateIcon()},
	{state.ModeEraser, theme.ContentClearIcon()},
	{state.ModeLine, theme.ContentRemoveIcon()},
	{state.ModeRectangle, theme.CheckButtonIcon()},
	{state.ModeCircle, theme.RadioButtonIcon()},
	{state.ModeText, theme.FileTextIcon()},
}

// Actions are the toolbar's non-drawing commands.
type Actions struct {
	Attach   func()
	Download func()
	PDF      func()
	Clear    func()
	Share    func()
}

// NewToolbar builds the mode buttons, palette, width slider and actions.
// The toolbar only writes to tools; the board reads it on pointer-down.
func NewToolbar(tools *state.ToolState, palette []string, act Actions) fyne.CanvasObject {
	log := logrus.WithField("component", "toolbar")

	// --- Mode buttons ---
	modeLabel := widget.NewLabel(string(tools.Current().Mode))
	modes := widget.NewToolbar()
	for _, mi := range modeIcons {
		mode := mi.mode
		modes.Append(widget.NewToolbarAction(mi.icon, func() {
			if err := tools.SetMode(mode); err != nil {
				log.WithError(err).Warn("mode rejected")
			}
		}))
	}

	// --- Color Palette ---
	current := canvas.NewRectangle(gg.Hex(tools.Current().Style.Color).Color())
	current.SetMinSize(fyne.NewSize(20, 20))
	colorBox := container.NewHBox()
	for _, hex := range palette {
		colorBox.Add(newColorSwatch(hex, func(hex string) {
			if err := tools.SetColor(hex); err != nil {
				log.WithError(err).Warn("color rejected")
			}
		}))
	}

	// --- Stroke Width Slider ---
	widthLabel := widget.NewLabel("")
	strokeSlider := widget.NewSlider(state.MinWidth, state.MaxWidth)
	strokeSlider.Step = 1
	strokeSlider.SetValue(float64(tools.Current().Style.Width))
	strokeSlider.OnChanged = func(val float64) {
		if err := tools.SetWidth(int(val)); err != nil {
			log.WithError(err).Warn("width rejected")
		}
	}
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), strokeSlider)

	show := func(t state.Tool) {
		modeLabel.SetText(string(t.Mode))
		current.FillColor = gg.Hex(t.Style.Color).Color()
		current.Refresh()
		widthLabel.SetText(widthText(t.Style.Width))
	}
	show(tools.Current())
	tools.OnChange(func(t state.Tool) { fyne.Do(func() { show(t) }) })

	// --- Actions ---
	actions := widget.NewToolbar(
		widget.NewToolbarAction(theme.MailAttachmentIcon(), act.Attach),
		widget.NewToolbarAction(theme.DownloadIcon(), act.Download),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), act.PDF),
		widget.NewToolbarAction(theme.DeleteIcon(), act.Clear),
	)
	if act.Share != nil {
		actions.Append(widget.NewToolbarSeparator())
		actions.Append(widget.NewToolbarAction(theme.ComputerIcon(), act.Share))
	}

	// --- Assemble everything ---
	return container.NewHBox(
		widget.NewLabel("Tool:"),
		modes,
		modeLabel,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		colorBox,
		current,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderContainer,
		widthLabel,
		layout.NewSpacer(),
		actions,
	)
}

func widthText(w int) string {
	return fmt.Sprintf("%dpx", w)
}
