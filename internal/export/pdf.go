// Package export writes the board raster into document formats.
package export

import (
	"bytes"
	"fmt"
	"image/png"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/sirupsen/logrus"
)

// PDF writes a single-page document sized to the image, one point per
// pixel, with the PNG-encoded board as the page content.
func PDF(w io.Writer, pngData []byte) error {
	cfg, err := png.DecodeConfig(bytes.NewReader(pngData))
	if err != nil {
		return fmt.Errorf("read board image: %w", err)
	}
	pw, ph := float64(cfg.Width), float64(cfg.Height)

	p := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: pw, Ht: ph},
	})
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	p.SetTitle("Whiteboard", true)
	p.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	p.RegisterImageOptionsReader("board", opts, bytes.NewReader(pngData))
	p.ImageOptions("board", 0, 0, pw, ph, false, opts, 0, "")
	if err := p.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	if err := p.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"component": "export",
		"width":     cfg.Width,
		"height":    cfg.Height,
	}).Info("pdf exported")
	return nil
}
