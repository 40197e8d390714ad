package ui

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"github.com/sirupsen/logrus"

	boardnet "MeetBoard/internal/net"
)

// viewer shows frames streamed by a presenter. It has no drawing input.
type viewer struct {
	window fyne.Window
	addr   string
	image  *canvas.Image
	status *statusNotifier
	notify Notifier
	log    *logrus.Entry
}

func newViewer(w fyne.Window, addr string) *viewer {
	v := &viewer{
		window: w,
		addr:   addr,
		image:  canvas.NewImageFromImage(nil),
		status: newStatusNotifier(),
		log:    logrus.WithFields(logrus.Fields{"component": "viewer", "presenter": addr}),
	}
	v.notify = v.status
	v.image.FillMode = canvas.ImageFillContain
	v.status.label.SetText("Connecting to " + addr)
	w.Resize(fyne.NewSize(1024, 768))
	w.SetContent(container.NewBorder(nil, v.status.label, nil, nil,
		container.NewStack(canvasBackground(), v.image)))
	return v
}

func canvasBackground() fyne.CanvasObject {
	return canvas.NewRectangle(color.White)
}

// decodeFrame turns a presenter frame into an image.
func decodeFrame(frame []byte) (image.Image, error) {
	return png.Decode(bytes.NewReader(frame))
}

func (v *viewer) show(frame []byte) {
	img, err := decodeFrame(frame)
	if err != nil {
		v.log.WithError(err).Warn("bad frame")
		return
	}
	fyne.Do(func() {
		v.image.Image = img
		v.image.Refresh()
	})
}

// follow watches the presenter, reconnecting after retry until ctx is done.
func (v *viewer) follow(ctx context.Context, retry time.Duration) {
	url := boardnet.BoardURL(v.addr)
	for {
		connected := false
		err := boardnet.Watch(ctx, url, func(frame []byte) {
			if !connected {
				connected = true
				v.notify.Notify(EventInfo, "Viewing "+v.addr)
			}
			v.show(frame)
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			v.log.WithError(err).Debug("watch ended")
		}
		v.notify.Notify(EventError, "Presenter unavailable, retrying")
		select {
		case <-ctx.Done():
			return
		case <-time.After(retry):
		}
	}
}
