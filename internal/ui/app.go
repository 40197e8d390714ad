package ui

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"MeetBoard/internal/config"
	boardnet "MeetBoard/internal/net"
	"MeetBoard/internal/state"
)

// host is the presenter-side window: board, toolbar, status bar and the
// optional share server.
type host struct {
	cfg    config.Config
	window fyne.Window
	board  *BoardWidget
	status *statusNotifier
	notify Notifier
	badge  *widget.Label

	presenter *boardnet.Presenter
	stopShare context.CancelFunc

	log *logrus.Entry
}

// RunApp opens the whiteboard window and blocks until it is closed.
func RunApp(cfg config.Config) error {
	tools, err := state.NewToolState(cfg.InitialTool())
	if err != nil {
		return fmt.Errorf("initial tool: %w", err)
	}

	myApp := app.New()
	h := &host{
		cfg:    cfg,
		window: myApp.NewWindow("MeetBoard"),
		status: newStatusNotifier(),
		badge:  widget.NewLabel(""),
		log:    logrus.WithField("component", "app"),
	}
	h.notify = h.status
	h.window.Resize(fyne.NewSize(cfg.WindowWidth, cfg.WindowHeight))

	h.board = NewBoardWidget(tools, h.notify)
	h.board.OnFilesChanged = h.showFiles
	h.board.OnTextRequest = h.askText
	h.board.OnCommit = h.publish

	acts := Actions{
		Attach:   h.pickFile,
		Download: func() { h.save(cfg.ExportName, h.board.Download) },
		PDF:      func() { h.save(cfg.PDFName, h.board.ExportPDF) },
		Clear:    h.board.Clear,
		Share:    h.toggleShare,
	}
	toolbar := NewToolbar(tools, cfg.Palette, acts)
	statusBar := container.NewHBox(h.status.label, widget.NewSeparator(), h.badge)

	h.window.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) { h.dropped(uris) })
	h.window.SetContent(container.NewBorder(toolbar, statusBar, nil, nil, h.board))
	h.window.SetOnClosed(h.stopSharing)

	if cfg.ShareOnRun {
		h.startSharing()
	}
	h.window.ShowAndRun()
	return nil
}

func (h *host) showFiles(n int) {
	if n == 0 {
		h.badge.SetText("")
		return
	}
	h.badge.SetText(fmt.Sprintf("%d file(s) attached", n))
}

func readURI(uri fyne.URI) (File, error) {
	rc, err := storage.Reader(uri)
	if err != nil {
		return File{}, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return File{}, err
	}
	return File{Name: uri.Name(), Data: data}, nil
}

func (h *host) dropped(uris []fyne.URI) {
	var files []File
	for _, uri := range uris {
		f, err := readURI(uri)
		if err != nil {
			h.log.WithError(err).WithField("uri", uri.String()).Warn("could not read dropped file")
			continue
		}
		files = append(files, f)
	}
	h.board.Attach(files)
}

func (h *host) pickFile() {
	dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			h.notify.Notify(EventError, err.Error())
			return
		}
		if rc == nil {
			return
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			h.notify.Notify(EventError, fmt.Sprintf("Could not read %s", rc.URI().Name()))
			return
		}
		h.board.AttachPicked(File{Name: rc.URI().Name(), Data: data})
	}, h.window).Show()
}

func (h *host) save(name string, write func(io.Writer) error) {
	d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil {
			h.notify.Notify(EventError, err.Error())
			return
		}
		if wc == nil {
			return
		}
		defer wc.Close()
		if err := write(wc); err != nil {
			h.notify.Notify(EventError, "Export failed")
			h.log.WithError(err).Error("export failed")
		}
	}, h.window)
	d.SetFileName(name)
	d.Show()
}

func (h *host) askText(p state.Point) {
	entry := widget.NewMultiLineEntry()
	entry.SetPlaceHolder("Text")
	items := []*widget.FormItem{widget.NewFormItem("Text", entry)}
	dialog.ShowForm("Add text", "Place", "Cancel", items, func(ok bool) {
		if ok {
			h.board.PlaceText(p, strings.TrimRight(entry.Text, "\n"))
		}
	}, h.window)
}

func (h *host) publish() {
	if h.presenter == nil {
		return
	}
	frame, err := h.board.Frame()
	if err != nil {
		return
	}
	h.presenter.Publish(frame)
}

func (h *host) toggleShare() {
	if h.stopShare != nil {
		h.stopSharing()
		h.notify.Notify(EventInfo, "Sharing stopped")
		return
	}
	h.startSharing()
}

func (h *host) startSharing() {
	ctx, cancel := context.WithCancel(context.Background())
	h.stopShare = cancel
	presenter := boardnet.NewPresenter()
	h.presenter = presenter
	if frame, err := h.board.Frame(); err == nil {
		presenter.Publish(frame)
	}

	addr := net.JoinHostPort("", strconv.Itoa(h.cfg.SharePort))
	go func() {
		err := presenter.Serve(ctx, addr, func(a net.Addr) {
			port := a.(*net.TCPAddr).Port
			link := boardnet.ShareLink(boardnet.OutgoingIP(), port)
			h.notify.Notify(EventInfo, "Sharing at "+link)
			fyne.Do(func() { h.window.Clipboard().SetContent(link) })

			mdnsServer, err := boardnet.Advertise(port)
			if err != nil {
				h.log.WithError(err).Warn("mDNS advertise failed")
				return
			}
			go func() {
				<-ctx.Done()
				_ = mdnsServer.Shutdown()
			}()
		})
		if err != nil {
			h.notify.Notify(EventError, "Sharing failed: "+err.Error())
			fyne.Do(func() {
				if h.presenter == presenter {
					h.stopSharing()
				}
			})
		}
	}()
}

func (h *host) stopSharing() {
	if h.stopShare == nil {
		return
	}
	h.stopShare()
	h.stopShare = nil
	h.presenter = nil
}

// RunViewer opens a read-only window following the presenter at addr.
func RunViewer(addr string) error {
	myApp := app.New()
	v := newViewer(myApp.NewWindow("MeetBoard - viewing "+addr), addr)
	ctx, cancel := context.WithCancel(context.Background())
	v.window.SetOnClosed(cancel)
	go v.follow(ctx, 2*time.Second)
	v.window.ShowAndRun()
	return nil
}
