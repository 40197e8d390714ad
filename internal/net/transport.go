package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// BoardPath is the websocket endpoint viewers connect to.
const BoardPath = "/board"

const writeWait = 10 * time.Second

// viewer is one read-only websocket connection. frames holds at most the
// latest undelivered frame.
type viewer struct {
	conn   *websocket.Conn
	addr   string
	frames chan []byte
}

func (v *viewer) offer(frame []byte) {
	select {
	case v.frames <- frame:
		return
	default:
	}
	select {
	case <-v.frames:
	default:
	}
	select {
	case v.frames <- frame:
	default:
	}
}

// Presenter streams PNG frames of the local board to read-only viewers.
// Viewers never send drawing input back; the board stays single-writer.
type Presenter struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	viewers  map[*viewer]struct{}
	last     []byte
	log      *logrus.Entry
}

func NewPresenter() *Presenter {
	return &Presenter{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		viewers: make(map[*viewer]struct{}),
		log:     logrus.WithField("component", "presenter"),
	}
}

// Viewers returns the number of connected viewers.
func (p *Presenter) Viewers() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.viewers)
}

// Publish hands the latest frame to every viewer. Viewers that are still
// sending an older frame skip to this one.
func (p *Presenter) Publish(frame []byte) {
	p.mu.Lock()
	p.last = frame
	p.mu.Unlock()

	p.mu.RLock()
	defer p.mu.RUnlock()
	for v := range p.viewers {
		v.offer(frame)
	}
}

// ServeHTTP upgrades a viewer connection on BoardPath.
func (p *Presenter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != BoardPath {
		http.NotFound(w, r)
		return
	}
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		p.log.WithError(err).Warn("viewer upgrade failed")
		return
	}
	v := &viewer{conn: conn, addr: r.RemoteAddr, frames: make(chan []byte, 1)}

	p.mu.Lock()
	p.viewers[v] = struct{}{}
	if p.last != nil {
		v.frames <- p.last
	}
	n := len(p.viewers)
	p.mu.Unlock()
	p.log.WithFields(logrus.Fields{"viewer": v.addr, "viewers": n}).Info("viewer connected")

	go p.write(v)
	p.read(v)
}

// read discards anything a viewer sends and detects disconnects.
func (p *Presenter) read(v *viewer) {
	defer p.remove(v)
	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			p.log.WithField("viewer", v.addr).WithError(err).Debug("viewer read ended")
			return
		}
	}
}

func (p *Presenter) write(v *viewer) {
	for frame := range v.frames {
		_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := v.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			p.log.WithField("viewer", v.addr).WithError(err).Warn("frame send failed")
			_ = v.conn.Close()
			return
		}
	}
	_ = v.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	_ = v.conn.Close()
}

// closeAll disconnects every viewer. Upgraded connections are hijacked, so
// http.Server.Shutdown does not close them.
func (p *Presenter) closeAll() {
	p.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(p.viewers))
	for v := range p.viewers {
		conns = append(conns, v.conn)
	}
	p.mu.RUnlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "presenter stopped")
	for _, c := range conns {
		_ = c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = c.Close()
	}
	if len(conns) > 0 {
		p.log.WithField("viewers", len(conns)).Info("viewers disconnected on shutdown")
	}
}

func (p *Presenter) remove(v *viewer) {
	p.mu.Lock()
	if _, ok := p.viewers[v]; ok {
		delete(p.viewers, v)
		close(v.frames)
	}
	n := len(p.viewers)
	p.mu.Unlock()
	p.log.WithFields(logrus.Fields{"viewer": v.addr, "viewers": n}).Info("viewer disconnected")
}

// Serve listens on addr until ctx is done. The bound address is reported
// through ready once the listener is up.
func (p *Presenter) Serve(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := &http.Server{Handler: p, ReadHeaderTimeout: 5 * time.Second}
	srv.RegisterOnShutdown(p.closeAll)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	p.log.WithField("addr", ln.Addr().String()).Info("presenter listening")
	if ready != nil {
		ready(ln.Addr())
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Watch connects to a presenter at wsURL and calls onFrame for every frame
// until ctx is done or the presenter goes away.
func Watch(ctx context.Context, wsURL string, onFrame func([]byte)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}
		if kind == websocket.BinaryMessage {
			onFrame(data)
		}
	}
}
