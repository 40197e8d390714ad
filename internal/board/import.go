package board

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"sync"

	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"MeetBoard/internal/state"
)

// MaxImageFraction bounds an imported image to this share of the buffer's
// width and height.
const MaxImageFraction = 0.5

type paintRequest struct {
	gen  uint64
	file state.Attachment
	img  image.Image
}

// paintQueue carries decoded images from decode goroutines to the event
// goroutine. Requests from a previous mount generation are dropped.
type paintQueue struct {
	mu      sync.Mutex
	gen     uint64
	mounted bool
	pending []paintRequest
}

func (q *paintQueue) open() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.gen++
	q.mounted = true
	q.pending = nil
}

func (q *paintQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.gen++
	q.mounted = false
	q.pending = nil
}

// reset drops pending requests and any still decoding, keeping the queue
// mounted.
func (q *paintQueue) reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.gen++
	q.pending = nil
}

func (q *paintQueue) generation() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.gen
}

func (q *paintQueue) push(r paintRequest) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.mounted || r.gen != q.gen {
		return false
	}
	q.pending = append(q.pending, r)
	return true
}

func (q *paintQueue) take() []paintRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// ImportImage records a dropped or picked file and decodes it in the
// background. A decoded image is queued and painted on the next Drain while
// Idle; a file that does not decode stays attached but is never painted.
func (s *Surface) ImportImage(name string, data []byte) (state.Attachment, bool) {
	if s.dc == nil {
		return state.Attachment{}, false
	}
	file := s.files.Append(name, data)
	gen := s.queue.generation()

	s.decoding.Add(1)
	go func() {
		defer s.decoding.Done()
		img, format, err := image.Decode(bytes.NewReader(file.Data))
		log := s.log.WithFields(logrus.Fields{"id": file.ID, "name": file.Name})
		if err != nil {
			log.WithError(err).Debug("attachment is not a raster image")
			return
		}
		if !s.queue.push(paintRequest{gen: gen, file: file, img: img}) {
			log.Debug("decoded image dropped, surface unmounted")
			return
		}
		log.WithField("format", format).Debug("decoded image queued")
		if s.OnPending != nil {
			s.OnPending()
		}
	}()
	return file, true
}

// Drain paints queued images. It does nothing while a drag session is open
// so that a preview's snapshot never misses an import. It returns the number
// of images painted.
func (s *Surface) Drain() int {
	if s.dc == nil || s.drag != nil {
		return 0
	}
	painted := 0
	for _, r := range s.queue.take() {
		s.paintImage(r.img)
		painted++
		s.log.WithFields(logrus.Fields{"id": r.file.ID, "name": r.file.Name}).Info("image painted")
	}
	return painted
}

// Settle waits for every in-flight decode and then drains.
func (s *Surface) Settle() int {
	s.decoding.Wait()
	return s.Drain()
}

func (s *Surface) paintImage(img image.Image) {
	sb := img.Bounds()
	dst := FitImage(Size{Width: sb.Dx(), Height: sb.Dy()}, s.Size())
	if dst.Empty() {
		return
	}
	view := s.pixels(s.dc.ResizeTarget().Data())
	xdraw.BiLinear.Scale(view, dst, img, sb, xdraw.Over, nil)
}

// FitImage computes where an image of size img is painted on a buffer of
// size buf: aspect ratio preserved, at most MaxImageFraction of the buffer in
// each dimension, centered. The longer image side is constrained first.
func FitImage(img, buf Size) image.Rectangle {
	if !img.valid() || !buf.valid() {
		return image.Rectangle{}
	}
	iw, ih := float64(img.Width), float64(img.Height)
	maxW := float64(buf.Width) * MaxImageFraction
	maxH := float64(buf.Height) * MaxImageFraction
	aspect := iw / ih

	var w, h float64
	if iw > ih {
		w = math.Min(iw, maxW)
		h = w / aspect
	} else {
		h = math.Min(ih, maxH)
		w = h * aspect
	}
	// The other side can still overflow on a very flat or very tall buffer.
	if h > maxH {
		h = maxH
		w = h * aspect
	}
	if w > maxW {
		w = maxW
		h = w / aspect
	}

	x := math.Round((float64(buf.Width) - w) / 2)
	y := math.Round((float64(buf.Height) - h) / 2)
	return image.Rect(int(x), int(y), int(x+math.Round(w)), int(y+math.Round(h)))
}
