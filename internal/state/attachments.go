package state

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Attachment describes a file dropped or picked onto the board. Whether it
// was painted is decided later by the decoder; recording it does not depend
// on that.
type Attachment struct {
	ID         string
	Name       string
	MIME       string
	Data       []byte
	AttachedAt time.Time
}

func (a Attachment) Size() int { return len(a.Data) }

// AttachedFiles is the ordered, append-only list of files imported since the
// last clear.
type AttachedFiles struct {
	mu    sync.RWMutex
	files []Attachment
	log   *logrus.Entry
}

func NewAttachedFiles() *AttachedFiles {
	return &AttachedFiles{log: logrus.WithField("component", "attachments")}
}

// Append records a file and returns its descriptor.
func (af *AttachedFiles) Append(name string, data []byte) Attachment {
	a := Attachment{
		ID:         uuid.NewString(),
		Name:       name,
		MIME:       http.DetectContentType(data),
		Data:       data,
		AttachedAt: time.Now(),
	}

	af.mu.Lock()
	af.files = append(af.files, a)
	n := len(af.files)
	af.mu.Unlock()

	af.log.WithFields(logrus.Fields{
		"id":    a.ID,
		"name":  a.Name,
		"mime":  a.MIME,
		"bytes": a.Size(),
		"count": n,
	}).Info("file attached")
	return a
}

// All returns a copy of the list in attach order.
func (af *AttachedFiles) All() []Attachment {
	af.mu.RLock()
	defer af.mu.RUnlock()
	out := make([]Attachment, len(af.files))
	copy(out, af.files)
	return out
}

func (af *AttachedFiles) Len() int {
	af.mu.RLock()
	defer af.mu.RUnlock()
	return len(af.files)
}

func (af *AttachedFiles) Clear() {
	af.mu.Lock()
	n := len(af.files)
	af.files = nil
	af.mu.Unlock()
	if n > 0 {
		af.log.WithField("dropped", n).Info("attachments cleared")
	}
}
