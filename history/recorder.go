package history

import (
	"context"
	"time"

	"github.com/Cubiaa/waste-yolo/logger"
	"github.com/Cubiaa/waste-yolo/waste"
)

// Recorder feeds the in-memory history and, when configured, the SQLite store.
type Recorder struct {
	history *History
	store   *Store
	log     *logger.Logger
	now     func() time.Time
}

// NewRecorder creates a recorder. store may be nil.
func NewRecorder(h *History, store *Store, log *logger.Logger) *Recorder {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Recorder{history: h, store: store, log: log, now: time.Now}
}

// History returns the in-memory history.
func (r *Recorder) History() *History {
	return r.history
}

// Record adds an entry when objects is non-empty and reports whether it did.
// Store failures are logged and do not affect the in-memory history.
func (r *Recorder) Record(ctx context.Context, mode string, objects []waste.Object) (Entry, bool) {
	if len(objects) == 0 {
		return Entry{}, false
	}

	e := NewEntry(mode, r.now(), objects)
	r.history.Add(e)

	if r.store != nil {
		if err := r.store.Save(ctx, e); err != nil {
			r.log.Warn("failed to persist detection history", "id", e.ID, "error", err)
		}
	}

	return e, true
}

// Clear empties the in-memory history; persisted entries are kept.
func (r *Recorder) Clear() {
	r.history.Clear()
}
