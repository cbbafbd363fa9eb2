// Package history keeps the rolling list of detections shown next to the preview.
package history

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Cubiaa/waste-yolo/waste"
)

// DefaultLimit number of entries kept in memory.
const DefaultLimit = 100

// Entry one frame's worth of detections.
type Entry struct {
	ID      string
	Time    time.Time
	Mode    string
	Objects []waste.Object
}

// NewEntry stamps objects with a new ID and the given time.
func NewEntry(mode string, at time.Time, objects []waste.Object) Entry {
	return Entry{
		ID:      uuid.New().String(),
		Time:    at,
		Mode:    mode,
		Objects: objects,
	}
}

// Clock renders the entry time as HH:MM:SS.
func (e Entry) Clock() string {
	return e.Time.Format("15:04:05")
}

// ObjectsText renders "class(category), ..." for the history table.
func (e Entry) ObjectsText() string {
	parts := make([]string, len(e.Objects))
	for i, o := range e.Objects {
		parts[i] = fmt.Sprintf("%s(%s)", o.Class, o.Category)
	}
	return strings.Join(parts, ", ")
}

// ConfidenceText renders "0.xx, ..." for the history table.
func (e Entry) ConfidenceText() string {
	parts := make([]string, len(e.Objects))
	for i, o := range e.Objects {
		parts[i] = fmt.Sprintf("%.2f", o.Confidence)
	}
	return strings.Join(parts, ", ")
}

// History is a bounded, newest-first list of entries.
type History struct {
	mu      sync.RWMutex
	limit   int
	entries []Entry // oldest first; reversed on read
}

// New creates a history holding at most limit entries.
func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit}
}

// Add appends e, evicting the oldest entry when full.
func (h *History) Add(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, e)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append(h.entries[:0:0], h.entries[over:]...)
	}
}

// Entries returns a newest-first copy.
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Entry, len(h.entries))
	for i, e := range h.entries {
		out[len(h.entries)-1-i] = e
	}
	return out
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Clear drops every entry.
func (h *History) Clear() {
	h.mu.Lock()
	h.entries = nil
	h.mu.Unlock()
}
