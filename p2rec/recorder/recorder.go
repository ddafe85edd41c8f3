// Package recorder provides a simple, thread-safe helper to feed captured
// byte chunks into a .p2rec writer. It is transport-agnostic: you call
// RecordNow/RecordAt for each chunk you receive from your serial port or
// other byte source.
package recorder

import (
	"sync"
	"time"

	"p2replay/p2rec"
)

// Recorder streams entries to an underlying p2rec.Writer and converts
// capture times into the incremental deltas the on-disk format stores.
type Recorder struct {
	w      *p2rec.Writer
	start  time.Time
	last   uint32 // offset of the previous entry, ms
	mu     sync.Mutex
	closed bool
}

// New creates a Recorder writing to the given Writer. The recorder start
// time is set to now; the first entry recorded with RecordNow lands at
// offset ~0.
func New(w *p2rec.Writer) *Recorder {
	return &Recorder{w: w, start: time.Now()}
}

// NewFile creates and owns a .p2rec file at path using the given metadata.
// Use Close() when finished.
func NewFile(path string, meta p2rec.Meta) (*Recorder, error) {
	w, err := p2rec.Create(path, meta)
	if err != nil {
		return nil, err
	}
	return &Recorder{w: w, start: time.Now()}, nil
}

// RecordNow records a chunk with the current time relative to start.
func (r *Recorder) RecordNow(typ p2rec.EntryType, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	offset := uint32(time.Since(r.start).Milliseconds())
	return r.recordLocked(offset, typ, payload)
}

// RecordAt records a chunk at an explicit millisecond offset from the start
// of the recording. Offsets earlier than the previous entry are clamped to
// it so the stored deltas stay non-negative.
func (r *Recorder) RecordAt(offsetMs uint32, typ p2rec.EntryType, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	return r.recordLocked(offsetMs, typ, payload)
}

func (r *Recorder) recordLocked(offsetMs uint32, typ p2rec.EntryType, payload []byte) error {
	if offsetMs < r.last {
		offsetMs = r.last
	}
	delta := offsetMs - r.last
	if err := r.w.WriteEntry(delta, typ, payload); err != nil {
		return err
	}
	r.last = offsetMs
	return nil
}

// Close finalizes the .p2rec file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.w.Close()
}
