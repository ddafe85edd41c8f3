package p2rec

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Writer streams entries into a .p2rec file.
//
// Usage:
//
//	w, _ := p2rec.Create("out.p2rec", p2rec.Meta{Device: "/dev/ttyUSB0", BaudRate: 115200})
//	defer w.Close()
//	_ = w.WriteEntry(0, p2rec.EntryBinary, payload)
//
// The header and metadata are written when the Writer is created; entries
// are appended incrementally and are not retained in memory. Each entry's
// deltaMs is the offset from the previous entry, matching the on-disk record
// layout (see the recorder package for a wrapper that computes deltas from
// wall-clock capture times).
type Writer struct {
	w        io.Writer
	meta     Meta
	duration uint32
	entries  int
	closed   bool
	file     *os.File // optional, when using Create()
}

// NewWriter creates a new .p2rec writer onto the provided io.Writer. The
// 64-byte header and the metadata JSON are written immediately; defaults are
// filled into meta first (id, date, generator). The header start timestamp
// is taken from meta.Date.
func NewWriter(out io.Writer, meta Meta) (*Writer, error) {
	meta.fillDefaults()

	mb, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	hdr := make([]byte, HeaderSize)
	copy(hdr[0:4], Magic)
	binary.LittleEndian.PutUint32(hdr[4:8], Version)
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(meta.Date))
	binary.LittleEndian.PutUint32(hdr[16:20], uint32(len(mb)))
	// Bytes 20-63 are reserved and left zero.

	if _, err := out.Write(hdr); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if _, err := out.Write(mb); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	return &Writer{w: out, meta: meta}, nil
}

// Create opens/creates a file at path and returns a Writer that owns the
// file descriptor. Close() will also close the underlying file.
func Create(path string, meta Meta) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, meta)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.file = f
	return w, nil
}

// WriteEntry appends a single record. deltaMs is the entry's offset from the
// previous entry in milliseconds (zero for the first entry fired at the
// recording start). typ tags the payload as text or binary and payload is
// the raw captured bytes.
func (w *Writer) WriteEntry(deltaMs uint32, typ EntryType, payload []byte) error {
	if w.closed || w.w == nil {
		return fmt.Errorf("p2rec: writer closed")
	}

	var hdr [recordHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], deltaMs)
	hdr[4] = byte(typ)
	binary.LittleEndian.PutUint32(hdr[5:9], uint32(len(payload)))

	if _, err := w.w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := w.w.Write(payload); err != nil {
		return err
	}

	w.duration += deltaMs
	w.entries++
	return nil
}

// Meta returns the metadata written into the header region, with defaults
// filled in (notably the generated recording ID).
func (w *Writer) Meta() Meta {
	return w.meta
}

// Duration returns the cumulative offset of the last written entry in
// milliseconds.
func (w *Writer) Duration() uint32 {
	return w.duration
}

// EntryCount returns the number of entries written so far.
func (w *Writer) EntryCount() int {
	return w.entries
}

// Close finalizes the recording. The record stream needs no trailer, so this
// only closes the underlying file when the Writer owns it.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
