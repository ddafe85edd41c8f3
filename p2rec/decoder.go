package p2rec

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Format constants.
const (
	Magic      = "P2RC"
	Version    = 1
	HeaderSize = 64
)

// recordHeaderSize is the fixed prefix of one record:
// u32 deltaMs + u8 type + u32 payload length.
const recordHeaderSize = 9

// Format errors returned by Decode. All of them are fatal to the decode;
// a truncated record stream is not an error (see Decode).
var (
	ErrHeaderTooShort     = errors.New("p2rec: header too short")
	ErrInvalidMagic       = errors.New("p2rec: invalid magic")
	ErrUnsupportedVersion = errors.New("p2rec: unsupported version")
	ErrMetadataTruncated  = errors.New("p2rec: metadata truncated")
	ErrInvalidMetadata    = errors.New("p2rec: metadata is not valid JSON")
)

// EntryType tags the payload encoding of a recorded entry. The tag is
// informational passthrough: it does not alter decoding, and payloads are
// raw bytes either way.
type EntryType uint8

const (
	EntryText   EntryType = 0
	EntryBinary EntryType = 1
)

// Entry is one recorded event. OffsetMs is the cumulative time since the
// start of the recording; on disk each record stores the delta from the
// previous record instead. Entries are immutable once decoded.
type Entry struct {
	OffsetMs uint32
	Type     EntryType
	Payload  []byte
}

// Offset returns the entry's cumulative offset as a time.Duration.
func (e Entry) Offset() time.Duration {
	return time.Duration(e.OffsetMs) * time.Millisecond
}

// Recording is a fully decoded .p2rec file. Entries are ordered by
// OffsetMs (file order equals time order, since per-record deltas are
// non-negative by construction).
type Recording struct {
	// StartedAt is the header's start timestamp. It is epoch-like but
	// otherwise opaque to this package.
	StartedAt uint64

	// Metadata is the raw JSON blob from the header region. It is validated
	// but not interpreted; use json.Unmarshal with whatever shape the
	// producer wrote (see Meta).
	Metadata json.RawMessage

	Entries    []Entry
	DurationMs uint32
}

// Duration returns the cumulative offset of the last entry, or zero for an
// empty recording.
func (r *Recording) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}

// Decode parses a .p2rec byte buffer.
//
// It fails if the buffer is shorter than the fixed header, the magic or
// version do not match, the declared metadata region exceeds the buffer, or
// the metadata is not valid JSON. The record stream after the metadata is
// read tolerantly: a record whose header or payload would run past the end
// of the buffer ends decoding at the last complete record, so a file
// truncated mid-write (an unclean shutdown during recording) is still
// playable up to its last complete entry.
func Decode(data []byte) (*Recording, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: got %d bytes, need %d", ErrHeaderTooShort, len(data), HeaderSize)
	}
	if string(data[0:4]) != Magic {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMagic, data[0:4])
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != Version {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, Version)
	}
	startedAt := binary.LittleEndian.Uint64(data[8:16])
	metaLen32 := binary.LittleEndian.Uint32(data[16:20])

	if uint64(HeaderSize)+uint64(metaLen32) > uint64(len(data)) {
		return nil, fmt.Errorf("%w: declared %d bytes, %d available", ErrMetadataTruncated, metaLen32, len(data)-HeaderSize)
	}
	metaLen := int(metaLen32)
	meta := make(json.RawMessage, metaLen)
	copy(meta, data[HeaderSize:HeaderSize+metaLen])
	if !json.Valid(meta) {
		return nil, ErrInvalidMetadata
	}

	rec := &Recording{
		StartedAt: startedAt,
		Metadata:  meta,
	}

	var cumulative uint32
	off := HeaderSize + metaLen
	for off+recordHeaderSize <= len(data) {
		delta := binary.LittleEndian.Uint32(data[off : off+4])
		typ := EntryType(data[off+4])
		payloadLen32 := binary.LittleEndian.Uint32(data[off+5 : off+9])
		if uint64(off)+recordHeaderSize+uint64(payloadLen32) > uint64(len(data)) {
			// Partial record from an interrupted write; keep what we have.
			break
		}
		payloadLen := int(payloadLen32)
		payload := make([]byte, payloadLen)
		copy(payload, data[off+recordHeaderSize:off+recordHeaderSize+payloadLen])

		cumulative += delta
		rec.Entries = append(rec.Entries, Entry{
			OffsetMs: cumulative,
			Type:     typ,
			Payload:  payload,
		})
		off += recordHeaderSize + payloadLen
	}
	rec.DurationMs = cumulative

	return rec, nil
}

// DecodeFile reads and decodes the .p2rec file at path.
func DecodeFile(path string) (*Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return Decode(data)
}
