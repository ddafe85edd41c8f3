package p2rec

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, Meta{Device: "/dev/ttyACM0", BaudRate: 9600})
	require.NoError(t, err)

	require.NoError(t, w.WriteEntry(100, EntryText, []byte("hello")))
	require.NoError(t, w.WriteEntry(50, EntryBinary, []byte{0xDE, 0xAD}))
	require.NoError(t, w.WriteEntry(200, EntryText, nil))
	require.NoError(t, w.Close())

	assert.Equal(t, uint32(350), w.Duration())
	assert.Equal(t, 3, w.EntryCount())

	rec, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, rec.Entries, 3)
	assert.Equal(t, uint32(100), rec.Entries[0].OffsetMs)
	assert.Equal(t, uint32(150), rec.Entries[1].OffsetMs)
	assert.Equal(t, uint32(350), rec.Entries[2].OffsetMs)
	assert.Equal(t, uint32(350), rec.DurationMs)
	assert.Equal(t, []byte("hello"), rec.Entries[0].Payload)
	assert.Equal(t, EntryBinary, rec.Entries[1].Type)

	var meta Meta
	require.NoError(t, json.Unmarshal(rec.Metadata, &meta))
	assert.Equal(t, "/dev/ttyACM0", meta.Device)
	assert.Equal(t, 9600, meta.BaudRate)
}

func TestWriter_MetaDefaults(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, Meta{})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	meta := w.Meta()
	_, err = uuid.Parse(meta.ID)
	assert.NoError(t, err, "generated ID should be a UUID")
	assert.NotZero(t, meta.Date)
	assert.Equal(t, "p2replay", meta.Generator)

	// The header start timestamp mirrors meta.Date.
	rec, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint64(meta.Date), rec.StartedAt)
}

func TestWriter_WriteAfterClose(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, Meta{})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	err = w.WriteEntry(0, EntryBinary, []byte("late"))
	assert.Error(t, err)
}

func TestCreate_DecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.p2rec")

	w, err := Create(path, Meta{Device: "loop0"})
	require.NoError(t, err)
	require.NoError(t, w.WriteEntry(10, EntryBinary, []byte{1, 2, 3}))
	require.NoError(t, w.Close())

	rec, err := DecodeFile(path)
	require.NoError(t, err)
	require.Len(t, rec.Entries, 1)
	assert.Equal(t, []byte{1, 2, 3}, rec.Entries[0].Payload)
}

func TestValidateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ok.p2rec")
	w, err := Create(path, Meta{Device: "loop0"})
	require.NoError(t, err)
	require.NoError(t, w.WriteEntry(10, EntryBinary, []byte{1}))
	require.NoError(t, w.Close())

	assert.NoError(t, ValidateFileQuiet(path))
	assert.Error(t, ValidateFileQuiet(filepath.Join(t.TempDir(), "missing.p2rec")))
}
