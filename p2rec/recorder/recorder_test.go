package recorder

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p2replay/p2rec"
)

func newTestRecorder(t *testing.T) (*Recorder, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	w, err := p2rec.NewWriter(&buf, p2rec.Meta{})
	require.NoError(t, err)
	return New(w), &buf
}

func TestRecordAt_OffsetsToDeltas(t *testing.T) {
	r, buf := newTestRecorder(t)

	require.NoError(t, r.RecordAt(100, p2rec.EntryText, []byte("a")))
	require.NoError(t, r.RecordAt(150, p2rec.EntryBinary, []byte("b")))
	require.NoError(t, r.RecordAt(350, p2rec.EntryText, []byte("c")))
	require.NoError(t, r.Close())

	rec, err := p2rec.Decode(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, rec.Entries, 3)
	assert.Equal(t, uint32(100), rec.Entries[0].OffsetMs)
	assert.Equal(t, uint32(150), rec.Entries[1].OffsetMs)
	assert.Equal(t, uint32(350), rec.Entries[2].OffsetMs)
}

func TestRecordAt_ClampsBackwardsOffsets(t *testing.T) {
	r, buf := newTestRecorder(t)

	require.NoError(t, r.RecordAt(200, p2rec.EntryBinary, []byte("a")))
	// Earlier than the previous entry; clamped so deltas stay non-negative.
	require.NoError(t, r.RecordAt(100, p2rec.EntryBinary, []byte("b")))
	require.NoError(t, r.Close())

	rec, err := p2rec.Decode(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, rec.Entries, 2)
	assert.Equal(t, uint32(200), rec.Entries[0].OffsetMs)
	assert.Equal(t, uint32(200), rec.Entries[1].OffsetMs)
}

func TestRecordNow_AnchoredToStart(t *testing.T) {
	r, buf := newTestRecorder(t)

	require.NoError(t, r.RecordNow(p2rec.EntryBinary, []byte("x")))
	require.NoError(t, r.Close())

	rec, err := p2rec.Decode(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, rec.Entries, 1)
	// Recorded immediately after New; stays near the recording start.
	assert.Less(t, rec.Entries[0].OffsetMs, uint32(1000))
}

func TestClosedRecorderIsNoop(t *testing.T) {
	r, buf := newTestRecorder(t)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	before := buf.Len()
	require.NoError(t, r.RecordAt(10, p2rec.EntryBinary, []byte("late")))
	assert.Equal(t, before, buf.Len())
}
