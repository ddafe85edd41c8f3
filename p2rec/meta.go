package p2rec

import (
	"time"

	"github.com/google/uuid"
)

// Meta describes the JSON metadata written into the header region of a
// recording. The format places no constraints on metadata shape; these are
// the fields this package's writing side emits. Optional fields are omitted
// when unset.
type Meta struct {
	ID          string `json:"id,omitempty"`       // recording UUID
	Device      string `json:"device,omitempty"`   // source device, e.g. /dev/ttyUSB0
	BaudRate    int    `json:"baudRate,omitempty"`
	Date        int64  `json:"date,omitempty"` // unix ms, doubles as the header start timestamp
	Generator   string `json:"generator,omitempty"`
	Description string `json:"description,omitempty"`
}

// fillDefaults populates the fields a well-formed recording should always
// carry. Called by NewWriter before the metadata is serialized.
func (m *Meta) fillDefaults() {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Date == 0 {
		m.Date = time.Now().UnixMilli()
	}
	if m.Generator == "" {
		m.Generator = "p2replay"
	}
}
