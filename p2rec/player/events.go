package player

import (
	"encoding/json"
	"time"

	"p2replay/p2rec"
)

// Event is a playback notification. The concrete types below form a closed
// set, so consumers can type-switch exhaustively instead of matching on
// event names.
type Event interface {
	playbackEvent()
}

// Loaded is emitted when a recording has been decoded and installed.
type Loaded struct {
	EntryCount int
	Duration   time.Duration
	Metadata   json.RawMessage
}

// Started is emitted once, on the first Play from the start of the sequence.
type Started struct{}

// Data delivers one entry's payload at its scheduled time. The payload is
// shared with the loaded recording and must not be modified.
type Data struct {
	Type    p2rec.EntryType
	Payload []byte
}

// Progress reports the playback position. It accompanies every Data
// delivery and is embedded in Paused and Seeked.
type Progress struct {
	Current    time.Duration
	Total      time.Duration
	Percentage float64
}

// Paused is emitted when playback is paused.
type Paused struct {
	Progress Progress
}

// Seeked is emitted after a Seek, whatever the transport state.
type Seeked struct {
	Progress Progress
}

// SpeedChanged is emitted after SetSpeed takes effect.
type SpeedChanged struct {
	Multiplier float64
}

// Finished is emitted once when the sequence is exhausted during playback.
// It is always followed by Stopped.
type Finished struct{}

// Stopped is emitted on explicit Stop and immediately after Finished.
type Stopped struct{}

func (Loaded) playbackEvent()       {}
func (Started) playbackEvent()      {}
func (Data) playbackEvent()         {}
func (Progress) playbackEvent()     {}
func (Paused) playbackEvent()       {}
func (Seeked) playbackEvent()       {}
func (SpeedChanged) playbackEvent() {}
func (Finished) playbackEvent()     {}
func (Stopped) playbackEvent()      {}

// Handler consumes playback events. Events are delivered in order, either
// from the goroutine that invoked the transport operation or, for Data and
// its Progress, from the player's timer goroutine. Handlers must not block;
// a slow handler delays subsequent entries.
type Handler interface {
	HandleEvent(Event)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(Event)

// HandleEvent calls f(ev).
func (f HandlerFunc) HandleEvent(ev Event) { f(ev) }
