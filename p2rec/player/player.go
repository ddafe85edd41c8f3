// Package player replays decoded .p2rec recordings in real time,
// reproducing the original inter-entry timing with configurable speed,
// pause/resume, and seek.
//
// Usage:
//
//	p := player.New(player.HandlerFunc(func(ev player.Event) {
//		if d, ok := ev.(player.Data); ok {
//			os.Stdout.Write(d.Payload)
//		}
//	}))
//	if err := p.LoadFile("capture.p2rec"); err != nil {
//		log.Fatal(err)
//	}
//	p.Play()
//
// Scheduling uses a chain of one-shot timers: each delivery recomputes the
// next deadline from authoritative elapsed time instead of accumulating
// scheduled intervals, so OS timer inaccuracy does not drift across the
// recording. All operations and the timer callback are serialized behind a
// single mutex; at most one timer is armed at any time.
package player

import (
	"sync"
	"time"

	"p2replay/p2rec"
)

// driftTolerance is the scheduling error above which the wall-clock anchor
// is corrected. Smaller errors are left to the next deadline computation.
const driftTolerance = 5 * time.Millisecond

// Player owns a decoded entry sequence and a small transport state machine
// (stopped / playing / paused). The zero value is not usable; construct
// with New.
type Player struct {
	mu sync.Mutex

	handler Handler

	entries  []p2rec.Entry
	metadata []byte
	total    time.Duration

	cursor    int           // index of the next entry to deliver
	startTime time.Time     // wall-clock anchor while running
	pausedAt  time.Duration // frozen recorded-time position while not running
	playing   bool
	paused    bool
	speed     float64

	timer    *time.Timer
	timerSeq uint64 // invalidates callbacks from cancelled timers
}

// New returns a stopped Player with speed 1.0 and no recording loaded.
// handler receives all emitted events; it may be nil to discard them.
func New(handler Handler) *Player {
	return &Player{
		handler: handler,
		speed:   1.0,
	}
}

// Load installs an already-decoded recording, fully replacing any previous
// one. The player is left stopped at the start and Loaded is emitted.
func (p *Player) Load(rec *p2rec.Recording) {
	p.mu.Lock()
	p.cancelTimerLocked()
	p.entries = rec.Entries
	p.metadata = rec.Metadata
	p.total = rec.Duration()
	p.cursor = 0
	p.pausedAt = 0
	p.playing = false
	p.paused = false
	ev := Loaded{
		EntryCount: len(p.entries),
		Duration:   p.total,
		Metadata:   p.metadata,
	}
	p.mu.Unlock()

	p.emit(ev)
}

// LoadBytes decodes data and installs the result. On a format error the
// player is left stopped and empty (no partial state is retained) and no
// event is emitted.
func (p *Player) LoadBytes(data []byte) error {
	rec, err := p2rec.Decode(data)
	if err != nil {
		p.clear()
		return err
	}
	p.Load(rec)
	return nil
}

// LoadFile reads and decodes the .p2rec file at path. Error semantics match
// LoadBytes.
func (p *Player) LoadFile(path string) error {
	rec, err := p2rec.DecodeFile(path)
	if err != nil {
		p.clear()
		return err
	}
	p.Load(rec)
	return nil
}

func (p *Player) clear() {
	p.mu.Lock()
	p.cancelTimerLocked()
	p.entries = nil
	p.metadata = nil
	p.total = 0
	p.cursor = 0
	p.pausedAt = 0
	p.playing = false
	p.paused = false
	p.mu.Unlock()
}

// Play starts or resumes playback. Calling Play while already playing is a
// no-op. Started is emitted when playback begins from the start of the
// sequence.
func (p *Player) Play() {
	p.mu.Lock()
	if len(p.entries) == 0 || (p.playing && !p.paused) {
		p.mu.Unlock()
		return
	}
	wasStopped := !p.playing

	// Anchor so that elapsed time resumes from pausedAt (zero when stopped
	// at the start).
	p.startTime = time.Now().Add(-time.Duration(float64(p.pausedAt) / p.speed))
	p.playing = true
	p.paused = false

	var evs []Event
	if wasStopped && p.cursor == 0 {
		evs = append(evs, Started{})
	}
	p.scheduleLocked()
	p.mu.Unlock()

	p.emit(evs...)
}

// Pause freezes playback at the current position. Calling Pause while not
// actively playing is a no-op.
func (p *Player) Pause() {
	p.mu.Lock()
	if !p.playing || p.paused {
		p.mu.Unlock()
		return
	}
	p.pausedAt = p.elapsedLocked()
	p.paused = true
	p.cancelTimerLocked()
	ev := Paused{Progress: p.progressLocked()}
	p.mu.Unlock()

	p.emit(ev)
}

// Stop cancels playback and rewinds to the start. Stop on an already-reset
// player is a no-op.
func (p *Player) Stop() {
	p.mu.Lock()
	if !p.playing && !p.paused && p.cursor == 0 && p.pausedAt == 0 {
		p.mu.Unlock()
		return
	}
	p.resetLocked()
	p.mu.Unlock()

	p.emit(Stopped{})
}

// resetLocked returns the transport to the Stopped state with the cursor at
// the start.
func (p *Player) resetLocked() {
	p.cancelTimerLocked()
	p.cursor = 0
	p.pausedAt = 0
	p.playing = false
	p.paused = false
}

// Seek relocates playback to fraction (clamped to 0..1) of the total
// duration. The cursor lands on the last entry at or before the target, so
// a seek never jumps past the requested position. The transport state is
// unchanged; if currently playing the next delivery is rescheduled.
func (p *Player) Seek(fraction float64) {
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}

	p.mu.Lock()
	target := time.Duration(fraction * float64(p.total))

	// Last entry whose offset is <= target; -1 when the target precedes the
	// first entry.
	idx := len(p.entries) - 1
	for idx >= 0 && p.entries[idx].Offset() > target {
		idx--
	}

	var pos time.Duration
	if idx >= 0 {
		p.cursor = idx
		pos = p.entries[idx].Offset()
	} else {
		p.cursor = 0
		pos = 0
	}

	if p.playing && !p.paused {
		p.startTime = time.Now().Add(-time.Duration(float64(pos) / p.speed))
		p.scheduleLocked()
	} else {
		p.pausedAt = pos
	}
	ev := Seeked{Progress: p.progressLocked()}
	p.mu.Unlock()

	p.emit(ev)
}

// SetSpeed changes the playback speed multiplier. Non-positive multipliers
// are ignored. While actively playing, the anchor is shifted so the current
// position is preserved under the new speed and the pending delivery is
// rescheduled.
func (p *Player) SetSpeed(multiplier float64) {
	if !(multiplier > 0) {
		return
	}

	p.mu.Lock()
	if p.playing && !p.paused {
		elapsed := p.elapsedLocked()
		p.speed = multiplier
		p.startTime = time.Now().Add(-time.Duration(float64(elapsed) / multiplier))
		p.scheduleLocked()
	} else {
		p.speed = multiplier
	}
	p.mu.Unlock()

	p.emit(SpeedChanged{Multiplier: multiplier})
}

// Progress reports the current playback position. It is side-effect free
// and valid in every state; Percentage is 0 when the recording is empty.
func (p *Player) Progress() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progressLocked()
}

// Playing reports whether the player is actively playing (false while
// paused or stopped).
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing && !p.paused
}

// Speed returns the current playback speed multiplier.
func (p *Player) Speed() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speed
}

// elapsedLocked is the virtual playback position: wall-clock time since the
// anchor scaled by speed while running, or the frozen pausedAt otherwise.
func (p *Player) elapsedLocked() time.Duration {
	if p.playing && !p.paused {
		return time.Duration(float64(time.Since(p.startTime)) * p.speed)
	}
	return p.pausedAt
}

func (p *Player) progressLocked() Progress {
	cur := p.elapsedLocked()
	if cur > p.total {
		cur = p.total
	}
	if cur < 0 {
		cur = 0
	}
	var pct float64
	if p.total > 0 {
		pct = float64(cur) / float64(p.total) * 100
	}
	return Progress{Current: cur, Total: p.total, Percentage: pct}
}

// cancelTimerLocked stops any pending timer and invalidates its callback.
// Timer.Stop cannot stop a callback that has already fired and is waiting on
// the mutex, so the sequence number is the authoritative cancellation.
func (p *Player) cancelTimerLocked() {
	p.timerSeq++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// scheduleLocked arms a one-shot timer for the entry at the cursor. Any
// previously armed timer is cancelled first, preserving the one-in-flight
// invariant.
func (p *Player) scheduleLocked() {
	p.cancelTimerLocked()
	if p.cursor >= len(p.entries) {
		return
	}

	remaining := p.entries[p.cursor].Offset() - p.elapsedLocked()
	delay := time.Duration(float64(remaining) / p.speed)
	if delay < 0 {
		delay = 0
	}

	seq := p.timerSeq
	armedAt := time.Now()
	p.timer = time.AfterFunc(delay, func() {
		p.fire(seq, armedAt, delay)
	})
}

// fire is the timer callback: it delivers the entry at the cursor, corrects
// the anchor for scheduler drift, and arms the next timer (or finishes).
func (p *Player) fire(seq uint64, armedAt time.Time, target time.Duration) {
	p.mu.Lock()
	if seq != p.timerSeq || !p.playing || p.paused || p.cursor >= len(p.entries) {
		p.mu.Unlock()
		return
	}

	// Measure the delay actually observed against the one requested. Beyond
	// the tolerance, shift the anchor so subsequent deadline computations
	// self-heal instead of compounding the error.
	drift := time.Since(armedAt) - target
	if drift > driftTolerance || drift < -driftTolerance {
		p.startTime = p.startTime.Add(-time.Duration(float64(drift) * p.speed))
	}

	entry := p.entries[p.cursor]
	p.cursor++

	evs := []Event{
		Data{Type: entry.Type, Payload: entry.Payload},
		p.progressLocked(),
	}
	if p.cursor >= len(p.entries) {
		p.resetLocked()
		evs = append(evs, Finished{}, Stopped{})
	} else {
		p.scheduleLocked()
	}
	p.mu.Unlock()

	p.emit(evs...)
}

// emit delivers events with the mutex released so handlers may call back
// into the player.
func (p *Player) emit(evs ...Event) {
	if p.handler == nil {
		return
	}
	for _, ev := range evs {
		p.handler.HandleEvent(ev)
	}
}
