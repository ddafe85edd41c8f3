package p2rec

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
)

// ValidateFile performs comprehensive validation of a .p2rec file.
// It checks the header, metadata, and record stream, and logs warnings for
// conditions that are legal but usually indicate a problem (no entries,
// zero duration, trailing partial record).
func ValidateFile(path string) error {
	// Check file exists and has size
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("recording file not found: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("recording file is empty (0 bytes)")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read recording: %w", err)
	}

	rec, err := Decode(data)
	if err != nil {
		return err
	}

	if len(rec.Entries) == 0 {
		log.Printf("[p2rec] WARNING: recording has no entries")
	}
	if rec.DurationMs == 0 && len(rec.Entries) > 0 {
		log.Printf("[p2rec] WARNING: recording duration is 0 ms (all entries at start)")
	}

	// Account for every byte after the metadata; a shortfall means the file
	// ends in a partial record that Decode dropped.
	consumed := HeaderSize + len(rec.Metadata)
	for _, e := range rec.Entries {
		consumed += recordHeaderSize + len(e.Payload)
	}
	if consumed < len(data) {
		log.Printf("[p2rec] WARNING: %d trailing bytes form a partial record (truncated write?)", len(data)-consumed)
	}

	// Surface the well-known metadata fields when present.
	var meta Meta
	if err := json.Unmarshal(rec.Metadata, &meta); err == nil && meta.ID != "" {
		log.Printf("[p2rec] Validated %s: id %s device %q, %d entries, %d ms, %d bytes",
			path, meta.ID, meta.Device, len(rec.Entries), rec.DurationMs, info.Size())
	} else {
		log.Printf("[p2rec] Validated %s: %d entries, %d ms, %d bytes",
			path, len(rec.Entries), rec.DurationMs, info.Size())
	}

	return nil
}

// ValidateFileQuiet is like ValidateFile but suppresses all log output.
// Useful for CLI tools that want to control output formatting.
func ValidateFileQuiet(path string) error {
	// Temporarily suppress log output
	oldFlags := log.Flags()
	oldOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer func() {
		log.SetFlags(oldFlags)
		log.SetOutput(oldOutput)
	}()

	return ValidateFile(path)
}
