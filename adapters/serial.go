// Package adapters provides tiny adapters to feed byte sources into a
// .p2rec recorder.
package adapters

import (
	"errors"
	"fmt"
	"io"
	"log"

	"go.bug.st/serial"

	"p2replay/p2rec"
	"p2replay/p2rec/recorder"
)

// CaptureSerial reads chunks from an open serial port and records each read
// as one binary entry, until the port reports EOF (port closed) or an error.
// The caller keeps ownership of the port.
func CaptureSerial(port serial.Port, rec *recorder.Recorder) error {
	buf := make([]byte, 4096)
	chunkCount := 0
	for {
		n, err := port.Read(buf)
		if n > 0 {
			// Clone since the read buffer is reused
			data := make([]byte, n)
			copy(data, buf[:n])
			if werr := rec.RecordNow(p2rec.EntryBinary, data); werr != nil {
				return werr
			}
			chunkCount++
			if chunkCount%100 == 0 {
				log.Printf("[p2rec] recorded %d chunks (latest: %d bytes)", chunkCount, n)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("serial read: %w", err)
		}
	}
}

// OpenAndCapture opens device at the given baud rate and records everything
// it emits until the port is closed or fails. It blocks for the lifetime of
// the capture.
func OpenAndCapture(device string, baudRate int, rec *recorder.Recorder) error {
	mode := &serial.Mode{BaudRate: baudRate}
	port, err := serial.Open(device, mode)
	if err != nil {
		return fmt.Errorf("open %s: %w", device, err)
	}
	defer port.Close()
	return CaptureSerial(port, rec)
}
