package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"p2replay/p2rec"
)

type entrySpec struct {
	delta   uint32
	typ     p2rec.EntryType
	payload []byte
}

type entryFlags []entrySpec

func (e *entryFlags) String() string { return fmt.Sprintf("%d entries", len(*e)) }

// Format: delta:type:hexpayload  e.g., 100:0:48656C6C6F
func (e *entryFlags) Set(v string) error {
	parts := strings.Split(v, ":")
	if len(parts) != 3 {
		return fmt.Errorf("invalid --entry, want delta:type:hexpayload")
	}
	delta64, err := parseUint(parts[0])
	if err != nil {
		return fmt.Errorf("delta: %w", err)
	}
	typ64, err := parseUint(parts[1])
	if err != nil {
		return fmt.Errorf("type: %w", err)
	}
	if typ64 > 255 {
		return fmt.Errorf("type: value %d out of range", typ64)
	}
	payload, err := hex.DecodeString(parts[2])
	if err != nil {
		return fmt.Errorf("hexpayload: %w", err)
	}
	*e = append(*e, entrySpec{delta: uint32(delta64), typ: p2rec.EntryType(typ64), payload: payload})
	return nil
}

func parseUint(s string) (uint64, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

func main() {
	var out string
	var device string
	var baud int
	var generator string
	var entries entryFlags

	flag.StringVar(&out, "out", "example.p2rec", "Output .p2rec path")
	flag.StringVar(&device, "device", "", "Device name to record in metadata")
	flag.IntVar(&baud, "baud", 0, "Baud rate to record in metadata")
	flag.StringVar(&generator, "generator", "p2replay", "Generator string in metadata")
	flag.Var(&entries, "entry", "Entry spec delta:type:hexpayload (repeatable)")
	flag.Parse()

	w, err := p2rec.Create(out, p2rec.Meta{Device: device, BaudRate: baud, Generator: generator})
	if err != nil {
		log.Fatalf("create writer: %v", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			log.Fatalf("close: %v", err)
		}
	}()

	// If no entries provided, still produce a valid empty recording
	for _, sp := range entries {
		if err := w.WriteEntry(sp.delta, sp.typ, sp.payload); err != nil {
			log.Fatalf("write entry: %v", err)
		}
	}

	fmt.Printf("wrote %s (%d entries, %d ms)\n", out, len(entries), w.Duration())
}
