package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"p2replay/p2rec/player"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <capture.p2rec> [capture2.p2rec ...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Replays .p2rec recordings in real time, writing payloads to stdout.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	speed := flag.Float64("speed", 1.0, "Playback speed multiplier (must be > 0)")
	seekTo := flag.Float64("seek", 0, "Start position as a fraction of total duration (0..1)")
	hexOut := flag.Bool("hex", false, "Hex-dump payloads instead of writing raw bytes")
	watch := flag.String("watch", "", "Watch a directory and replay each new .p2rec as it appears")
	flag.Parse()

	if *speed <= 0 {
		log.Fatalf("invalid -speed %v, must be > 0", *speed)
	}

	if *watch != "" {
		if err := watchAndPlay(*watch, *speed, *seekTo, *hexOut); err != nil {
			log.Fatalf("watch: %v", err)
		}
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	for _, file := range flag.Args() {
		if err := playFile(file, *speed, *seekTo, *hexOut); err != nil {
			log.Fatalf("play %s: %v", file, err)
		}
	}
}

// playFile replays one recording and blocks until playback stops.
func playFile(path string, speed, seekTo float64, hexOut bool) error {
	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }

	p := player.New(player.HandlerFunc(func(ev player.Event) {
		switch ev := ev.(type) {
		case player.Loaded:
			log.Printf("[p2rec] loaded %s: %d entries, %s", filepath.Base(path), ev.EntryCount, ev.Duration)
			if ev.EntryCount == 0 {
				finish()
			}
		case player.Data:
			if hexOut {
				fmt.Print(hex.Dump(ev.Payload))
			} else {
				os.Stdout.Write(ev.Payload)
			}
		case player.Finished:
			log.Printf("[p2rec] finished %s", filepath.Base(path))
		case player.Stopped:
			finish()
		}
	}))

	if err := p.LoadFile(path); err != nil {
		return err
	}
	if seekTo > 0 {
		p.Seek(seekTo)
	}
	if speed != 1.0 {
		p.SetSpeed(speed)
	}
	p.Play()
	<-done
	return nil
}

// watchAndPlay replays every .p2rec file created under dir, in arrival
// order, until interrupted. Recordings still being written are fine: the
// decoder keeps everything up to the last complete entry.
func watchAndPlay(dir string, speed, seekTo float64, hexOut bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}
	log.Printf("[p2rec] watching %s for new recordings", dir)

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) || !strings.EqualFold(filepath.Ext(ev.Name), ".p2rec") {
				continue
			}
			if err := playFile(ev.Name, speed, seekTo, hexOut); err != nil {
				log.Printf("[p2rec] play %s: %v", ev.Name, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[p2rec] watcher: %v", err)
		}
	}
}
