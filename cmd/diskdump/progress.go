package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/sourcegraph/conc"

	"github.com/diskdump/diskdump/engine"
)

// renderer consumes progress events on its own goroutine so the transfer
// loop never blocks on terminal writes.
type renderer struct {
	events   chan engine.Event
	wg       conc.WaitGroup
	interval time.Duration
	tty      bool
}

func newRenderer(interval time.Duration, tty bool) *renderer {
	r := &renderer{
		events:   make(chan engine.Event, 64),
		interval: interval,
		tty:      tty,
	}
	r.wg.Go(r.loop)
	return r
}

// Observe is an engine progress callback. It never blocks: when the
// renderer falls behind, stale events are dropped.
func (r *renderer) Observe(ev engine.Event) {
	select {
	case r.events <- ev:
	default:
	}
}

// Close stops the renderer after draining buffered events. The transfer's
// final state is rendered exactly once, even when every event fell inside
// the throttle window.
func (r *renderer) Close() {
	close(r.events)
	r.wg.Wait()
}

func (r *renderer) loop() {
	var last time.Time
	var latest engine.Event
	var seen, shown, printed bool

	for ev := range r.events {
		latest, seen, shown = ev, true, false
		if time.Since(last) < r.interval {
			continue
		}
		r.render(ev)
		shown = true
		printed = true
		last = time.Now()
	}

	// The throttle may have swallowed the last event. Render it now unless
	// it already went out.
	if seen && !shown {
		r.render(latest)
		printed = true
	}
	if printed && r.tty {
		fmt.Fprintln(os.Stderr)
	}
}

func (r *renderer) render(ev engine.Event) {
	if !r.tty {
		slog.Info("Progress",
			"op", ev.Op,
			"phase", ev.Phase,
			"block", ev.Block+1,
			"blocks", ev.Blocks,
			"bytes", ev.Bytes,
		)
		return
	}

	pct := 100.0
	if ev.Blocks > 0 {
		pct = float64(ev.Block+1) / float64(ev.Blocks) * 100
	}

	fmt.Fprintf(os.Stderr, "\r\x1b[K%s %s block %d/%d (%s, %s)",
		color.New(color.FgCyan).Sprint(ev.Op),
		ev.Phase,
		ev.Block+1,
		ev.Blocks,
		color.New(color.Faint).Sprintf("%.1f%%", pct),
		humanize.IBytes(uint64(ev.Bytes)),
	)
}
