// Package telemetry appends structured agent events to a JSONL file.
package telemetry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chainguard-dev/clog"
)

// FileName is the name of the events file inside the emitter directory.
const FileName = "events.jsonl"

// Emitter writes one JSON line per event to Dir/events.jsonl when Enabled.
// A nil *Emitter is valid and emits nothing.
type Emitter struct {
	Dir     string
	Enabled bool

	mu  sync.Mutex
	now func() time.Time
}

// NewEmitter returns an emitter writing under dir.
func NewEmitter(dir string, enabled bool) *Emitter {
	return &Emitter{Dir: dir, Enabled: enabled}
}

// Path returns the events file location.
func (e *Emitter) Path() string {
	if e == nil {
		return ""
	}
	return filepath.Join(e.Dir, FileName)
}

// Emit writes a single event. It augments fields with RFC3339Nano time, the event
// name and the turn id carried by ctx. Failures are logged, never returned.
func (e *Emitter) Emit(ctx context.Context, name string, fields map[string]any) {
	if e == nil || !e.Enabled {
		return
	}
	log := clog.FromContext(ctx)

	// Shallow copy so callers' maps aren't mutated.
	m := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		m[k] = v
	}
	now := time.Now
	if e.now != nil {
		now = e.now
	}
	m["time"] = now().UTC().Format(time.RFC3339Nano)
	m["event"] = name
	if id, ok := TurnIDFromContext(ctx); ok {
		m["turn_id"] = id
	}

	b, err := json.Marshal(m)
	if err != nil {
		log.Warnf("telemetry: marshal %s: %v", name, err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		log.Warnf("telemetry: mkdir %s: %v", e.Dir, err)
		return
	}
	path := e.Path()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Warnf("telemetry: open %s: %v", path, err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		log.Warnf("telemetry: write %s: %v", path, err)
	}
}
