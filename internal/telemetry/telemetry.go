// Package telemetry records scoring runs as a JSONL event stream. Each
// run start, aggregation pass, propagation iteration and completion is
// written as one JSON object per line so a run can be inspected or
// followed while it executes.
package telemetry

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Event kinds identify the type of telemetry event.
const (
	KindRunStart      = "run_start"
	KindAggregateDone = "aggregate_done"
	KindIteration     = "iteration"
	KindRunDone       = "run_done"
	KindRerun         = "rerun"
)

// Event is a single telemetry record.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	RunID     string    `json:"run,omitempty"`
	Method    string    `json:"method,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Emitter writes telemetry events to a JSONL file. It is safe for concurrent
// use by multiple goroutines. A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex
	now  func() time.Time
}

// NewEmitter opens path for appending, creating it if needed.
func NewEmitter(path string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &Emitter{
		file: f,
		enc:  json.NewEncoder(f),
		now:  time.Now,
	}, nil
}

// Emit writes a single event. A zero Timestamp is filled with the current
// time. Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if evt.Timestamp.IsZero() {
		evt.Timestamp = e.now().UTC()
	}
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Close closes the underlying file. Calling Close on a nil Emitter is a
// no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}

// NewRunID returns a short random identifier for grouping one run's
// events.
func NewRunID() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%08x", time.Now().UnixNano()&0xffffffff)
	}
	return hex.EncodeToString(b[:])
}

// ReadEvents decodes every event in r. Blank lines are skipped; a
// malformed line is an error naming its line number.
func ReadEvents(r io.Reader) ([]Event, error) {
	var out []Event
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var evt Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			return out, fmt.Errorf("telemetry: line %d: %w", line, err)
		}
		out = append(out, evt)
	}
	if err := scanner.Err(); err != nil {
		return out, fmt.Errorf("telemetry: read: %w", err)
	}
	return out, nil
}

// FilterRun returns the events belonging to runID. An empty runID keeps
// every event.
func FilterRun(events []Event, runID string) []Event {
	if runID == "" {
		return events
	}
	var out []Event
	for _, evt := range events {
		if evt.RunID == runID {
			out = append(out, evt)
		}
	}
	return out
}

// LastRunID returns the run id of the most recent run_start event, or ""
// if there is none.
func LastRunID(events []Event) string {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind == KindRunStart {
			return events[i].RunID
		}
	}
	return ""
}
