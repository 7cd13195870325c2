package log

import (
	"sync"
	"testing"
	"time"
)

// recordingLogger records events for testing.
type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingLogger) Log(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func TestMultiLoggerCallsAll(t *testing.T) {
	r1 := &recordingLogger{}
	r2 := &recordingLogger{}
	r3 := &recordingLogger{}

	multi := NewMultiLogger(r1, r2, r3)
	multi.Log(Event{Timestamp: time.Now(), ConnectionID: "conn-123", Category: CategoryData})

	for i, r := range []*recordingLogger{r1, r2, r3} {
		if len(r.events) != 1 {
			t.Errorf("logger %d: got %d events, want 1", i, len(r.events))
			continue
		}
		if r.events[0].ConnectionID != "conn-123" {
			t.Errorf("logger %d: ConnectionID = %q", i, r.events[0].ConnectionID)
		}
	}
}

func TestMultiLoggerEmptyList(t *testing.T) {
	multi := NewMultiLogger()
	multi.Log(Event{ConnectionID: "conn-123"})
}

func TestMultiLoggerSkipsNil(t *testing.T) {
	r := &recordingLogger{}
	multi := NewMultiLogger(nil, r, nil)

	multi.Log(Event{ConnectionID: "conn-456"})

	if len(r.events) != 1 {
		t.Fatalf("got %d events, want 1", len(r.events))
	}
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NoopLogger{}
	l.Log(Event{ConnectionID: "ignored"})
}
