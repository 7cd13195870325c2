package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func newJSONAdapter(buf *bytes.Buffer) *SlogAdapter {
	handler := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogAdapter(slog.New(handler))
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	if buf.Len() == 0 {
		t.Fatal("no output produced")
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	return entry
}

func TestSlogAdapterLogsFrameEvent(t *testing.T) {
	var buf bytes.Buffer
	adapter := newJSONAdapter(&buf)

	adapter.Log(Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-123",
		Direction:    DirectionIn,
		Transport:    "tcp",
		Category:     CategoryData,
		RemoteAddr:   "127.0.0.1:6379",
		Frame:        &FrameEvent{Size: 256, Data: []byte{0x01, 0x02}},
	})

	entry := decodeEntry(t, &buf)
	if entry["conn_id"] != "conn-123" {
		t.Errorf("conn_id: got %v", entry["conn_id"])
	}
	if entry["direction"] != "IN" {
		t.Errorf("direction: got %v", entry["direction"])
	}
	if entry["transport"] != "tcp" {
		t.Errorf("transport: got %v", entry["transport"])
	}
	if entry["frame_size"] != float64(256) {
		t.Errorf("frame_size: got %v", entry["frame_size"])
	}
	if entry["level"] != "DEBUG" {
		t.Errorf("level: got %v", entry["level"])
	}
}

func TestSlogAdapterLogsStateChange(t *testing.T) {
	var buf bytes.Buffer
	adapter := newJSONAdapter(&buf)

	adapter.Log(Event{
		ConnectionID: "conn-1",
		Category:     CategoryState,
		StateChange:  &StateChangeEvent{OldState: "OPEN", NewState: "BROKEN", Reason: "send timeout"},
	})

	entry := decodeEntry(t, &buf)
	if entry["new_state"] != "BROKEN" || entry["old_state"] != "OPEN" {
		t.Errorf("state: got %v -> %v", entry["old_state"], entry["new_state"])
	}
	if entry["reason"] != "send timeout" {
		t.Errorf("reason: got %v", entry["reason"])
	}
}

func TestSlogAdapterLogsTimeoutAndError(t *testing.T) {
	var buf bytes.Buffer
	adapter := newJSONAdapter(&buf)

	adapter.Log(Event{Category: CategoryTimeout, Timeout: &TimeoutEvent{Operation: "recv", Timeout: time.Second}})
	entry := decodeEntry(t, &buf)
	if entry["operation"] != "recv" {
		t.Errorf("operation: got %v", entry["operation"])
	}

	buf.Reset()
	adapter.Log(Event{Category: CategoryError, Error: &ErrorEventData{Message: "reset by peer", Context: "send"}})
	entry = decodeEntry(t, &buf)
	if entry["error_msg"] != "reset by peer" || entry["error_context"] != "send" {
		t.Errorf("error: got %v / %v", entry["error_msg"], entry["error_context"])
	}
}

func TestSlogAdapterLevel(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	adapter := NewSlogAdapter(slog.New(handler))

	adapter.Log(Event{ConnectionID: "hidden"})
	if buf.Len() != 0 {
		t.Error("debug event should be filtered at info level")
	}

	NewSlogAdapterLevel(slog.New(handler), slog.LevelInfo).Log(Event{ConnectionID: "shown"})
	if buf.Len() == 0 {
		t.Error("info event should be written")
	}
}
