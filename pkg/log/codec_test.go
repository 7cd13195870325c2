package log

import (
	"bytes"
	"testing"
	"time"
)

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456789, time.UTC)
	original := Event{
		Timestamp:    ts,
		ConnectionID: "abc12345-def6-7890-abcd-ef1234567890",
		Direction:    DirectionOut,
		Transport:    "tcp",
		Category:     CategoryData,
		LocalAddr:    "127.0.0.1:50123",
		RemoteAddr:   "127.0.0.1:6379",
		Frame:        NewFrameEvent([]byte("*1\r\n$4\r\nPING\r\n")),
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.ConnectionID != original.ConnectionID {
		t.Errorf("ConnectionID: got %q, want %q", decoded.ConnectionID, original.ConnectionID)
	}
	if decoded.Direction != original.Direction {
		t.Errorf("Direction: got %v, want %v", decoded.Direction, original.Direction)
	}
	if decoded.Transport != "tcp" {
		t.Errorf("Transport: got %q, want %q", decoded.Transport, "tcp")
	}
	if decoded.RemoteAddr != original.RemoteAddr {
		t.Errorf("RemoteAddr: got %q, want %q", decoded.RemoteAddr, original.RemoteAddr)
	}
	if decoded.Frame == nil {
		t.Fatal("Frame is nil")
	}
	if decoded.Frame.Size != 14 || !bytes.Equal(decoded.Frame.Data, original.Frame.Data) {
		t.Errorf("Frame: got %+v, want %+v", decoded.Frame, original.Frame)
	}
}

func TestTimeoutEventKeepsDuration(t *testing.T) {
	original := Event{
		Timestamp: time.Now(),
		Category:  CategoryTimeout,
		Timeout:   &TimeoutEvent{Operation: "recv", Timeout: 1500 * time.Millisecond},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.Timeout == nil {
		t.Fatal("Timeout is nil")
	}
	if decoded.Timeout.Timeout != 1500*time.Millisecond {
		t.Errorf("Timeout: got %v, want 1.5s", decoded.Timeout.Timeout)
	}
	if decoded.Frame != nil || decoded.Error != nil || decoded.StateChange != nil {
		t.Error("unexpected payload set after decode")
	}
}

func TestEncodeEventIsDeterministic(t *testing.T) {
	ev := Event{
		Timestamp:    time.Date(2026, 3, 1, 12, 0, 0, 1, time.UTC),
		ConnectionID: "conn-1",
		Transport:    "unix",
		RemoteAddr:   "/tmp/redis.sock",
		Category:     CategoryError,
		Error:        &ErrorEventData{Message: "broken pipe", Context: "send"},
	}

	a, err := EncodeEvent(ev)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	b, err := EncodeEvent(ev)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("encoding the same event twice produced different bytes")
	}
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xff, 0x00}); err == nil {
		t.Error("expected error decoding garbage")
	}
}
