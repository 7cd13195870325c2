package log

import (
	"time"
)

// MaxFrameData is the number of payload bytes kept in a FrameEvent.
// Larger payloads are truncated and flagged.
const MaxFrameData = 256

// Event represents a connection event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates data flow. It is DirectionNone for events not
	// tied to a send or a receive.
	Direction Direction `cbor:"3,keyasint,omitempty"`

	// Transport is the transport kind of the connection ("tcp", "unix", "ssl").
	Transport string `cbor:"4,keyasint,omitempty"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// LocalAddr is the local endpoint address.
	LocalAddr string `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer address (host:port or socket path).
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"`
	Timeout     *TimeoutEvent     `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// Direction indicates the direction of data flow.
type Direction uint8

const (
	// DirectionNone marks lifecycle events such as state changes.
	DirectionNone Direction = 0
	// DirectionIn indicates received data.
	DirectionIn Direction = 1
	// DirectionOut indicates sent data.
	DirectionOut Direction = 2
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionNone:
		return "-"
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryData indicates bytes sent or received.
	CategoryData Category = 0
	// CategoryState indicates a connection state change.
	CategoryState Category = 1
	// CategoryTimeout indicates an I/O deadline expired.
	CategoryTimeout Category = 2
	// CategoryError indicates an I/O error.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryData:
		return "DATA"
	case CategoryState:
		return "STATE"
	case CategoryTimeout:
		return "TIMEOUT"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Categories lists all known categories in display order.
func Categories() []Category {
	return []Category{CategoryData, CategoryState, CategoryTimeout, CategoryError}
}

// FrameEvent captures the bytes of one send or receive.
type FrameEvent struct {
	// Size is the full payload size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the payload (truncated to MaxFrameData bytes).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// NewFrameEvent builds a FrameEvent from a payload, copying at most
// MaxFrameData bytes.
func NewFrameEvent(data []byte) *FrameEvent {
	f := &FrameEvent{Size: len(data)}
	n := len(data)
	if n > MaxFrameData {
		n = MaxFrameData
		f.Truncated = true
	}
	if n > 0 {
		f.Data = append([]byte(nil), data[:n]...)
	}
	return f
}

// StateChangeEvent captures connection lifecycle events.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// TimeoutEvent captures an expired I/O deadline.
type TimeoutEvent struct {
	// Operation is "send", "recv" or "connect".
	Operation string `cbor:"1,keyasint"`

	// Timeout is the deadline that elapsed. Stored as nanoseconds.
	Timeout time.Duration `cbor:"2,keyasint"`
}

// ErrorEventData captures I/O errors.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
