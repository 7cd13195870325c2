package log

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// ErrTruncated is returned for a trace whose last record was cut short,
// typically by a client that exited without closing its FileLogger.
var ErrTruncated = errors.New("trace truncated")

// Filter selects trace events. Zero fields match everything.
type Filter struct {
	// ConnectionID matches connection IDs with this prefix.
	ConnectionID string

	Direction *Direction
	Category  *Category

	// Transport matches the transport kind exactly.
	Transport string

	// TimeStart and TimeEnd bound the half-open window [TimeStart, TimeEnd).
	TimeStart *time.Time
	TimeEnd   *time.Time
}

// Matches reports whether event passes every criterion.
func (f Filter) Matches(event Event) bool {
	switch {
	case !strings.HasPrefix(event.ConnectionID, f.ConnectionID):
		return false
	case f.Transport != "" && event.Transport != f.Transport:
		return false
	case f.Direction != nil && event.Direction != *f.Direction:
		return false
	case f.Category != nil && event.Category != *f.Category:
		return false
	case f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart):
		return false
	case f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd):
		return false
	}
	return true
}

// Reader streams events from a trace.
type Reader struct {
	dec    *cbor.Decoder
	closer io.Closer
	filter Filter
	err    error
}

// NewReader opens the trace file at path.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens the trace file at path and yields only events
// matching filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := NewStreamReader(f, filter)
	r.closer = f
	return r, nil
}

// NewStreamReader reads a trace from r. Close leaves r open.
func NewStreamReader(r io.Reader, filter Filter) *Reader {
	return &Reader{dec: newDecoder(r), filter: filter}
}

// Next returns the next matching event, or io.EOF at the end of the trace.
func (r *Reader) Next() (Event, error) {
	if r.err != nil {
		return Event{}, r.err
	}
	for {
		var event Event
		err := r.dec.Decode(&event)
		switch {
		case err == nil:
			if r.filter.Matches(event) {
				return event, nil
			}
			continue
		case errors.Is(err, io.EOF):
			r.err = io.EOF
		case errors.Is(err, io.ErrUnexpectedEOF):
			r.err = fmt.Errorf("%w after %d bytes", ErrTruncated, r.dec.NumBytesRead())
		default:
			r.err = err
		}
		return Event{}, r.err
	}
}

// Events iterates over the remaining matching events. Iteration stops at
// the end of the trace or at the first error, which Err then reports.
func (r *Reader) Events() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for {
			event, err := r.Next()
			if err != nil || !yield(event) {
				return
			}
		}
	}
}

// Err returns the error that stopped Events, or nil at a clean end.
func (r *Reader) Err() error {
	if errors.Is(r.err, io.EOF) {
		return nil
	}
	return r.err
}

// Close closes the file opened by NewReader or NewFilteredReader.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
