package log

import (
	"bufio"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends events to a trace stream as CBOR records. Records are
// buffered in memory until Flush or Close. It is safe for concurrent use.
type FileLogger struct {
	mu     sync.Mutex
	buf    *bufio.Writer
	enc    *cbor.Encoder
	closer io.Closer
	closed bool

	dropped atomic.Uint64
}

// NewFileLogger opens path for appending, creating it with mode 0644.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return newFileLogger(f, f), nil
}

// NewStreamLogger writes events to w. Close flushes but leaves w open.
func NewStreamLogger(w io.Writer) *FileLogger {
	return newFileLogger(w, nil)
}

func newFileLogger(w io.Writer, c io.Closer) *FileLogger {
	buf := bufio.NewWriter(w)
	return &FileLogger{buf: buf, enc: newEncoder(buf), closer: c}
}

// Log buffers one event. Events that cannot be written are counted in
// Dropped instead of being reported to the connection.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	if err := l.enc.Encode(event); err != nil {
		l.dropped.Add(1)
	}
}

// Flush writes buffered events to the underlying stream.
func (l *FileLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	return l.buf.Flush()
}

// Dropped returns the number of events lost to encoding or write errors.
func (l *FileLogger) Dropped() uint64 {
	return l.dropped.Load()
}

// Close flushes and closes the trace. Later calls and later Log calls are
// no-ops.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	err := l.buf.Flush()
	if l.closer != nil {
		err = errors.Join(err, l.closer.Close())
	}
	return err
}

var _ Logger = (*FileLogger)(nil)
