package transport

import (
	"errors"
	"time"

	"github.com/kvwire/kvnet/pkg/log"
)

// event fills the fields shared by every trace event of c.
func (c *Connection) event(dir log.Direction, cat log.Category) log.Event {
	ev := log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    dir,
		Transport:    c.kind,
		Category:     cat,
	}
	if a := c.conn.LocalAddr(); a != nil {
		ev.LocalAddr = a.String()
	}
	if a := c.conn.RemoteAddr(); a != nil {
		ev.RemoteAddr = a.String()
	}
	return ev
}

func (c *Connection) emitFrame(dir log.Direction, data []byte) {
	ev := c.event(dir, log.CategoryData)
	ev.Frame = log.NewFrameEvent(data)
	c.trace.Log(ev)
}

func (c *Connection) emitState(oldState, newState, reason string) {
	ev := c.event(log.DirectionNone, log.CategoryState)
	ev.StateChange = &log.StateChangeEvent{
		OldState: oldState,
		NewState: newState,
		Reason:   reason,
	}
	c.trace.Log(ev)
}

func (c *Connection) emitTimeout(op string, timeout time.Duration) {
	ev := c.event(opDirection(op), log.CategoryTimeout)
	ev.Timeout = &log.TimeoutEvent{Operation: op, Timeout: timeout}
	c.trace.Log(ev)
}

func (c *Connection) emitError(op string, err error) {
	ev := c.event(opDirection(op), log.CategoryError)
	ev.Error = &log.ErrorEventData{Message: err.Error(), Context: op}
	c.trace.Log(ev)
}

// opDirection maps an I/O operation to the direction of its data. Other
// operations have none.
func opDirection(op string) log.Direction {
	switch op {
	case "send":
		return log.DirectionOut
	case "recv":
		return log.DirectionIn
	default:
		return log.DirectionNone
	}
}

// traceConnectFailure records a failed Create. There is no transport, so
// only the target address is known.
func traceConnectFailure(cfg DialConfig, id string, err error) {
	trace := cfg.trace()
	ev := log.Event{
		Timestamp:    time.Now(),
		ConnectionID: id,
		RemoteAddr:   cfg.Address,
	}
	if errors.Is(err, ErrConnectTimeout) {
		ev.Category = log.CategoryTimeout
		ev.Timeout = &log.TimeoutEvent{Operation: "connect", Timeout: cfg.ConnectTimeout}
	} else {
		ev.Category = log.CategoryError
		ev.Error = &log.ErrorEventData{Message: err.Error(), Context: "connect"}
	}
	trace.Log(ev)
}
