package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/kvwire/kvnet/pkg/log"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents       int
	EventsByTransport map[string]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Connections       map[string]*ConnectionStats
	Timeouts          map[string]int
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// ConnectionStats holds statistics for a single connection.
type ConnectionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Transport string
	Peer      string
	BytesIn   int
	BytesOut  int
	Closed    bool
}

// CollectStats reads every event in path ("-" for standard input).
func CollectStats(path string) (*Stats, error) {
	reader, err := openTrace(path, log.Filter{})
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	stats := &Stats{
		EventsByTransport: make(map[string]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Connections:       make(map[string]*ConnectionStats),
		Timeouts:          make(map[string]int),
	}

	err = each(reader, func(event log.Event) error {
		stats.add(event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	if event.Transport != "" {
		s.EventsByTransport[event.Transport]++
	}
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	conn, ok := s.Connections[event.ConnectionID]
	if !ok {
		conn = &ConnectionStats{
			FirstSeen: event.Timestamp,
			LastSeen:  event.Timestamp,
		}
		s.Connections[event.ConnectionID] = conn
	}
	conn.Events++
	if event.Timestamp.After(conn.LastSeen) {
		conn.LastSeen = event.Timestamp
	}
	if conn.Transport == "" {
		conn.Transport = event.Transport
	}
	if conn.Peer == "" {
		conn.Peer = event.RemoteAddr
	}

	switch {
	case event.Frame != nil && event.Direction == log.DirectionIn:
		conn.BytesIn += event.Frame.Size
	case event.Frame != nil:
		conn.BytesOut += event.Frame.Size
	case event.StateChange != nil && event.StateChange.NewState == "CLOSED":
		conn.Closed = true
	case event.Timeout != nil:
		s.Timeouts[event.Timeout.Operation]++
	case event.Error != nil:
		s.Errors++
	}
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== kvnet Connection Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Transport:")
	for _, t := range []string{"tcp", "unix", "ssl"} {
		if count := stats.EventsByTransport[t]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", t+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range log.Categories() {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))
	if len(stats.Connections) > 0 {
		type connInfo struct {
			id    string
			stats *ConnectionStats
		}
		conns := make([]connInfo, 0, len(stats.Connections))
		for id, cs := range stats.Connections {
			conns = append(conns, connInfo{id, cs})
		}
		sort.Slice(conns, func(i, j int) bool {
			return conns[i].stats.FirstSeen.Before(conns[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, c := range conns {
			duration := c.stats.LastSeen.Sub(c.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %s %s, %d events, duration %s\n",
				shortenConnID(c.id), c.stats.Transport, c.stats.Peer, c.stats.Events, duration)
			fmt.Fprintf(w, "           in %d bytes, out %d bytes", c.stats.BytesIn, c.stats.BytesOut)
			if !c.stats.Closed {
				fmt.Fprint(w, ", not closed")
			}
			fmt.Fprintln(w)
		}
	}

	if len(stats.Timeouts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Timeouts:")
		for _, op := range []string{"connect", "send", "recv"} {
			if count := stats.Timeouts[op]; count > 0 {
				fmt.Fprintf(w, "  %-12s %d\n", op+":", count)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
