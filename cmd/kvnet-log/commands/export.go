package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/kvwire/kvnet/pkg/log"
)

// RunExport writes the events matching opts from path to w as JSON lines
// or CSV.
func RunExport(path, format string, opts Options, w io.Writer) error {
	if format != "jsonl" && format != "csv" {
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	filter, err := opts.Filter()
	if err != nil {
		return err
	}

	reader, err := openTrace(path, filter)
	if err != nil {
		return err
	}
	defer reader.Close()

	if format == "csv" {
		return exportCSV(reader, w)
	}
	return exportJSONL(reader, w)
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	return each(reader, func(event log.Event) error {
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		return nil
	})
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"timestamp", "connection_id", "direction", "transport", "category", "remote_addr", "type", "size", "detail"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	err := each(reader, func(event log.Event) error {
		eventType, size, detail := "unknown", "", ""
		switch {
		case event.Frame != nil:
			eventType = "frame"
			size = strconv.Itoa(event.Frame.Size)
		case event.StateChange != nil:
			eventType = "state"
			detail = event.StateChange.NewState
		case event.Timeout != nil:
			eventType = "timeout"
			detail = event.Timeout.Operation
		case event.Error != nil:
			eventType = "error"
			detail = event.Error.Message
		}

		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.ConnectionID,
			event.Direction.String(),
			event.Transport,
			event.Category.String(),
			event.RemoteAddr,
			eventType,
			size,
			detail,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
