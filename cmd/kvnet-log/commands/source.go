package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/kvwire/kvnet/pkg/log"
)

// Stdin is read when a command is given "-" as its trace path.
var Stdin io.Reader = os.Stdin

func openTrace(path string, filter log.Filter) (*log.Reader, error) {
	if path == "-" {
		return log.NewStreamReader(Stdin, filter), nil
	}
	r, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	return r, nil
}

// each calls fn for every event left in r.
func each(r *log.Reader, fn func(log.Event) error) error {
	for event := range r.Events() {
		if err := fn(event); err != nil {
			return err
		}
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("failed to read event: %w", err)
	}
	return nil
}
