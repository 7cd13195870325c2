package commands

import (
	"io"

	"github.com/kvwire/kvnet/pkg/log"
)

// RunFilter writes the events matching opts to w as a new trace and
// returns how many were written.
func RunFilter(path string, opts Options, w io.Writer) (int, error) {
	filter, err := opts.Filter()
	if err != nil {
		return 0, err
	}

	reader, err := openTrace(path, filter)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	out := log.NewStreamLogger(w)
	count := 0
	err = each(reader, func(event log.Event) error {
		out.Log(event)
		count++
		return nil
	})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return count, err
}
