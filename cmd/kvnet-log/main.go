// Command kvnet-log views and analyzes kvnet connection trace files.
//
// Trace files are written by pkg/log.FileLogger, for example by
// kvnet-probe with the -trace flag. A path of "-" reads the trace from
// standard input, so commands can be chained through filter -o -.
//
// Usage:
//
//	kvnet-log <command> [flags] <file.ktrace>
//
// Commands:
//
//	view     View trace file in human-readable format
//	export   Export trace file to JSON lines or CSV
//	filter   Filter trace file and write to new file
//	stats    Show statistics about the trace file
//
// Examples:
//
//	# View only received data
//	kvnet-log view -direction in -category data probe.ktrace
//
//	# Export timeouts of one connection as CSV
//	kvnet-log export -format csv -category timeout -conn-id 3f2a probe.ktrace
//
//	# Show statistics
//	kvnet-log stats probe.ktrace
//
//	# Statistics for the unix connections only
//	kvnet-log filter -transport unix -o - probe.ktrace | kvnet-log stats -
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kvwire/kvnet/cmd/kvnet-log/commands"
)

const usage = `kvnet-log - kvnet Connection Trace Analyzer

Usage:
  kvnet-log <command> [flags] <file.ktrace>

Commands:
  view     View trace file in human-readable format
  export   Export trace file to JSON lines or CSV
  filter   Filter trace file and write to new file
  stats    Show statistics about the trace file

Use "kvnet-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// filterFlags registers the shared filter flags on fs.
func filterFlags(fs *flag.FlagSet) *commands.Options {
	var o commands.Options
	fs.StringVar(&o.ConnID, "conn-id", "", "Filter by connection ID prefix")
	fs.StringVar(&o.Transport, "transport", "", "Filter by transport (tcp, unix, ssl)")
	fs.StringVar(&o.Direction, "direction", "", "Filter by direction (in, out)")
	fs.StringVar(&o.Category, "category", "", "Filter by category (data, state, timeout, error)")
	fs.StringVar(&o.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&o.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	return &o
}

// parse parses args and returns the trace file path.
func parse(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func newFlagSet(name, summary, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "kvnet-log %s - %s\n\nUsage:\n  kvnet-log %s\n\nFlags:\n", name, summary, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

func runView(args []string) {
	fs := newFlagSet("view", "View trace file in human-readable format", "view [flags] <file.ktrace>")
	opts := filterFlags(fs)
	path := parse(fs, args)

	if err := commands.RunView(path, *opts, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export trace file to JSON lines or CSV", "export [flags] <file.ktrace>")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	opts := filterFlags(fs)
	path := parse(fs, args)

	w := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fail(fmt.Errorf("failed to create output file: %w", err))
		}
		defer f.Close()
		w = f
	}

	if err := commands.RunExport(path, *format, *opts, w); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Filter trace file and write to new file", "filter -o <out.ktrace|-> [flags] <file.ktrace|->")
	output := fs.String("o", "", "Output file, - for stdout (required)")
	opts := filterFlags(fs)
	path := parse(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	w := os.Stdout
	if *output != "-" {
		f, err := os.Create(*output)
		if err != nil {
			fail(fmt.Errorf("failed to create output file: %w", err))
		}
		defer f.Close()
		w = f
	}

	n, err := commands.RunFilter(path, *opts, w)
	if err != nil {
		fail(err)
	}
	fmt.Fprintf(os.Stderr, "Filtered %d events to %s\n", n, *output)
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about the trace file", "stats <file.ktrace>")
	path := parse(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
