// Command lmk-log views and summarizes register capture files.
//
// Capture files are written by lmk-device with the -log flag.
//
// Usage:
//
//	lmk-log <command> [flags] <file.rlog>
//
// Commands:
//
//	view     Print events in human-readable format
//	export   Export events as JSON lines
//	stats    Show statistics about the capture
//
// Examples:
//
//	# View only writes to the LMK04828
//	lmk-log view -device Root/Lmk04828 -direction write session.rlog
//
//	# Follow a single register
//	lmk-log view -register LmkReg0139 session.rlog
//
//	# Show failed accesses only
//	lmk-log view -errors session.rlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jesd204b/lmk-go/cmd/lmk-log/commands"
	"github.com/jesd204b/lmk-go/pkg/log"
)

const usage = `lmk-log - Register Capture Viewer

Usage:
  lmk-log <command> [flags] <file.rlog>

Commands:
  view     Print events in human-readable format
  export   Export events as JSON lines
  stats    Show statistics about the capture

Use "lmk-log <command> -help" for more information about a command.
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

// filterFlags registers the event filter flags shared by view and export.
type filterFlags struct {
	device    *string
	register  *string
	direction *string
	category  *string
	session   *string
	errors    *bool
}

func addFilterFlags(fs *flag.FlagSet) *filterFlags {
	return &filterFlags{
		device:    fs.String("device", "", "Filter by device path prefix (e.g. Root/Lmk04828)"),
		register:  fs.String("register", "", "Filter by register name (e.g. LmkReg0139)"),
		direction: fs.String("direction", "", "Filter by direction (read, write)"),
		category:  fs.String("category", "", "Filter by category (access, command)"),
		session:   fs.String("session", "", "Filter by session ID"),
		errors:    fs.Bool("errors", false, "Show only events that carry an error"),
	}
}

func (f *filterFlags) build() (log.Filter, error) {
	filter := log.Filter{
		Device:     *f.device,
		Register:   *f.register,
		SessionID:  *f.session,
		ErrorsOnly: *f.errors,
	}
	if *f.direction != "" {
		d, err := commands.ParseDirectionFlag(*f.direction)
		if err != nil {
			return filter, err
		}
		filter.Direction = &d
	}
	if *f.category != "" {
		c, err := commands.ParseCategoryFlag(*f.category)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}
	return filter, nil
}

func parseArgs(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func setUsage(fs *flag.FlagSet, title string) {
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "lmk-log %s - %s\n\nUsage:\n  lmk-log %s [flags] <file.rlog>\n\nFlags:\n", fs.Name(), title, fs.Name())
		fs.PrintDefaults()
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	setUsage(fs, "Print events in human-readable format")
	ff := addFilterFlags(fs)
	path := parseArgs(fs, args)

	filter, err := ff.build()
	if err != nil {
		fail(err)
	}
	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	setUsage(fs, "Export events as JSON lines")
	ff := addFilterFlags(fs)
	output := fs.String("o", "", "Output file (default: stdout)")
	path := parseArgs(fs, args)

	filter, err := ff.build()
	if err != nil {
		fail(err)
	}
	if err := commands.RunExport(path, filter, *output); err != nil {
		fail(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	setUsage(fs, "Show statistics about the capture")
	top := fs.Int("top", 10, "Number of busiest registers to list (0 = all)")
	path := parseArgs(fs, args)

	if err := commands.RunStats(path, *top, os.Stdout); err != nil {
		fail(err)
	}
}
