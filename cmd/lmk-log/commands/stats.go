package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jesd204b/lmk-go/pkg/log"
)

// Stats holds aggregate statistics about a capture.
type Stats struct {
	TotalEvents int
	Reads       int
	Writes      int
	Commands    map[string]int
	Registers   map[string]int // accesses per "device/register" path
	Sessions    map[string]int
	Errors      int
	TimeRange   struct {
		Start time.Time
		End   time.Time
	}
}

// Collect computes statistics over the capture at path.
func Collect(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		Commands:  make(map[string]int),
		Registers: make(map[string]int),
		Sessions:  make(map[string]int),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.Sessions[event.SessionID]++
		if event.Error != "" {
			stats.Errors++
		}

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		switch {
		case event.Access != nil:
			stats.Registers[event.Device+"/"+event.Access.Register]++
			if event.Direction == log.DirectionWrite {
				stats.Writes++
			} else {
				stats.Reads++
			}
		case event.Command != nil:
			stats.Commands[event.Command.Name]++
		}
	}
	return stats, nil
}

// RunStats analyzes the capture at path and prints statistics.
func RunStats(path string, top int, w io.Writer) error {
	stats, err := Collect(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Events:   %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	fmt.Fprintf(w, "Reads:    %d\n", stats.Reads)
	fmt.Fprintf(w, "Writes:   %d\n", stats.Writes)
	fmt.Fprintf(w, "Errors:   %d\n", stats.Errors)
	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Duration: %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start))
	}

	if len(stats.Commands) > 0 {
		fmt.Fprintln(w, "\nCommands:")
		for _, name := range sortedKeys(stats.Commands) {
			fmt.Fprintf(w, "  %-16s %d\n", name, stats.Commands[name])
		}
	}

	if len(stats.Registers) > 0 {
		fmt.Fprintln(w, "\nBusiest registers:")
		names := sortedKeys(stats.Registers)
		sort.SliceStable(names, func(i, j int) bool {
			return stats.Registers[names[i]] > stats.Registers[names[j]]
		})
		if top > 0 && len(names) > top {
			names = names[:top]
		}
		for _, name := range names {
			fmt.Fprintf(w, "  %-32s %d\n", name, stats.Registers[name])
		}
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
