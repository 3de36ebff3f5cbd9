// Package commands implements the lmk-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/jesd204b/lmk-go/pkg/log"
)

// ParseDirectionFlag parses a -direction flag value.
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "read", "r":
		return log.DirectionRead, nil
	case "write", "w":
		return log.DirectionWrite, nil
	default:
		return 0, fmt.Errorf("invalid direction %q (expected read or write)", s)
	}
}

// ParseCategoryFlag parses a -category flag value.
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "access":
		return log.CategoryAccess, nil
	case "command":
		return log.CategoryCommand, nil
	default:
		return 0, fmt.Errorf("invalid category %q (expected access or command)", s)
	}
}

// RunView prints every event of the capture at path that matches filter.
func RunView(path string, filter log.Filter, w io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
}

// formatEvent writes one event per line:
//
//	timestamp [session] WRITE Root/Lmk04828 LmkReg0139 @0x000004e4 = 0x1f
//	timestamp [session] CMD   Root WriteAll (1.2ms)
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	session := shortenSessionID(event.SessionID)

	switch {
	case event.Access != nil:
		fmt.Fprintf(w, "%s [%s] %-5s %s %s @0x%08x = 0x%x",
			ts, session, event.Direction, event.Device,
			event.Access.Register, event.Access.Address, event.Access.Value)
	case event.Command != nil:
		fmt.Fprintf(w, "%s [%s] %-5s %s %s", ts, session, "CMD", event.Device, event.Command.Name)
		if event.Command.Arg != "" {
			fmt.Fprintf(w, " %q", event.Command.Arg)
		}
		if event.Command.Duration > 0 {
			fmt.Fprintf(w, " (%s)", event.Command.Duration)
		}
	default:
		fmt.Fprintf(w, "%s [%s] %-5s %s", ts, session, event.Category, event.Device)
	}

	if event.Error != "" {
		fmt.Fprintf(w, " ERROR: %s", event.Error)
	}
	fmt.Fprintln(w)
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
