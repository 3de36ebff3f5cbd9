package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jesd204b/lmk-go/pkg/log"
)

// jsonEvent is the JSONL export representation of an event.
type jsonEvent struct {
	Timestamp string `json:"timestamp"`
	SessionID string `json:"session_id"`
	Category  string `json:"category"`
	Direction string `json:"direction,omitempty"`
	Device    string `json:"device"`
	Register  string `json:"register,omitempty"`
	Address   string `json:"address,omitempty"`
	Value     string `json:"value,omitempty"`
	Command   string `json:"command,omitempty"`
	Arg       string `json:"arg,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Error     string `json:"error,omitempty"`
}

func toJSONEvent(e log.Event) jsonEvent {
	je := jsonEvent{
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
		SessionID: e.SessionID,
		Category:  e.Category.String(),
		Device:    e.Device,
		Error:     e.Error,
	}
	if e.Access != nil {
		je.Direction = e.Direction.String()
		je.Register = e.Access.Register
		je.Address = fmt.Sprintf("0x%08x", e.Access.Address)
		je.Value = fmt.Sprintf("0x%x", e.Access.Value)
	}
	if e.Command != nil {
		je.Command = e.Command.Name
		je.Arg = e.Command.Arg
		if e.Command.Duration > 0 {
			je.Duration = e.Command.Duration.String()
		}
	}
	return je
}

// RunExport writes the events of the capture at path matching filter as JSON
// lines to output, or to stdout when output is empty.
func RunExport(path string, filter log.Filter, output string) error {
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return exportJSONL(path, filter, w)
}

func exportJSONL(path string, filter log.Filter, w io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	enc := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := enc.Encode(toJSONEvent(event)); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
	}
}
