package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// recordingLogger records events for testing
type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingLogger) Log(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func accessEvent(device, register string, dir Direction, addr, value uint32) Event {
	return Event{
		Timestamp: time.Now(),
		SessionID: "session-1",
		Direction: dir,
		Category:  CategoryAccess,
		Device:    device,
		Access: &AccessEvent{
			Register: register,
			Address:  addr,
			Value:    value,
		},
	}
}

func TestNoopLoggerDoesNotPanic(t *testing.T) {
	var logger Logger = NoopLogger{}
	logger.Log(Event{})
	logger.Log(accessEvent("Root", "LmkReg0000", DirectionWrite, 0, 1))
	logger.Log(Event{Category: CategoryCommand, Command: &CommandEvent{Name: "WriteAll"}})
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{DirectionRead.String(), "READ"},
		{DirectionWrite.String(), "WRITE"},
		{Direction(9).String(), "UNKNOWN"},
		{CategoryAccess.String(), "ACCESS"},
		{CategoryCommand.String(), "COMMAND"},
		{Category(9).String(), "UNKNOWN"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestEncodeDecodeEvent(t *testing.T) {
	event := accessEvent("Root/Lmk04828", "LmkReg0139", DirectionWrite, 0x14e4, 0x3)
	event.Error = "bus closed"

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(event.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, event.Timestamp)
	}
	if decoded.Device != event.Device || decoded.Error != event.Error {
		t.Errorf("got %+v, want %+v", decoded, event)
	}
	if decoded.Access == nil || *decoded.Access != *event.Access {
		t.Errorf("Access: got %+v, want %+v", decoded.Access, event.Access)
	}
	if decoded.Command != nil {
		t.Error("Command should stay nil")
	}
}

func TestEncodeEventTagsTimestamp(t *testing.T) {
	data, err := EncodeEvent(accessEvent("Root/Lmk04828", "LmkReg0000", DirectionRead, 0, 0))
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	// map header, key 1, tag 0 (RFC 3339 string)
	if len(data) < 3 || data[0]&0xe0 != 0xa0 || data[1] != 0x01 || data[2] != 0xc0 {
		t.Errorf("unexpected event prefix % x", data[:min(len(data), 3)])
	}
}

func TestDecodeEventRejectsMalformed(t *testing.T) {
	// {4: 0, 4: 1}
	_, err := DecodeEvent([]byte{0xa2, 0x04, 0x00, 0x04, 0x01})
	var dupErr *cbor.DupMapKeyError
	if !errors.As(err, &dupErr) {
		t.Errorf("expected DupMapKeyError, got %v", err)
	}

	// {5: [[[[[0]]]]]}
	_, err = DecodeEvent([]byte{0xa1, 0x05, 0x81, 0x81, 0x81, 0x81, 0x81, 0x00})
	var depthErr *cbor.MaxNestedLevelError
	if !errors.As(err, &depthErr) {
		t.Errorf("expected MaxNestedLevelError, got %v", err)
	}
}

func TestMultiLogger(t *testing.T) {
	r1 := &recordingLogger{}
	r2 := &recordingLogger{}

	multi := NewMultiLogger(r1, nil, r2)
	if multi.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (nil dropped)", multi.Len())
	}

	multi.Log(accessEvent("Root", "LmkReg0000", DirectionRead, 0, 0))

	for i, r := range []*recordingLogger{r1, r2} {
		if len(r.events) != 1 {
			t.Errorf("logger %d: got %d events, want 1", i, len(r.events))
		}
	}

	// Should not panic with empty logger list
	NewMultiLogger().Log(Event{})
}

func TestSlogAdapterLogsAccess(t *testing.T) {
	var buf bytes.Buffer
	slogger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	NewSlogAdapter(slogger).Log(accessEvent("Root/Lmk04828", "LmkReg0106", DirectionWrite, 0x1418, 1))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	if entry["register"] != "LmkReg0106" {
		t.Errorf("register: got %v", entry["register"])
	}
	if entry["direction"] != "WRITE" {
		t.Errorf("direction: got %v", entry["direction"])
	}
	if entry["address"] != float64(0x1418) {
		t.Errorf("address: got %v", entry["address"])
	}
	if entry["level"] != "DEBUG" {
		t.Errorf("level: got %v, want DEBUG", entry["level"])
	}
}

func TestSlogAdapterErrorsAtWarn(t *testing.T) {
	var buf bytes.Buffer
	slogger := slog.New(slog.NewJSONHandler(&buf, nil))

	event := Event{
		Category: CategoryCommand,
		Device:   "Root",
		Command:  &CommandEvent{Name: "WriteAll", Arg: "force"},
		Error:    "no bus",
	}
	NewSlogAdapter(slogger).Log(event)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	if entry["level"] != "WARN" {
		t.Errorf("level: got %v, want WARN", entry["level"])
	}
	if entry["command"] != "WriteAll" || entry["arg"] != "force" || entry["error"] != "no bus" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func writeCapture(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.rlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if logger.Count() != len(events) {
		t.Errorf("Count = %d, want %d", logger.Count(), len(events))
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}

func TestFileLoggerAppends(t *testing.T) {
	path := writeCapture(t, []Event{accessEvent("Root", "A", DirectionRead, 0, 0)})

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger.Log(accessEvent("Root", "B", DirectionRead, 4, 0))
	if err := logger.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	logger.Close()
	logger.Close()
	logger.Log(accessEvent("Root", "C", DirectionRead, 8, 0)) // ignored after close

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	events, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Access.Register != "A" || events[1].Access.Register != "B" {
		t.Errorf("wrong order: %q, %q", events[0].Access.Register, events[1].Access.Register)
	}
	if logger.Err() != nil {
		t.Errorf("Err = %v, want nil", logger.Err())
	}
}

func TestReaderFilters(t *testing.T) {
	cmd := Event{Category: CategoryCommand, Device: "Root", SessionID: "session-1", Command: &CommandEvent{Name: "ReadAll"}}
	failed := accessEvent("Root/Lmk04828", "LmkReg0002", DirectionWrite, 8, 1)
	failed.Error = "bus closed"

	path := writeCapture(t, []Event{
		accessEvent("Root/Lmk04828", "LmkReg0000", DirectionWrite, 0, 1),
		accessEvent("Root/Lmk04828", "LmkReg0001", DirectionRead, 4, 2),
		accessEvent("Root/Lmk048280", "LmkReg0000", DirectionRead, 0, 0),
		cmd,
		failed,
	})

	write := DirectionWrite
	command := CategoryCommand

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 5},
		{"writes", Filter{Direction: &write}, 2},
		{"commands", Filter{Category: &command}, 1},
		{"device subtree", Filter{Device: "Root/Lmk04828"}, 3},
		{"device root", Filter{Device: "Root"}, 5},
		{"register", Filter{Register: "LmkReg0000"}, 2},
		{"errors", Filter{ErrorsOnly: true}, 1},
		{"other session", Filter{SessionID: "session-2"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader failed: %v", err)
			}
			defer reader.Close()

			events, err := reader.ReadAll()
			if err != nil {
				t.Fatalf("ReadAll failed: %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("got %d events, want %d", len(events), tt.want)
			}
		})
	}
}

func TestReaderTimeWindow(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for i := 0; i < 4; i++ {
		e := accessEvent("Root", "R", DirectionRead, uint32(i), 0)
		e.Timestamp = base.Add(time.Duration(i) * time.Second)
		if err := enc.Encode(e); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
	}

	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)
	reader := NewStreamReader(&buf, Filter{TimeStart: &start, TimeEnd: &end})

	var got []uint32
	for {
		e, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		got = append(got, e.Access.Address)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("got addresses %v, want [1 2]", got)
	}
	if err := reader.Close(); err != nil {
		t.Errorf("Close on stream reader: %v", err)
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "missing.rlog")); err == nil {
		t.Error("expected error for missing file")
	}
}
