// Package log captures register traffic of the device tree.
//
// Every hardware read and write made through model.Device, and every command
// dispatched on it, can be reported to a Logger as an Event. This capture is
// separate from operational logging (slog): it is a complete machine-readable
// trace of what was sent to the board.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	root := model.NewRoot("Root", b, model.WithLogger(log.NewSlogAdapter(slog.Default())))
//
//	// For bring-up sessions: write to a capture file
//	fl, _ := log.NewFileLogger("/var/log/lmk/session.rlog")
//
//	// Both
//	logger := log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events with integer keys. The
// lmk-log command prints and filters them.
package log
