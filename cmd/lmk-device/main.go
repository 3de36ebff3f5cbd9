// Command lmk-device builds an LMK04828 device tree on an in-memory register
// file and exposes it for inspection.
//
// Usage:
//
//	lmk-device [flags]
//
// Flags:
//
//	-base uint         Bus address of chip register 0 (default 0x0)
//	-addr-size uint    Bus stride between chip registers (default 4)
//	-index uint        Instance index of the chip (default 0)
//	-config string     Configuration snapshot to load and write at startup
//	-save string       Configuration snapshot to write on exit
//	-log string        CBOR capture file for register traffic
//	-log-level string  Log level: debug, info, warn, error (default "info")
//	-interactive       Start the interactive shell (default true)
//
// Examples:
//
//	# Inspect the register map at base 0x20000
//	lmk-device -base 0x20000
//
//	# Replay a saved configuration and capture the writes
//	lmk-device -config lmk.yaml -log session.rlog -interactive=false
package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jesd204b/lmk-go/cmd/lmk-device/interactive"
	"github.com/jesd204b/lmk-go/pkg/bus"
	"github.com/jesd204b/lmk-go/pkg/lmk04828"
	"github.com/jesd204b/lmk-go/pkg/log"
	"github.com/jesd204b/lmk-go/pkg/model"
	"github.com/jesd204b/lmk-go/pkg/persistence"
)

// Config holds the command configuration.
type Config struct {
	BaseAddress uint
	AddrSize    uint
	Index       uint
	ConfigFile  string
	SaveFile    string
	LogFile     string
	LogLevel    string
	Interactive bool
}

var config Config

func init() {
	flag.UintVar(&config.BaseAddress, "base", 0, "Bus address of chip register 0")
	flag.UintVar(&config.AddrSize, "addr-size", 4, "Bus stride between chip registers")
	flag.UintVar(&config.Index, "index", 0, "Instance index of the chip")
	flag.StringVar(&config.ConfigFile, "config", "", "Configuration snapshot to load and write at startup")
	flag.StringVar(&config.SaveFile, "save", "", "Configuration snapshot to write on exit")
	flag.StringVar(&config.LogFile, "log", "", "CBOR capture file for register traffic")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&config.Interactive, "interactive", true, "Start the interactive shell")
}

func main() {
	flag.Parse()

	if err := validateConfig(); err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(config.LogLevel)}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, cancel, logger); err != nil {
		stdlog.Fatalf("lmk-device: %v", err)
	}
}

func run(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger) error {
	capture := log.NewMultiLogger()
	if config.LogLevel == "debug" {
		capture.Add(log.NewSlogAdapter(logger))
	}
	if config.LogFile != "" {
		fl, err := log.NewFileLogger(config.LogFile)
		if err != nil {
			return fmt.Errorf("open capture file: %w", err)
		}
		defer func() {
			if err := fl.Close(); err != nil {
				logger.Warn("closing capture file", "error", err)
			}
			logger.Info("capture closed", "path", config.LogFile, "events", fl.Count())
		}()
		capture.Add(fl)
	}

	mem := bus.NewMemory()
	defer mem.Close()

	root := model.NewRoot("Root", mem, model.WithLogger(capture))
	defer root.Close()

	lmk, err := lmk04828.New(root, 0, uint32(config.BaseAddress), uint32(config.Index), uint32(config.AddrSize))
	if err != nil {
		return err
	}
	logger.Info("device tree ready",
		"session_id", root.SessionID(),
		"device", lmk.Path(),
		"registers", lmk.RegisterCount(),
	)

	if config.ConfigFile != "" {
		if err := loadConfig(ctx, root, config.ConfigFile); err != nil {
			return err
		}
		logger.Info("configuration applied", "path", config.ConfigFile)
	}

	if config.Interactive {
		shell, err := interactive.New(root)
		if err != nil {
			return err
		}
		shell.Run(ctx, cancel)
	} else {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		if config.ConfigFile == "" {
			select {
			case sig := <-sigCh:
				logger.Info("received signal", "signal", sig)
			case <-ctx.Done():
			}
		}
	}

	if config.SaveFile != "" {
		if err := persistence.NewStore(config.SaveFile).Save(persistence.Capture(root)); err != nil {
			return fmt.Errorf("save configuration: %w", err)
		}
		logger.Info("configuration saved", "path", config.SaveFile)
	}
	return nil
}

func loadConfig(ctx context.Context, root *model.Device, path string) error {
	snap, err := persistence.NewStore(path).Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if snap == nil {
		return fmt.Errorf("load configuration: %s does not exist", path)
	}
	if err := persistence.Apply(root, snap); err != nil {
		return fmt.Errorf("apply configuration: %w", err)
	}
	return root.Command(ctx, "WriteAll", "")
}

func validateConfig() error {
	if config.AddrSize == 0 {
		return fmt.Errorf("addr-size must be positive")
	}
	span := uint64(lmk04828.EndAddr) * uint64(config.AddrSize)
	if uint64(config.BaseAddress)+span > 0xFFFFFFFF {
		return fmt.Errorf("register map at base 0x%x with stride %d exceeds the 32-bit bus", config.BaseAddress, config.AddrSize)
	}
	return nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
