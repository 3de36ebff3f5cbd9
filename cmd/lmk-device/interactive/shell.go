// Package interactive provides the interactive command-line interface
// for lmk-device.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/jesd204b/lmk-go/pkg/inspect"
	"github.com/jesd204b/lmk-go/pkg/model"
	"github.com/jesd204b/lmk-go/pkg/persistence"
)

// Shell handles interactive mode for lmk-device.
type Shell struct {
	root      *model.Device
	inspector *inspect.Inspector
	formatter *inspect.Formatter
	rl        *readline.Instance
}

// New creates a shell for the tree under root.
func New(root *model.Device) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "lmk> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	s := newShell(root)
	s.rl = rl
	return s, nil
}

func newShell(root *model.Device) *Shell {
	f := inspect.NewFormatter()
	f.MaxVariables = 32
	return &Shell{
		root:      root,
		inspector: inspect.NewInspector(root),
		formatter: f,
	}
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	out := s.rl.Stdout()
	s.printHelp(out)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(out, "Exiting...")
			cancel()
			return
		}

		if quit := s.Exec(ctx, out, line); quit {
			fmt.Fprintln(out, "Exiting...")
			cancel()
			return
		}
	}
}

// Exec runs one command line, writing output to out.
// It returns true when the line asks the shell to exit.
func (s *Shell) Exec(ctx context.Context, out io.Writer, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp(out)

	case "ls", "inspect", "i":
		s.cmdList(out, args)

	case "get", "g":
		s.withPath(out, args, 1, func(path string) error {
			v, err := s.inspector.Get(path)
			if err == nil {
				fmt.Fprintf(out, "%s = %s\n", path, v)
			}
			return err
		})

	case "set", "s":
		s.withPath(out, args, 2, func(path string) error {
			return s.inspector.Set(path, args[1])
		})

	case "read", "r":
		s.withPath(out, args, 1, func(path string) error {
			v, err := s.inspector.Read(ctx, path)
			if err == nil {
				fmt.Fprintf(out, "%s = %s\n", path, v)
			}
			return err
		})

	case "write", "w":
		s.withPath(out, args, 2, func(path string) error {
			return s.inspector.Write(ctx, path, args[1])
		})

	case "exec", "x":
		s.withPath(out, args, 1, func(path string) error {
			return s.inspector.Exec(ctx, path, strings.Join(args[1:], " "))
		})

	case "save":
		s.withPath(out, args, 1, func(file string) error {
			return persistence.NewStore(file).Save(persistence.Capture(s.root))
		})

	case "load":
		s.withPath(out, args, 1, func(file string) error {
			snap, err := persistence.NewStore(file).Load()
			if err != nil {
				return err
			}
			if snap == nil {
				return fmt.Errorf("%s does not exist", file)
			}
			return persistence.Apply(s.root, snap)
		})

	case "quit", "exit", "q":
		return true

	default:
		fmt.Fprintf(out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *Shell) withPath(out io.Writer, args []string, n int, fn func(string) error) {
	if len(args) < n {
		fmt.Fprintln(out, "Error: missing argument (type 'help' for usage)")
		return
	}
	if err := fn(args[0]); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
	}
}

func (s *Shell) cmdList(out io.Writer, args []string) {
	showHidden := false
	path := ""
	for _, a := range args {
		if a == "-a" {
			showHidden = true
			continue
		}
		path = a
	}

	dev := s.root
	if path != "" {
		t, err := s.inspector.ResolveString(path)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
		if t.Variable != nil {
			for _, row := range s.inspector.Variables(t.Device, true) {
				if row.Name == t.Variable.Name() {
					fmt.Fprintln(out, s.formatter.FormatVariable(row))
				}
			}
			return
		}
		dev = t.Device
	}

	fmt.Fprint(out, s.formatter.FormatDevice(s.inspector.Inspect(dev, showHidden)))
}

func (s *Shell) printHelp(out io.Writer) {
	fmt.Fprintln(out, `
LMK Device Commands:
  Inspection:
    ls [-a] [path]      - List a device (or the tree); -a includes hidden variables
    get <path>          - Show the cached value of a variable
    set <path> <val>    - Change the cached value of a variable

  Hardware:
    read <path>         - Read a register variable from hardware
    write <path> <val>  - Set a register variable and write it to hardware
    exec <path> [arg]   - Run a command (e.g. exec WriteAll)

  Configuration:
    save <file>         - Save configuration variables (.yaml or .json)
    load <file>         - Load configuration variables (use exec WriteAll to commit)

  Other:
    help                - Show this help
    quit                - Exit`)
}
