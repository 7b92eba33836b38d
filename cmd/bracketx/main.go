package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// errUnmatched makes the process exit with status 1 without an error message.
var errUnmatched = errors.New("unmatched brackets found")

func main() {
	os.Exit(run(context.Background(), os.Args[1:], newApp()))
}

func run(ctx context.Context, args []string, a *app) int {
	root := a.rootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errUnmatched) {
			fmt.Fprintf(a.stderr, "Error: %s\n", err)
		}
		return 1
	}
	return 0
}

// app carries the process environment so commands can be driven from tests.
type app struct {
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	getenv  func(string) string
	environ func() []string

	configPath string
	logLevel   string
}

func newApp() *app {
	return &app{
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		getenv:  os.Getenv,
		environ: os.Environ,
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bracketx",
		Short:         "Rainbow bracket matching for source trees",
		Long:          "bracketx pairs (), [], {} and <> in source files, reports unmatched brackets and renders them by nesting depth.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(a.stderr, a.logLevel)
			if err != nil {
				return err
			}
			cmd.SetContext(log.WithContext(cmd.Context()))
			return nil
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: search .bracketx.* upward, then XDG and home; env BRACKETX_CONFIG)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level: trace|debug|info|warn|error")

	root.AddCommand(a.scanCmd())
	root.AddCommand(a.paintCmd())
	root.AddCommand(a.serveCmd())
	root.AddCommand(a.languagesCmd())
	return root
}

// newLogger writes human-readable lines to terminals and JSON everywhere else.
func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid --log-level: %s", level)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}
	out := w
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		out = zerolog.ConsoleWriter{Out: f, TimeFormat: "15:04:05"}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}
