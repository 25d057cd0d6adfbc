// Package maincmd builds the cobra command trees shared by cmd/urbc and
// cmd/urbdis, replacing the teacher's mna/mainer-based Cmd/buildCmds
// reflection dispatcher (see DESIGN.md) with plain *cobra.Command trees,
// grounded on _examples/ajroetker-goat and _examples/Consensys-go-corset's
// own cobra-based compiler CLIs.
package maincmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mna/urbc/internal/config"

	// Dialects register themselves with lang/compiler via init(); a CLI
	// binary must import every dialect it wants (mod ...) headers to find.
	_ "github.com/mna/urbc/lang/compiler/dialect/assembly"
	_ "github.com/mna/urbc/lang/compiler/dialect/code"
)

// BuildInfo carries version/date values injected at build time (ldflags),
// mirroring the teacher's cmd/nenuphar version/buildDate placeholders.
type BuildInfo struct {
	Version   string
	BuildDate string
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// stdio is the subset of process I/O a subcommand needs, mirroring the
// teacher's mainer.Stdio without pulling in the rest of that package.
type stdio struct {
	Stdout io.Writer
	Stderr io.Writer
}

func currentStdio() stdio {
	return stdio{Stdout: os.Stdout, Stderr: os.Stderr}
}

// NewURBC builds the urbc root command: tokenize/ast/compile subcommands
// over one or more source files.
func NewURBC(info BuildInfo) *cobra.Command {
	cfg, cfgErr := config.Load()

	root := &cobra.Command{
		Use:     "urbc [command]",
		Short:   "Compiler and linker for the urb virtual ISA target",
		Version: fmt.Sprintf("%s (%s)", info.Version, info.BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfgErr
		},
	}

	var logLevel string
	root.PersistentFlags().StringVar(&logLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	root.AddCommand(
		newTokenizeCmd(&logLevel),
		newASTCmd(&logLevel),
		newCompileCmd(&logLevel, cfg),
	)
	return root
}

func readFiles(paths []string) (map[string]string, error) {
	srcs := make(map[string]string, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		srcs[p] = string(b)
	}
	return srcs, nil
}
