// Package config binds urbc/urbdis's environment-configurable defaults,
// replacing the teacher's mna/mainer EnvPrefix binding with a plain
// caarlos0/env struct (see DESIGN.md for why mna/mainer itself is dropped).
package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

// CLI holds every URBC_*-prefixed environment default. Command-line flags
// set on a cobra.Command always take precedence; these are fallbacks used
// only when a flag was left at its zero value.
type CLI struct {
	// OutputPath is the default .urb output path when -o/--output is absent.
	OutputPath string `env:"OUTPUT_PATH" envDefault:"a.urb"`
	// OffsetMapPath, when non-empty, is the default path urbc writes the
	// YAML offset-map debugging sink to (spec.md external interfaces).
	OffsetMapPath string `env:"OFFSET_MAP_PATH"`
	// LogLevel is a logrus.ParseLevel string (e.g. "info", "debug").
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the process environment into a CLI, prefixing every field's
// env tag with URBC_ (so OUTPUT_PATH becomes URBC_OUTPUT_PATH).
func Load() (CLI, error) {
	var c CLI
	if err := env.Parse(&c, env.Options{Prefix: "URBC_"}); err != nil {
		return CLI{}, fmt.Errorf("config: %w", err)
	}
	return c, nil
}
