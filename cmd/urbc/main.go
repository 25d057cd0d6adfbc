package main

import (
	"os"

	"github.com/mna/urbc/internal/maincmd"
)

var (
	// placeholder values, replaced on build
	version   = "{v}" // must be N.N[.N]
	buildDate = "{d}" // must be YYYY-mm-DD
)

func main() {
	root := maincmd.NewURBC(maincmd.BuildInfo{Version: version, BuildDate: buildDate})
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
