package maincmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mna/urbc/internal/config"
	"github.com/mna/urbc/lang/asm"
	"github.com/mna/urbc/lang/disasm"
)

// NewURBDis builds the urbdis root command: disassemble a .urb image back
// into a textual instruction listing, given its sibling offset-map file
// (urbc's --offset-map output; lang/disasm has no other way to split
// static data from code in a flat image).
func NewURBDis(info BuildInfo) *cobra.Command {
	cfg, cfgErr := config.Load()

	var (
		logLevel  string
		offsetMap string
	)

	root := &cobra.Command{
		Use:     "urbdis <image.urb>",
		Short:   "Disassemble a .urb image into a textual instruction listing",
		Version: fmt.Sprintf("%s (%s)", info.Version, info.BuildDate),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				return cfgErr
			}
			log := newLogger(logLevel)
			if offsetMap == "" {
				return fmt.Errorf("urbdis: --offset-map is required (no offset map recorded alongside %s)", args[0])
			}

			mf, err := os.Open(offsetMap)
			if err != nil {
				return fmt.Errorf("open %s: %w", offsetMap, err)
			}
			defer mf.Close()
			om, err := asm.ReadYAML(mf)
			if err != nil {
				return fmt.Errorf("read offset map: %w", err)
			}

			imgPath := args[0]
			img, err := os.Open(imgPath)
			if err != nil {
				return fmt.Errorf("open %s: %w", imgPath, err)
			}
			defer img.Close()

			log.WithField("image", imgPath).Debug("disassembling")
			listing, err := disasm.Disassemble(img, om)
			if err != nil {
				return fmt.Errorf("disassemble: %w", err)
			}
			return listing.WriteText(os.Stdout)
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&offsetMap, "offset-map", cfg.OffsetMapPath, "path to the YAML offset-map file written by urbc --offset-map")
	return root
}
