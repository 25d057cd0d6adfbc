package maincmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mna/urbc/internal/config"
	"github.com/mna/urbc/lang/compiler"
)

func newCompileCmd(logLevel *string, cfg config.CLI) *cobra.Command {
	var (
		outputPath string
		offsetMap  string
	)

	cmd := &cobra.Command{
		Use:   "compile <file>...",
		Short: "Compile, filter and assemble one or more modules into a .urb image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(*logLevel)
			stdio := currentStdio()
			srcs, err := readFiles(args)
			if err != nil {
				return err
			}

			task := compiler.NewCompileTask()
			for _, file := range args {
				log.WithField("file", file).Debug("including module")
				if cerrv := task.Include(file, srcs[file]); cerrv != nil {
					fmt.Fprintln(stdio.Stderr, cerrv.Error())
					return cerrv
				}
			}

			log.Debug("compiling")
			if cerrv := task.Compile(); cerrv != nil {
				fmt.Fprintln(stdio.Stderr, cerrv.Error())
				return cerrv
			}

			log.Debug("filtering unreachable modules")
			task.Filter()

			out, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", outputPath, err)
			}
			defer out.Close()

			om, err := task.Assemble(out)
			if err != nil {
				return fmt.Errorf("assemble: %w", err)
			}
			log.WithField("output", outputPath).Info("wrote image")

			if offsetMap != "" {
				mf, err := os.Create(offsetMap)
				if err != nil {
					return fmt.Errorf("create %s: %w", offsetMap, err)
				}
				defer mf.Close()
				if err := om.WriteYAML(mf); err != nil {
					return fmt.Errorf("write offset map: %w", err)
				}
				log.WithField("offset-map", offsetMap).Info("wrote offset map")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", cfg.OutputPath, "output .urb path")
	cmd.Flags().StringVar(&offsetMap, "offset-map", cfg.OffsetMapPath, "optional YAML offset-map output path")
	return cmd
}
