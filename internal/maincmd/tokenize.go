package maincmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mna/urbc/lang/scanner"
)

func newTokenizeCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tokenize <file>...",
		Short: "Run the scanner phase and print the resulting tokens",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(*logLevel)
			io := currentStdio()
			srcs, err := readFiles(args)
			if err != nil {
				return err
			}
			for _, file := range args {
				log.WithField("file", file).Debug("tokenizing")
				toks, cerrv := scanner.Scan(file, srcs[file])
				if cerrv != nil {
					fmt.Fprintln(io.Stderr, cerrv.Error())
					return cerrv
				}
				for _, tok := range toks {
					fmt.Fprintf(io.Stdout, "%s:%d:%d: %s\n", file, tok.Span.Start, tok.Span.End, tok)
				}
			}
			return nil
		},
	}
}
