package maincmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mna/urbc/lang/ast"
	"github.com/mna/urbc/lang/scanner"
	"github.com/mna/urbc/lang/token"
)

func newASTCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ast <file>...",
		Short: "Run the scanner and AST builder phases and print the resulting tree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(*logLevel)
			stdio := currentStdio()
			srcs, err := readFiles(args)
			if err != nil {
				return err
			}
			for _, file := range args {
				log.WithField("file", file).Debug("building AST")
				toks, cerrv := scanner.Scan(file, srcs[file])
				if cerrv != nil {
					fmt.Fprintln(stdio.Stderr, cerrv.Error())
					return cerrv
				}
				nodes, cerrv := ast.Build(file, toks)
				if cerrv != nil {
					fmt.Fprintln(stdio.Stderr, cerrv.Error())
					return cerrv
				}
				fmt.Fprintf(stdio.Stdout, "; %s\n", file)
				for _, n := range nodes {
					writeNode(stdio.Stdout, n, 0)
				}
			}
			return nil
		},
	}
}

func writeNode(w io.Writer, n ast.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if !n.IsGroup() {
		fmt.Fprintf(w, "%s%s\n", indent, leafString(n))
		return
	}
	fmt.Fprintf(w, "%s%v(\n", indent, n.Bracket)
	for _, c := range n.Children {
		writeNode(w, c, depth+1)
	}
	fmt.Fprintf(w, "%s)%v\n", indent, n.Bracket)
}

func leafString(n ast.Node) string {
	switch n.Kind {
	case token.Ident:
		return n.Ident
	case token.Int:
		return fmt.Sprintf("%d", n.Int)
	case token.UInt:
		return fmt.Sprintf("%du", n.UInt)
	case token.Float:
		return fmt.Sprintf("%g", n.Float)
	case token.String:
		return fmt.Sprintf("%q", n.Str)
	default:
		return "?"
	}
}
