// Package ast builds a bracketed tree from a token stream: the surface
// syntax is uniformly s-expressions, so one tagged Node variant (token
// leaves plus Group) covers every dialect's concrete grammar.
package ast

import (
	"github.com/mna/urbc/lang/cerr"
	"github.com/mna/urbc/lang/token"
)

// Node is the tagged AST variant: the token leaves, plus Group for a
// bracketed sequence of children.
type Node struct {
	Kind token.Kind // token.Ident/Int/UInt/Float/String, or groupKind for a Group
	Span token.Span

	// leaf payloads, meaningful when Kind is a token leaf kind
	Ident string
	Int   int64
	UInt  uint64
	Float float64
	Str   string

	// Group payload
	Bracket  token.BracketKind
	Children []Node
}

// groupKind is a sentinel Kind value (outside token.Kind's leaf range)
// marking a Group node.
const groupKind token.Kind = 255

func (n Node) IsGroup() bool { return n.Kind == groupKind }

// Group constructs a Group node.
func Group(span token.Span, bracket token.BracketKind, children []Node) Node {
	return Node{Kind: groupKind, Span: span, Bracket: bracket, Children: children}
}

type frame struct {
	start   int
	bracket token.BracketKind
	nodes   []Node
}

// Build constructs the tree for a single module's token stream. The root
// is the implicit top-level sequence; only Round groups are legal there.
func Build(file string, toks []token.Token) ([]Node, *cerr.Error) {
	var stack []frame
	var root []Node

	push := func(n Node) {
		if len(stack) == 0 {
			root = append(root, n)
		} else {
			top := &stack[len(stack)-1]
			top.nodes = append(top.nodes, n)
		}
	}

	for _, tok := range toks {
		switch tok.Kind {
		case token.LeftBracket:
			stack = append(stack, frame{start: tok.Span.Start, bracket: tok.Bracket})
		case token.RightBracket:
			if len(stack) == 0 {
				return nil, cerr.New(cerr.KindMissmatchBrackets, file, "", tok.Span)
			}
			top := stack[len(stack)-1]
			if top.bracket != tok.Bracket {
				return nil, cerr.New(cerr.KindMissmatchBrackets, file, "", tok.Span)
			}
			stack = stack[:len(stack)-1]
			g := Group(token.Span{Start: top.start, End: tok.Span.End}, top.bracket, top.nodes)
			if len(stack) == 0 {
				if top.bracket != token.Round {
					return nil, cerr.New(cerr.KindIllegalTokenAtRootLevel, file, "", g.Span)
				}
				root = append(root, g)
			} else {
				parent := &stack[len(stack)-1]
				parent.nodes = append(parent.nodes, g)
			}
		case token.Ident, token.Int, token.UInt, token.Float, token.String:
			if len(stack) == 0 {
				return nil, cerr.New(cerr.KindIllegalTokenAtRootLevel, file, "", tok.Span)
			}
			switch tok.Kind {
			case token.Ident:
				push(Node{Kind: token.Ident, Span: tok.Span, Ident: tok.Ident})
			case token.Int:
				push(Node{Kind: token.Int, Span: tok.Span, Int: tok.Int})
			case token.UInt:
				push(Node{Kind: token.UInt, Span: tok.Span, UInt: tok.UInt})
			case token.Float:
				push(Node{Kind: token.Float, Span: tok.Span, Float: tok.Float})
			case token.String:
				push(Node{Kind: token.String, Span: tok.Span, Str: tok.Str})
			}
		}
	}
	if len(stack) != 0 {
		top := stack[len(stack)-1]
		return nil, cerr.New(cerr.KindUnclosedParenthesis, file, "", token.Span{Start: top.start, End: top.start + 1})
	}
	return root, nil
}
