package ast_test

import (
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/mna/urbc/lang/ast"
	"github.com/mna/urbc/lang/cerr"
	"github.com/mna/urbc/lang/scanner"
	"github.com/stretchr/testify/require"
)

// shape projects a Node onto its Ident/Children structure, dropping Span
// (byte offsets are not useful to pin down in a tree-shape comparison).
type shape struct {
	Ident    string `pretty:",omitempty"`
	Children []shape `pretty:",omitempty"`
}

func shapeOf(n ast.Node) shape {
	if !n.IsGroup() {
		return shape{Ident: n.Ident}
	}
	s := shape{Children: make([]shape, len(n.Children))}
	for i, c := range n.Children {
		s.Children[i] = shapeOf(c)
	}
	return s
}

func build(t *testing.T, src string) []ast.Node {
	t.Helper()
	toks, serr := scanner.Scan("t.lvt", src)
	require.Nil(t, serr)
	nodes, aerr := ast.Build("t.lvt", toks)
	require.Nil(t, aerr)
	return nodes
}

func TestBuildBasic(t *testing.T) {
	nodes := build(t, "(mod assembly) (+label main (halt))")
	require.Len(t, nodes, 2)
	require.True(t, nodes[0].IsGroup())
	require.Len(t, nodes[0].Children, 2)
	require.Equal(t, "mod", nodes[0].Children[0].Ident)
}

func TestBuildLeafOrderPreserved(t *testing.T) {
	nodes := build(t, "(a (b c) d)")
	require.Equal(t, "a", nodes[0].Children[0].Ident)
	require.Equal(t, "b", nodes[0].Children[1].Children[0].Ident)
	require.Equal(t, "c", nodes[0].Children[1].Children[1].Ident)
	require.Equal(t, "d", nodes[0].Children[2].Ident)
}

func TestBuildIllegalRootToken(t *testing.T) {
	toks, serr := scanner.Scan("t.lvt", "foo")
	require.Nil(t, serr)
	_, err := ast.Build("t.lvt", toks)
	require.NotNil(t, err)
	require.Equal(t, cerr.KindIllegalTokenAtRootLevel, err.Kind)
}

func TestBuildMismatchedBrackets(t *testing.T) {
	toks, serr := scanner.Scan("t.lvt", "(foo]")
	require.Nil(t, serr)
	_, err := ast.Build("t.lvt", toks)
	require.NotNil(t, err)
	require.Equal(t, cerr.KindMissmatchBrackets, err.Kind)
}

func TestBuildUnclosedParen(t *testing.T) {
	toks, serr := scanner.Scan("t.lvt", "(foo")
	require.Nil(t, serr)
	_, err := ast.Build("t.lvt", toks)
	require.NotNil(t, err)
	require.Equal(t, cerr.KindUnclosedParenthesis, err.Kind)
}

func TestBuildNonRoundAtRoot(t *testing.T) {
	toks, serr := scanner.Scan("t.lvt", "[foo]")
	require.Nil(t, serr)
	_, err := ast.Build("t.lvt", toks)
	require.NotNil(t, err)
	require.Equal(t, cerr.KindIllegalTokenAtRootLevel, err.Kind)
}

func TestBuildTreeShape(t *testing.T) {
	nodes := build(t, "(mod assembly) (+label main (add r1 r2 r3))")

	got := make([]shape, len(nodes))
	for i, n := range nodes {
		got[i] = shapeOf(n)
	}

	want := []shape{
		{Children: []shape{{Ident: "mod"}, {Ident: "assembly"}}},
		{Children: []shape{
			{Ident: "+label"},
			{Ident: "main"},
			{Children: []shape{{Ident: "add"}, {Ident: "r1"}, {Ident: "r2"}, {Ident: "r3"}}},
		}},
	}

	if diff := pretty.Compare(want, got); diff != "" {
		t.Errorf("tree shape mismatch (-want +got):\n%s", diff)
	}
}
