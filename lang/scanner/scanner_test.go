package scanner_test

import (
	"testing"

	"github.com/mna/urbc/lang/cerr"
	"github.com/mna/urbc/lang/scanner"
	"github.com/mna/urbc/lang/token"
	"github.com/stretchr/testify/require"
)

func TestScanBasic(t *testing.T) {
	toks, err := scanner.Scan("t.lvt", `(mod assembly) (+label main (halt))`)
	require.Nil(t, err)
	require.NotEmpty(t, toks)
	require.Equal(t, token.LeftBracket, toks[0].Kind)
	require.Equal(t, token.Round, toks[0].Bracket)
	require.Equal(t, token.Ident, toks[1].Kind)
	require.Equal(t, "mod", toks[1].Ident)
}

func TestScanSpansCoverSource(t *testing.T) {
	src := "(add r0 r1 131072)"
	toks, err := scanner.Scan("t.lvt", src)
	require.Nil(t, err)
	for i := 1; i < len(toks); i++ {
		require.LessOrEqual(t, toks[i-1].Span.End, toks[i].Span.Start)
	}
	require.Equal(t, 0, toks[0].Span.Start)
	require.Equal(t, len(src), toks[len(toks)-1].Span.End)
}

func TestScanNumericAtoms(t *testing.T) {
	toks, err := scanner.Scan("t.lvt", "42 42u 3.14 buf r0")
	require.Nil(t, err)
	require.Equal(t, token.Int, toks[0].Kind)
	require.EqualValues(t, 42, toks[0].Int)
	require.Equal(t, token.UInt, toks[1].Kind)
	require.EqualValues(t, 42, toks[1].UInt)
	require.Equal(t, token.Float, toks[2].Kind)
	require.InDelta(t, 3.14, toks[2].Float, 1e-9)
	require.Equal(t, token.Ident, toks[3].Kind)
	require.Equal(t, token.Ident, toks[4].Kind)
}

func TestScanIdentStartingWithDigit(t *testing.T) {
	_, err := scanner.Scan("t.lvt", "3abc")
	require.NotNil(t, err)
	require.Equal(t, cerr.KindIdentStartingWithDigit, err.Kind)
}

func TestScanStringEscapes(t *testing.T) {
	toks, err := scanner.Scan("t.lvt", `"a\nb\x41"`)
	require.Nil(t, err)
	require.Equal(t, token.String, toks[0].Kind)
	require.Equal(t, "a\nbA", toks[0].Str)
}

func TestScanUnterminatedString(t *testing.T) {
	_, err := scanner.Scan("t.lvt", `"abc`)
	require.NotNil(t, err)
	require.Equal(t, cerr.KindUnexpectedEndOfSource, err.Kind)
}

func TestScanNoWhitespaceBetweenTokens(t *testing.T) {
	_, err := scanner.Scan("t.lvt", `"foo"bar`)
	require.NotNil(t, err)
	require.Equal(t, cerr.KindNoWhitespaceBetweenTokens, err.Kind)
}

func TestScanBracketsNeedNoWhitespace(t *testing.T) {
	_, err := scanner.Scan("t.lvt", `(foo)(bar)`)
	require.Nil(t, err)
}
