// Package token defines the lexical vocabulary shared by the scanner, the
// AST builder, and every dialect: byte-offset spans and the tagged token
// variant they annotate.
package token

import "fmt"

// Span is a half-open byte range [Start, End) into a module's source text.
// Every token, AST node, and most IR elements carry one for diagnostics.
type Span struct {
	Start int
	End   int
}

// Join returns the smallest span covering both s and other.
func (s Span) Join(other Span) Span {
	start, end := s.Start, s.End
	if other.Start < start {
		start = other.Start
	}
	if other.End > end {
		end = other.End
	}
	return Span{Start: start, End: end}
}

// BracketKind distinguishes the three bracket families. Curly and square
// brackets are only legal nested inside a round group; the AST builder
// enforces that, not the scanner.
type BracketKind uint8

const (
	Round BracketKind = iota
	Square
	Curly
)

func (k BracketKind) String() string {
	switch k {
	case Round:
		return "()"
	case Square:
		return "[]"
	case Curly:
		return "{}"
	default:
		return "?"
	}
}

// Kind discriminates the Token tagged variant.
type Kind uint8

const (
	LeftBracket Kind = iota
	RightBracket
	Ident
	Int
	UInt
	Float
	String
)

func (k Kind) String() string {
	switch k {
	case LeftBracket:
		return "LeftBracket"
	case RightBracket:
		return "RightBracket"
	case Ident:
		return "Ident"
	case Int:
		return "Int"
	case UInt:
		return "UInt"
	case Float:
		return "Float"
	case String:
		return "String"
	default:
		return "?"
	}
}

// Token is the tagged variant produced by the scanner. Only the fields
// relevant to Kind are meaningful; callers switch on Kind first.
type Token struct {
	Kind    Kind
	Span    Span
	Bracket BracketKind // LeftBracket, RightBracket
	Ident   string      // Ident
	Int     int64       // Int
	UInt    uint64      // UInt
	Float   float64     // Float
	Str     string      // String
}

func (t Token) String() string {
	switch t.Kind {
	case LeftBracket:
		return fmt.Sprintf("%v(", t.Bracket)
	case RightBracket:
		return fmt.Sprintf(")%v", t.Bracket)
	case Ident:
		return t.Ident
	case Int:
		return fmt.Sprintf("%d", t.Int)
	case UInt:
		return fmt.Sprintf("%du", t.UInt)
	case Float:
		return fmt.Sprintf("%g", t.Float)
	case String:
		return fmt.Sprintf("%q", t.Str)
	default:
		return "?"
	}
}
