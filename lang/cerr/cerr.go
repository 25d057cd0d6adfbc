// Package cerr is the structured error taxonomy shared by every compiler
// phase. Errors are returned, never thrown, and carry enough context (file,
// source, span, numeric range where relevant) to render a span-annotated
// diagnostic; rendering itself is a driver concern and is out of scope here.
package cerr

import (
	"fmt"

	"github.com/mna/urbc/lang/token"
)

// Kind discriminates the tagged error variant. Grouped as in the taxonomy:
// Parse, Structural, Semantic, Range, Content, State, IO.
type Kind uint8

const (
	// Parse
	KindIdentStartingWithDigit Kind = iota
	KindNoWhitespaceBetweenTokens
	KindUnexpectedEndOfSource
	KindInvalidStringEscapeCode
	KindIllegalTokenAtRootLevel
	KindUnclosedParenthesis
	KindInvalidUTF8
	KindMissmatchBrackets

	// Structural
	KindInvalidModuleDeclaration
	KindUnknownModuleDialect
	KindEmptyModule
	KindDuplicateModule
	KindEmptyNode
	KindInvalidBracketType
	KindUnexpectedToken
	KindInvalidKeyword
	KindInvalidStatement
	KindInvalidParams
	KindInvalidType
	KindDuplicateName
	KindDuplicateImport
	KindSelfImport
	KindUnknownModule

	// Semantic
	KindUnknownFunc
	KindUnknownStaticFunc
	KindUnknownStaticVariable
	KindInvalidCallSignature
	KindInvalidCondition
	KindInvalidRegister
	KindNoMainFound

	// Range
	KindNotInSizeRange
	KindNotInSizeRangeFrom
	KindNotInI64Range
	KindNegativeNumber
	KindOversizedNumber
	KindInvalidByte

	// Content
	KindEmptyBuffer
	KindEmptyArray

	// State
	KindInvalidOperation

	// IO
	KindIOError
)

var messages = [...]string{
	KindIdentStartingWithDigit:   "an identifier must not start with a digit",
	KindNoWhitespaceBetweenTokens: "whitespace is required between these tokens",
	KindUnexpectedEndOfSource:    "unexpected end of source",
	KindInvalidStringEscapeCode:  "invalid string escape code",
	KindIllegalTokenAtRootLevel:  "only round groups are allowed at the root level",
	KindUnclosedParenthesis:      "unclosed parenthesis",
	KindInvalidUTF8:              "invalid UTF-8",
	KindMissmatchBrackets:        "mismatched brackets",

	KindInvalidModuleDeclaration: "this module declaration is not valid",
	KindUnknownModuleDialect:     "this module dialect is unknown",
	KindEmptyModule:              "this module is empty",
	KindDuplicateModule:          "a module with this name already exists",
	KindEmptyNode:                "this node must not be empty",
	KindInvalidBracketType:       "this bracket type is not allowed here",
	KindUnexpectedToken:          "this token is not valid here",
	KindInvalidKeyword:           "this keyword is not valid",
	KindInvalidStatement:         "this statement is not valid",
	KindInvalidParams:            "these function parameters are not valid",
	KindInvalidType:              "this type is not valid",
	KindDuplicateName:            "this name is already in use",
	KindDuplicateImport:          "this module is already imported",
	KindSelfImport:               "a module cannot be imported inside of itself",
	KindUnknownModule:            "this module could not be found",

	KindUnknownFunc:           "this function could not be found",
	KindUnknownStaticFunc:     "this static function is not known",
	KindUnknownStaticVariable: "this static variable does not exist",
	KindInvalidCallSignature:  "this call signature does not match the function signature",
	KindInvalidCondition:      "invalid condition (valid: = != < > <= >= !0 =0)",
	KindInvalidRegister:       "invalid register",
	KindNoMainFound:           "no main function was found",

	KindNotInSizeRange:     "this number is out of range",
	KindNotInSizeRangeFrom: "this number is out of range",
	KindNotInI64Range:      "this number is out of range",
	KindNegativeNumber:     "this number must not be negative",
	KindOversizedNumber:    "this number is too big",
	KindInvalidByte:        "this number does not fit into a byte",

	KindEmptyBuffer: "a buffer initialization must not be empty",
	KindEmptyArray:  "this array must not be empty",

	KindInvalidOperation: "this operation is not valid in the task's current state",

	KindIOError: "I/O error",
}

func (k Kind) String() string {
	if int(k) < len(messages) && messages[k] != "" {
		return messages[k]
	}
	return "unknown error"
}

// Range carries the valid bounds for a Range-kind error. Either bound may
// be absent (a size-from range carries only a minimum); Has* report which
// are present.
type Range struct {
	HasMin bool
	Min    int64
	HasMax bool
	Max    int64
}

// Error is the concrete realization of the spec's tagged error variant: a
// single struct carrying a Kind plus whatever context that Kind needs,
// rather than one Go type per variant — matching the flat error-list style
// the teacher package favors over per-case error types.
type Error struct {
	Kind  Kind
	File  string
	Src   string
	Span  token.Span
	Range Range
	Name  string // duplicate/unknown name context, when relevant
	Err   error  // wrapped IO error, for KindIOError
}

func (e *Error) Error() string {
	if e.Kind == KindIOError && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Span.Start, e.Span.End, e.Kind)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given Kind with file/src/span context.
func New(kind Kind, file, src string, span token.Span) *Error {
	return &Error{Kind: kind, File: file, Src: src, Span: span}
}

// NewIO wraps an I/O error bubbled up from an output sink.
func NewIO(err error) *Error {
	return &Error{Kind: KindIOError, Err: err}
}

// WithName attaches the duplicate/unknown name context and returns e, for
// fluent construction at the call site.
func (e *Error) WithName(name string) *Error {
	e.Name = name
	return e
}

// WithRange attaches a numeric range context (NotInSizeRange and friends)
// and returns e.
func (e *Error) WithRange(r Range) *Error {
	e.Range = r
	return e
}
