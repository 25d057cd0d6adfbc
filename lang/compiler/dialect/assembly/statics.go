package assembly

import (
	"github.com/mna/urbc/lang/ast"
	"github.com/mna/urbc/lang/cerr"
	"github.com/mna/urbc/lang/compiler"
	"github.com/mna/urbc/lang/ir/lower"
	"github.com/mna/urbc/lang/token"
)

// staticFunc produces a BinaryStatic from a whole (static-func <name> ...)
// form node; its arguments start at Children[2]. Grounded on static_funcs.rs's
// STATIC_FUNCS phf_map, which has a single entry in the kept source.
type staticFunc func(node ast.Node) (*lower.BinaryStatic, *cerr.Error)

var staticFuncs = map[string]staticFunc{
	"buffer": staticBuffer,
}

// staticBuffer implements (static-func buffer <size>): a zero-filled
// buffer of size bytes, size >= 1.
func staticBuffer(node ast.Node) (*lower.BinaryStatic, *cerr.Error) {
	if len(node.Children) != 3 {
		return nil, cerr.New(cerr.KindInvalidParams, "", "", node.Span)
	}
	sizeNode := node.Children[2]
	var size uint64
	switch sizeNode.Kind {
	case token.Int:
		if sizeNode.Int < 1 {
			return nil, cerr.New(cerr.KindNotInSizeRangeFrom, "", "", sizeNode.Span).WithRange(cerr.Range{HasMin: true, Min: 1})
		}
		size = uint64(sizeNode.Int)
	case token.UInt:
		if sizeNode.UInt < 1 {
			return nil, cerr.New(cerr.KindNotInSizeRangeFrom, "", "", sizeNode.Span).WithRange(cerr.Range{HasMin: true, Min: 1})
		}
		size = sizeNode.UInt
	default:
		return nil, cerr.New(cerr.KindInvalidType, "", "", sizeNode.Span)
	}
	return &lower.BinaryStatic{Kind: lower.StaticBuffer, BufSize: size}, nil
}

// compileStatic resolves a static's initializer node to a fully-formed
// BinaryStatic: a bare scalar literal, or a (static-func ...) call.
func compileStatic(mod *compiler.Module, node ast.Node) (*lower.BinaryStatic, *cerr.Error) {
	switch node.Kind {
	case token.Int:
		return &lower.BinaryStatic{Kind: lower.StaticInt, Int: node.Int}, nil
	case token.UInt:
		return &lower.BinaryStatic{Kind: lower.StaticUInt, UInt: node.UInt}, nil
	case token.Float:
		return &lower.BinaryStatic{Kind: lower.StaticFloat, Float: node.Float}, nil
	case token.String:
		return &lower.BinaryStatic{Kind: lower.StaticString, Str: node.Str}, nil
	}
	if node.IsGroup() && len(node.Children) >= 2 && node.Children[0].Kind == token.Ident && node.Children[0].Ident == "static-func" {
		name := node.Children[1].Ident
		fn, ok := staticFuncs[name]
		if !ok {
			return nil, cerr.New(cerr.KindUnknownStaticFunc, "", "", node.Children[1].Span).WithName(name)
		}
		return fn(node)
	}
	return nil, cerr.New(cerr.KindInvalidType, "", "", node.Span)
}
