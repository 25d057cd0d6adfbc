package code

import (
	"github.com/mna/urbc/lang/ast"
	"github.com/mna/urbc/lang/cerr"
	"github.com/mna/urbc/lang/compiler"
	"github.com/mna/urbc/lang/ir/destructure"
	"github.com/mna/urbc/lang/token"
)

// collectFn parses `(fn|fn! name [:p1 t1 :p2 t2 ...] [return-type] body)`
// (spec.md section 4.5). The params group and the body node are both kept
// verbatim in FuncData.Collected; compileFunc re-walks the params group to
// bind parameter names to variable slots, since compiler.Func itself only
// carries resolved Types, not names.
func collectFn(mod *compiler.Module, form ast.Node, public bool) *cerr.Error {
	n := len(form.Children)
	if n < 4 || n > 5 {
		return cerr.New(cerr.KindInvalidStatement, "", "", form.Span)
	}
	nameNode := form.Children[1]
	if nameNode.Kind != token.Ident {
		return cerr.New(cerr.KindUnexpectedToken, "", "", nameNode.Span)
	}

	paramsNode := form.Children[2]
	if !paramsNode.IsGroup() || paramsNode.Bracket != token.Square || len(paramsNode.Children)%2 != 0 {
		return cerr.New(cerr.KindInvalidParams, "", "", paramsNode.Span)
	}
	paramCount := len(paramsNode.Children) / 2
	if paramCount > destructure.MaxArgs {
		return cerr.New(cerr.KindInvalidParams, "", "", paramsNode.Span)
	}
	params := make([]compiler.Type, 0, paramCount)
	for i := 0; i < len(paramsNode.Children); i += 2 {
		pname, ptype := paramsNode.Children[i], paramsNode.Children[i+1]
		if pname.Kind != token.Ident || len(pname.Ident) < 2 || pname.Ident[0] != ':' {
			return cerr.New(cerr.KindInvalidParams, "", "", pname.Span)
		}
		if ptype.Kind != token.Ident {
			return cerr.New(cerr.KindInvalidParams, "", "", ptype.Span)
		}
		t, ok := compiler.ParseType(ptype.Ident)
		if !ok {
			return cerr.New(cerr.KindInvalidType, "", "", ptype.Span)
		}
		params = append(params, t)
	}

	ret := compiler.TUnit
	bodyIdx := 3
	if n == 5 {
		retNode := form.Children[3]
		if retNode.Kind != token.Ident {
			return cerr.New(cerr.KindUnexpectedToken, "", "", retNode.Span)
		}
		t, ok := compiler.ParseType(retNode.Ident)
		if !ok {
			return cerr.New(cerr.KindInvalidType, "", "", retNode.Span)
		}
		ret = t
		bodyIdx = 4
	}
	body := form.Children[bodyIdx]

	if _, ok := mod.AddFunc(compiler.Func{
		Name:   nameNode.Ident,
		Public: public,
		Params: params,
		Return: ret,
		Data:   compiler.FuncData{Collected: []ast.Node{paramsNode, body}},
	}); !ok {
		return cerr.New(cerr.KindDuplicateName, "", "", nameNode.Span).WithName(nameNode.Ident)
	}
	return nil
}
