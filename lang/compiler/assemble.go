package compiler

import (
	"fmt"
	"io"

	"github.com/mna/urbc/lang/asm"
	"github.com/mna/urbc/lang/ir/lower"
)

// Assemble lays out every reachable func and static into the final .urb
// image and writes it to w. Requires Filter to have run.
func (t *CompileTask) Assemble(w io.Writer) (*asm.OffsetMap, error) {
	if t.Status != StatusFiltered {
		panic(fmt.Sprintf("compiler: Assemble called in status %s, want filtered", t.Status))
	}
	if t.Main == nil {
		panic("compiler: Assemble called with no resolved main coordinate")
	}
	t.Status = StatusInvalid

	modules := make([]asm.Module, len(t.Modules))
	for mi, mod := range t.Modules {
		am := asm.Module{Name: mod.Name}
		am.Statics = make([]asm.Static, len(mod.Statics))
		for si, st := range mod.Statics {
			var value lower.BinaryStatic
			if st.Data.Intermediary != nil {
				value = *st.Data.Intermediary
			}
			am.Statics[si] = asm.Static{Name: st.Name, Used: st.Used, Value: value}
		}
		am.Funcs = make([]asm.Func, len(mod.Funcs))
		for fi, fn := range mod.Funcs {
			am.Funcs[fi] = asm.Func{Name: fn.Name, Used: fn.Used, Layer: fn.Data.Intermediary}
		}
		modules[mi] = am
	}

	om, err := asm.Assemble(modules, *t.Main, w)
	if err != nil {
		return nil, err
	}
	t.Status = StatusComplete
	return om, nil
}
