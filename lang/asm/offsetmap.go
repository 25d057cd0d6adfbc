package asm

import (
	"io"
	"sort"

	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"

	"github.com/mna/urbc/lang/ir/lower"
)

// OffsetEntry is one (module, element) -> address row in the offset-map
// debugging sink.
type OffsetEntry struct {
	Module  int    `yaml:"module"`
	Element int    `yaml:"element"`
	Address uint64 `yaml:"address"`
}

// offsetMapDoc is the YAML document shape written by WriteYAML.
type offsetMapDoc struct {
	Statics []OffsetEntry `yaml:"statics"`
	Funcs   []OffsetEntry `yaml:"funcs"`
}

// WriteYAML writes om as a human-readable offset listing, sorted by
// (module, element) for reproducible diffs across builds; map iteration
// order is otherwise randomized, so the sort is not cosmetic.
func (om *OffsetMap) WriteYAML(w io.Writer) error {
	doc := offsetMapDoc{
		Statics: sortedEntries(om.StaticOffsets),
		Funcs:   sortedEntries(om.FuncOffsets),
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(doc)
}

// ReadYAML parses an offset-map document previously written by WriteYAML,
// for lang/disasm to recover func/static byte boundaries without
// re-running the compiler.
func ReadYAML(r io.Reader) (*OffsetMap, error) {
	var doc offsetMapDoc
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	om := newOffsetMap()
	for _, e := range doc.Statics {
		om.StaticOffsets[lower.Coord{Module: e.Module, Element: e.Element}] = e.Address
	}
	for _, e := range doc.Funcs {
		om.FuncOffsets[lower.Coord{Module: e.Module, Element: e.Element}] = e.Address
	}
	return om, nil
}

func sortedEntries(m map[lower.Coord]uint64) []OffsetEntry {
	keys := maps.Keys(m)
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Module != keys[j].Module {
			return keys[i].Module < keys[j].Module
		}
		return keys[i].Element < keys[j].Element
	})
	entries := make([]OffsetEntry, len(keys))
	for i, k := range keys {
		entries[i] = OffsetEntry{Module: k.Module, Element: k.Element, Address: m[k]}
	}
	return entries
}
