package compiler

import "github.com/alephium/alphvm/vmval"

// varInfo is one resolved variable's type and flattened slot range.
type varInfo struct {
	Type    vmval.Type
	Offset  int
	IsField bool
}

// symTab resolves names to slots, layering method locals over contract
// fields (locals shadow fields of the same name).
type symTab struct {
	fields map[string]varInfo
	locals map[string]varInfo

	nextLocalSlot int
}

func newSymTab(fields map[string]varInfo) *symTab {
	return &symTab{fields: fields, locals: map[string]varInfo{}}
}

func (s *symTab) lookup(name string) (varInfo, bool) {
	if v, ok := s.locals[name]; ok {
		return v, true
	}
	if v, ok := s.fields[name]; ok {
		return v, true
	}
	return varInfo{}, false
}

// declareLocal allocates the next contiguous flattened slot range for a new
// local of type t and records it under name.
func (s *symTab) declareLocal(name string, t vmval.Type) varInfo {
	v := varInfo{Type: t, Offset: s.nextLocalSlot}
	s.nextLocalSlot += t.FlattenedLength()
	s.locals[name] = v
	return v
}

// flattenFields assigns contiguous flattened offsets to a contract's
// declared field list, in declaration order.
func flattenFields(names []string, types []vmval.Type) map[string]varInfo {
	out := make(map[string]varInfo, len(names))
	offset := 0
	for i, name := range names {
		out[name] = varInfo{Type: types[i], Offset: offset, IsField: true}
		offset += types[i].FlattenedLength()
	}
	return out
}

func totalFlattenedLength(types []vmval.Type) int {
	n := 0
	for _, t := range types {
		n += t.FlattenedLength()
	}
	return n
}
