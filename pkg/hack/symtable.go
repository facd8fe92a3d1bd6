package hack

import "github.com/dolthub/swiss"

// ----------------------------------------------------------------------------
// Symbol Table

// Resolves user-defined labels and variables to their RAM/ROM address.
//
// Lookup order in the generated binary has no bearing on program semantics (a label
// is either resolved or it isn't), so this is backed by a swiss map rather than the
// builtin one: it's the one table in the whole toolchain that's genuinely insertion
// order independent and large enough (one entry per label/variable in the source) to
// benefit from it.
type SymbolTable struct{ entries *swiss.Map[string, uint16] }

// Initializes a SymbolTable, optionally seeded with the given entries (tests mostly).
func NewSymbolTable(seed map[string]uint16) SymbolTable {
	table := SymbolTable{entries: swiss.NewMap[string, uint16](uint32(len(seed)))}
	for name, addr := range seed {
		table.entries.Put(name, addr)
	}
	return table
}

// Get resolves 'name' to its address, the boolean mirrors the builtin map comma-ok idiom.
func (st SymbolTable) Get(name string) (uint16, bool) {
	if st.entries == nil {
		return 0, false
	}
	return st.entries.Get(name)
}

// Set binds 'name' to 'addr', overwriting any previous binding.
func (st *SymbolTable) Set(name string, addr uint16) {
	if st.entries == nil {
		st.entries = swiss.NewMap[string, uint16](1)
	}
	st.entries.Put(name, addr)
}
