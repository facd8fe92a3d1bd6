package jack

import (
	"fmt"
	"strings"

	"github.com/jacklang/n2t/pkg/utils"
)

type Scope struct {
	name    string
	entries utils.Stack[Variable]
}

type ScopeTable struct {
	static utils.Stack[Variable]

	local     Scope
	field     Scope
	parameter Scope
}

func NewScopeTable() *ScopeTable {
	return &ScopeTable{
		static:    utils.Stack[Variable]{},
		local:     Scope{},
		field:     Scope{},
		parameter: Scope{},
	}
}

func (st *ScopeTable) PushClassScope(class string) {
	newScope := fmt.Sprintf("%s.Global", class)
	st.field = Scope{name: newScope, entries: utils.Stack[Variable]{}}
}

func (st *ScopeTable) PopClassScope() { st.field = Scope{} }

func (st *ScopeTable) PushSubRoutineScope(method string) {
	newScope := strings.ReplaceAll(st.GetScope(), "Global", method)
	st.local = Scope{name: newScope, entries: utils.Stack[Variable]{}}
	st.parameter = Scope{name: newScope, entries: utils.Stack[Variable]{}}
}

func (st *ScopeTable) PopSubroutineScope() { st.local, st.parameter = Scope{}, Scope{} }

func (st *ScopeTable) GetScope() string {
	if st.local.name != "" && st.parameter.name != "" {
		return st.local.name
	}

	if st.field.name != "" {
		return st.field.name
	}

	return "Global"
}

// RegisterVariable adds 'new' to the scope its VarType selects, rejecting a second
// declaration of the same name within that same scope (a field and a local may
// legally share a name, since one shadows the other; two fields may not).
func (st *ScopeTable) RegisterVariable(new Variable) error {
	var scope *utils.Stack[Variable]
	switch new.VarType {
	case Local:
		scope = &st.local.entries
	case Field:
		scope = &st.field.entries
	case Parameter:
		scope = &st.parameter.entries
	case Static:
		scope = &st.static
	}

	duplicate := false
	scope.Iterator()(func(_ int, entry Variable) bool {
		duplicate = entry.Name == new.Name
		return !duplicate
	})
	if duplicate {
		return fmt.Errorf("%w: '%s'", ErrDuplicateDecl, new.Name)
	}

	scope.Push(new)
	return nil
}

func (st *ScopeTable) ResolveVariable(name string) (uint16, Variable, error) {
	scopes := []utils.Stack[Variable]{st.local.entries, st.parameter.entries, st.field.entries, st.static}

	for _, scope := range scopes {
		offset, found := -1, Variable{}
		scope.Iterator()(func(idx int, entry Variable) bool {
			if entry.Name == name {
				offset, found = idx, entry
				return false
			}
			return true
		})
		if offset >= 0 {
			return uint16(offset), found, nil
		}
	}

	return 0, Variable{}, fmt.Errorf("%w: '%s'", ErrUndeclaredIdent, name)
}
