package rollup

import (
	"encoding/json"
	"slices"

	"github.com/cmlabs-hris/hris-rollup-go/internal/domain/rollup"
)

// ExpansionState is the set of node ids whose children are shown. Values are immutable:
// every transition returns a new state.
type ExpansionState struct {
	ids map[string]struct{}
}

func NewExpansionState(ids ...string) ExpansionState {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return ExpansionState{ids: set}
}

// ExpandAll opens every node that has reports.
func ExpandAll(roots []*rollup.TreeNode) ExpansionState {
	set := make(map[string]struct{})
	Walk(roots, func(n *rollup.TreeNode, _ int) bool {
		if n.HasChildren() {
			set[n.ID] = struct{}{}
		}
		return true
	})
	return ExpansionState{ids: set}
}

func CollapseAll() ExpansionState {
	return ExpansionState{ids: map[string]struct{}{}}
}

// Toggle returns the state with id added if it was absent and removed if it was present.
func (s ExpansionState) Toggle(id string) ExpansionState {
	next := make(map[string]struct{}, len(s.ids)+1)
	for k := range s.ids {
		next[k] = struct{}{}
	}
	if _, ok := next[id]; ok {
		delete(next, id)
	} else {
		next[id] = struct{}{}
	}
	return ExpansionState{ids: next}
}

func (s ExpansionState) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s ExpansionState) Len() int {
	return len(s.ids)
}

// IDs returns the expanded ids in ascending order.
func (s ExpansionState) IDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s ExpansionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// ResolveExpansion derives the state for a request. An explicit mode wins over an id list,
// and with neither every manager starts expanded. Toggles are applied in order afterwards.
func ResolveExpansion(roots []*rollup.TreeNode, mode rollup.ExpandMode, expanded, toggles []string) ExpansionState {
	var state ExpansionState
	switch {
	case mode == rollup.ExpandModeNone:
		state = CollapseAll()
	case mode == rollup.ExpandModeAll:
		state = ExpandAll(roots)
	case len(expanded) > 0:
		state = NewExpansionState(expanded...)
	default:
		state = ExpandAll(roots)
	}

	for _, id := range toggles {
		state = state.Toggle(id)
	}
	return state
}
