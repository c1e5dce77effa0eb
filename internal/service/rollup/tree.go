package rollup

import (
	"slices"

	"github.com/cmlabs-hris/hris-rollup-go/internal/domain/rollup"
)

// BuildForest turns a flat snapshot into a sorted management forest.
// Implementation uses two passes:
// 1. create one node per record and index it by id (duplicate ids: last write wins)
// 2. attach every node to its resolved manager, anything unresolved becomes a root
func BuildForest(records []rollup.EmployeeRecord, names NameCollator) []*rollup.TreeNode {
	nodes := make([]*rollup.TreeNode, len(records))
	byID := make(map[string]int, len(records))
	for i, rec := range records {
		nodes[i] = newTreeNode(rec)
		byID[rec.ID] = i
	}

	parent := make([]int, len(records))
	roots := make([]*rollup.TreeNode, 0)
	for i, rec := range records {
		parent[i] = -1

		managerID := rec.ManagerRef()
		if managerID == "" || managerID == rec.ID {
			roots = append(roots, nodes[i])
			continue
		}
		p, ok := byID[managerID]
		if !ok || p == i {
			// Dangling manager reference, keep the node as a root instead of dropping it.
			roots = append(roots, nodes[i])
			continue
		}
		nodes[p].Children = append(nodes[p].Children, nodes[i])
		parent[i] = p
	}

	roots = promoteCycles(nodes, parent, roots)
	SortForest(roots, names)
	return roots
}

func newTreeNode(rec rollup.EmployeeRecord) *rollup.TreeNode {
	rec.ManagerID = cloneString(rec.ManagerID)
	rec.LeaveStatus = cloneString(rec.LeaveStatus)
	rec.Avatar = cloneString(rec.Avatar)

	return &rollup.TreeNode{
		EmployeeRecord: rec,
		Initials:       rec.Initials(),
		Presence:       rec.Presence(),
		Label:          rec.PresenceLabel(),
		Progress:       ProgressOf(rec.Metrics),
		Children:       []*rollup.TreeNode{},
	}
}

// promoteCycles finds records that are unreachable from any root because their manager chain
// loops back on itself. The loop member that comes first in the input is detached and becomes a root.
func promoteCycles(nodes []*rollup.TreeNode, parent []int, roots []*rollup.TreeNode) []*rollup.TreeNode {
	index := make(map[*rollup.TreeNode]int, len(nodes))
	for i, n := range nodes {
		index[n] = i
	}

	reached := make([]bool, len(nodes))
	mark := func(start int) {
		stack := []int{start}
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if reached[i] {
				continue
			}
			reached[i] = true
			for _, child := range nodes[i].Children {
				stack = append(stack, index[child])
			}
		}
	}
	for _, root := range roots {
		mark(index[root])
	}

	for i := range nodes {
		if reached[i] {
			continue
		}

		// Walk up until a record repeats: that record sits on the loop.
		seen := make(map[int]bool)
		cur := i
		for !seen[cur] {
			seen[cur] = true
			cur = parent[cur]
		}
		first := cur
		for next := parent[cur]; next != cur; next = parent[next] {
			if next < first {
				first = next
			}
		}

		p := parent[first]
		nodes[p].Children = slices.DeleteFunc(nodes[p].Children, func(n *rollup.TreeNode) bool {
			return n == nodes[first]
		})
		parent[first] = -1
		roots = append(roots, nodes[first])
		mark(first)
	}

	return roots
}

// SortForest orders siblings at every level: managers before individual contributors,
// then by name in the collator's locale.
func SortForest(roots []*rollup.TreeNode, names NameCollator) {
	compare := names.Comparer()

	sortSiblings(roots, compare)
	stack := append([]*rollup.TreeNode(nil), roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		sortSiblings(n.Children, compare)
		stack = append(stack, n.Children...)
	}
}

func sortSiblings(siblings []*rollup.TreeNode, compare func(a, b string) int) {
	slices.SortStableFunc(siblings, func(a, b *rollup.TreeNode) int {
		aManager, bManager := a.HasChildren(), b.HasChildren()
		if aManager != bManager {
			if aManager {
				return -1
			}
			return 1
		}
		return compare(a.Name, b.Name)
	})
}

// Walk visits every node in pre-order. Returning false from fn skips the node's subtree.
func Walk(roots []*rollup.TreeNode, fn func(n *rollup.TreeNode, depth int) bool) {
	type frame struct {
		node  *rollup.TreeNode
		depth int
	}

	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: roots[i]})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.node, f.depth) {
			continue
		}
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Children[i], depth: f.depth + 1})
		}
	}
}

func CountNodes(roots []*rollup.TreeNode) int {
	count := 0
	Walk(roots, func(*rollup.TreeNode, int) bool {
		count++
		return true
	})
	return count
}

// FindNode returns the first node with id in pre-order, and the ids of its ancestors from the root down.
func FindNode(roots []*rollup.TreeNode, id string) (*rollup.TreeNode, []string, bool) {
	var path []string
	var found *rollup.TreeNode

	Walk(roots, func(n *rollup.TreeNode, depth int) bool {
		if found != nil {
			return false
		}
		path = append(path[:depth], n.ID)
		if n.ID == id {
			found = n
			return false
		}
		return true
	})

	if found == nil {
		return nil, nil, false
	}
	return found, append([]string(nil), path[:len(path)-1]...), true
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
