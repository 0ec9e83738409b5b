package menutree

import (
	"sort"
	"strconv"
)

// Forest is an immutable index over a menu snapshot: node lookup plus
// per-parent child lists in ascending id order. Build it once per snapshot and
// share it across read operations.
type Forest struct {
	nodes    map[int64]MenuNode
	children map[int64][]int64
	roots    []int64
}

// NewForest indexes a flat menu snapshot. Nodes whose ParentID references a
// missing menu are treated as roots so that a partially loaded catalog still
// renders instead of disappearing.
func NewForest(menus []MenuNode) *Forest {
	f := &Forest{
		nodes:    make(map[int64]MenuNode, len(menus)),
		children: make(map[int64][]int64),
	}
	for _, m := range menus {
		f.nodes[m.ID] = m
	}
	for _, m := range menus {
		if m.IsRoot() || !f.contains(m.ParentID) {
			f.roots = append(f.roots, m.ID)
			continue
		}
		f.children[m.ParentID] = append(f.children[m.ParentID], m.ID)
	}
	sort.Slice(f.roots, func(i, j int) bool { return f.roots[i] < f.roots[j] })
	for _, ids := range f.children {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	return f
}

func (f *Forest) contains(id int64) bool {
	_, ok := f.nodes[id]
	return ok
}

// Len returns the number of indexed menus.
func (f *Forest) Len() int {
	return len(f.nodes)
}

// Node returns the menu with the given id.
func (f *Forest) Node(id int64) (MenuNode, bool) {
	n, ok := f.nodes[id]
	return n, ok
}

// HasChildren reports whether the menu is a structural parent, i.e. at least
// one other menu references it as parent.
func (f *Forest) HasChildren(id int64) bool {
	return len(f.children[id]) > 0
}

// Children returns the child ids of a menu in ascending id order.
func (f *Forest) Children(id int64) []int64 {
	return f.children[id]
}

// AncestorChain returns the path from the root down to and including the
// given menu. An unknown id yields an empty chain. Malformed snapshots with
// parent cycles are cut at the first repeated node instead of looping.
func (f *Forest) AncestorChain(id int64) []MenuNode {
	node, ok := f.nodes[id]
	if !ok {
		return nil
	}
	chain := []MenuNode{node}
	visited := map[int64]struct{}{id: {}}
	for !node.IsRoot() {
		parent, ok := f.nodes[node.ParentID]
		if !ok {
			break
		}
		if _, seen := visited[parent.ID]; seen {
			break
		}
		visited[parent.ID] = struct{}{}
		chain = append(chain, parent)
		node = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// TreeRow is one entry of the rendered tree: the node, its depth and the
// display hints the caller needs to draw expand controls.
type TreeRow struct {
	Node        MenuNode
	Level       int
	HasChildren bool
	Expanded    bool
}

// Rows flattens the forest into pre-order display rows. Children of a
// collapsed or childless node are omitted entirely, not merely hidden. The
// expanded set may be nil, which renders only the roots.
func (f *Forest) Rows(expanded map[int64]bool) []TreeRow {
	rows := make([]TreeRow, 0, len(f.roots))
	visited := make(map[int64]struct{}, len(f.nodes))
	for _, id := range f.roots {
		rows = f.appendRows(rows, id, 0, expanded, visited)
	}
	return rows
}

func (f *Forest) appendRows(rows []TreeRow, id int64, level int, expanded map[int64]bool, visited map[int64]struct{}) []TreeRow {
	if _, seen := visited[id]; seen {
		return rows
	}
	visited[id] = struct{}{}
	node := f.nodes[id]
	hasChildren := f.HasChildren(id)
	isExpanded := hasChildren && expanded[id]
	rows = append(rows, TreeRow{Node: node, Level: level, HasChildren: hasChildren, Expanded: isExpanded})
	if !isExpanded {
		return rows
	}
	for _, childID := range f.children[id] {
		rows = f.appendRows(rows, childID, level+1, expanded, visited)
	}
	return rows
}

// Numbers assigns every menu its dotted position string, e.g. the second
// root's third child's first child becomes "2.3.1". The traversal visits
// every node regardless of expansion state so the numbering stays stable
// while branches are collapsed in the UI.
func (f *Forest) Numbers() map[int64]string {
	numbers := make(map[int64]string, len(f.nodes))
	visited := make(map[int64]struct{}, len(f.nodes))
	for i, id := range f.roots {
		f.number(numbers, id, strconv.Itoa(i+1), visited)
	}
	return numbers
}

func (f *Forest) number(numbers map[int64]string, id int64, prefix string, visited map[int64]struct{}) {
	if _, seen := visited[id]; seen {
		return
	}
	visited[id] = struct{}{}
	numbers[id] = prefix
	for i, childID := range f.children[id] {
		f.number(numbers, childID, prefix+"."+strconv.Itoa(i+1), visited)
	}
}

