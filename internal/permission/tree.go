package permission

import "github.com/authgate/authgate/internal/db/models"

// Node is a permission with its materialized children.
type Node struct {
	models.Permission
	Children []Node `json:"children"`
}

// Tree is a parent indexed arena of permissions.
type Tree struct {
	nodes    map[uint64]models.Permission
	children map[uint64][]uint64
	roots    []uint64
}

// BuildTree indexes flat by id and parent. The first occurrence of a
// duplicated id wins and input order is kept among siblings. Nodes whose
// parent is missing end up in no children list and no root set.
func BuildTree(flat []models.Permission) *Tree {
	t := &Tree{
		nodes:    make(map[uint64]models.Permission, len(flat)),
		children: make(map[uint64][]uint64),
	}

	for _, p := range flat {
		if p.ID == models.RootParentID {
			continue
		}

		if _, dup := t.nodes[p.ID]; dup {
			continue
		}

		t.nodes[p.ID] = p

		if p.ParentID == models.RootParentID {
			t.roots = append(t.roots, p.ID)
			continue
		}

		t.children[p.ParentID] = append(t.children[p.ParentID], p.ID)
	}

	return t
}

// Len returns the number of distinct nodes indexed.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Forest materializes the roots with nested children. Every node appears at
// most once; a child already emitted is skipped.
func (t *Tree) Forest() []Node {
	visited := make(map[uint64]bool, len(t.nodes))
	out := make([]Node, 0, len(t.roots))

	for _, id := range t.roots {
		if n, ok := t.build(id, visited); ok {
			out = append(out, n)
		}
	}

	return out
}

func (t *Tree) build(id uint64, visited map[uint64]bool) (Node, bool) {
	if visited[id] {
		return Node{}, false
	}

	visited[id] = true

	n := Node{
		Permission: t.nodes[id],
		Children:   []Node{},
	}

	for _, c := range t.children[id] {
		if child, ok := t.build(c, visited); ok {
			n.Children = append(n.Children, child)
		}
	}

	return n, true
}

// Reachable returns the ids present in the forest in depth-first order.
func (t *Tree) Reachable() []uint64 {
	var (
		out  []uint64
		walk func(ns []Node)
	)

	walk = func(ns []Node) {
		for _, n := range ns {
			out = append(out, n.ID)
			walk(n.Children)
		}
	}

	walk(t.Forest())

	return out
}

// Descendants returns the ids below id, excluding id itself, breadth first.
// Cycles terminate through the visited set.
func (t *Tree) Descendants(id uint64) []uint64 {
	visited := map[uint64]bool{id: true}
	queue := append([]uint64(nil), t.children[id]...)

	var out []uint64

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if visited[cur] {
			continue
		}

		visited[cur] = true
		out = append(out, cur)
		queue = append(queue, t.children[cur]...)
	}

	return out
}
