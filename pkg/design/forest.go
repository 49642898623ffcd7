package design

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/device"
)

// forest tracks connectivity between routing nodes using a union-find data
// structure so that PIP trees can be validated in near-linear time.
type forest struct {
	parent map[*device.Node]*device.Node
	rank   map[*device.Node]int
}

func newForest() *forest {
	return &forest{
		parent: make(map[*device.Node]*device.Node),
		rank:   make(map[*device.Node]int),
	}
}

// find returns the representative node of n's tree with path compression.
func (f *forest) find(n *device.Node) *device.Node {
	if _, ok := f.parent[n]; !ok {
		f.parent[n] = n
		return n
	}
	root := n
	for f.parent[root] != root {
		root = f.parent[root]
	}
	for cur := n; cur != root; {
		next := f.parent[cur]
		f.parent[cur] = root
		cur = next
	}
	return root
}

// union merges the trees of a and b; it reports false if they were already joined.
func (f *forest) union(a, b *device.Node) bool {
	ra, rb := f.find(a), f.find(b)
	if ra == rb {
		return false
	}
	switch {
	case f.rank[ra] < f.rank[rb]:
		f.parent[ra] = rb
	case f.rank[ra] > f.rank[rb]:
		f.parent[rb] = ra
	default:
		f.parent[rb] = ra
		f.rank[ra]++
	}
	return true
}

// CheckForest verifies that the net's PIPs form trees: no node is driven by two
// PIPs and no PIP closes a cycle.
func CheckForest(n *Net) error {
	f := newForest()
	driver := make(map[*device.Node]*device.PIP, len(n.pips))
	for _, p := range n.pips {
		if prev, ok := driver[p.End]; ok {
			return fmt.Errorf("design: net %s drives %s from both %s and %s", n.Name, p.End, prev, p)
		}
		driver[p.End] = p
		if !f.union(p.Start, p.End) {
			return fmt.Errorf("design: net %s has a cycle through %s", n.Name, p)
		}
	}
	return nil
}

// TreeCount returns the number of disjoint PIP trees of the net.
func TreeCount(n *Net) int {
	f := newForest()
	for _, p := range n.pips {
		f.union(p.Start, p.End)
	}
	roots := make(map[*device.Node]struct{})
	for node := range f.parent {
		roots[f.find(node)] = struct{}{}
	}
	return len(roots)
}
