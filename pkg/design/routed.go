package design

import (
	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/device"
)

// IsTieOff reports whether node is a tie-off driving the constant of t.
func IsTieOff(node *device.Node, t NetType) bool {
	switch t {
	case NetVCC:
		return node.Type == device.NodeTieVCC
	case NetGND:
		return node.Type == device.NodeTieGND
	}
	return false
}

// Roots returns the nodes a net's routing may legitimately start from: its
// output pins and, for constant nets, tie-offs its PIPs start at.
func Roots(n *Net) []*device.Node {
	var roots []*device.Node
	for _, p := range n.pins {
		if !p.Out {
			continue
		}
		if node := p.Node(); node != nil {
			roots = append(roots, node)
		}
	}
	if n.Type.IsStatic() {
		seen := make(map[*device.Node]bool)
		for _, p := range n.pips {
			if IsTieOff(p.Start, n.Type) && !seen[p.Start] {
				seen[p.Start] = true
				roots = append(roots, p.Start)
			}
		}
	}
	return roots
}

// Reachable returns every node reachable from the net's roots through its own PIPs.
func Reachable(n *Net) map[*device.Node]bool {
	down := make(map[*device.Node][]*device.Node, len(n.pips))
	for _, p := range n.pips {
		down[p.Start] = append(down[p.Start], p.End)
	}
	seen := make(map[*device.Node]bool)
	queue := Roots(n)
	for _, r := range queue {
		seen[r] = true
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range down[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}

// UpdatePinsIsRouted recomputes every pin's routed flag from the net's PIPs
// and returns the number of sinks left unrouted.
func UpdatePinsIsRouted(n *Net) int {
	reached := Reachable(n)
	drives := make(map[*device.Node]bool, len(n.pips))
	for _, p := range n.pips {
		drives[p.Start] = true
	}
	unrouted := 0
	for _, p := range n.pins {
		node := p.Node()
		if p.Out {
			p.Routed = node != nil && drives[node]
			continue
		}
		p.Routed = node != nil && reached[node]
		if !p.Routed {
			unrouted++
		}
	}
	return unrouted
}

// CreateMissingSitePinInsts attaches a sink pin to the constant net n for
// every physical pin of a placed cell whose logical pin is tied to n's type.
// It returns the pins it created.
func CreateMissingSitePinInsts(n *Net) ([]*SitePinInst, error) {
	if !n.Type.IsStatic() {
		return nil, nil
	}
	var created []*SitePinInst
	for _, c := range n.design.cellOrder {
		for _, logical := range c.TiedPins(n.Type) {
			for _, phys := range c.PhysicalPins(logical) {
				if existing := c.siteInst.SitePinInst(phys); existing != nil && existing.net != nil {
					continue
				}
				p, err := n.CreatePin(c.siteInst.Site.Name, phys, false)
				if err != nil {
					return created, err
				}
				created = append(created, p)
			}
		}
	}
	return created, nil
}
