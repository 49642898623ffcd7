package router

import (
	"fmt"
	"sync"

	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/design"
	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/device"
)

// NodeStatus is the occupancy of a node as seen by the net being routed.
type NodeStatus uint8

const (
	// Available nodes are free to claim.
	Available NodeStatus = iota
	// InUse nodes already carry the net being routed (or its constant) and may be shared.
	InUse
	// Unavailable nodes belong to another net and must never be selected.
	Unavailable
)

func (s NodeStatus) String() string {
	switch s {
	case Available:
		return "AVAILABLE"
	case InUse:
		return "IN_USE"
	case Unavailable:
		return "UNAVAILABLE"
	}
	return fmt.Sprintf("NodeStatus(%d)", uint8(s))
}

// Oracle reports the status of a node at query time. Routers call it for
// every candidate and never cache the answer across calls.
type Oracle func(*device.Node) NodeStatus

// AllAvailable is an Oracle that reports every node as free.
func AllAvailable(*device.Node) NodeStatus {
	return Available
}

// PinOracle derives status from site pins alone: a node terminating at a pin
// attached to a net of type t is InUse, one attached to any other net is
// Unavailable, everything else is Available.
func PinOracle(d *design.Design, t design.NetType) Oracle {
	return func(n *device.Node) NodeStatus {
		sp := n.SitePin()
		if sp == nil {
			return Available
		}
		si := d.SiteInst(sp.Site.Name)
		if si == nil {
			return Available
		}
		p := si.SitePinInst(sp.Name)
		if p == nil || p.Net() == nil {
			return Available
		}
		if p.Net().Type == t {
			return InUse
		}
		return Unavailable
	}
}

// Occupancy is a caller-owned table of which net holds each node. The
// orchestrating caller claims every routed net so the next call sees its
// nodes as Unavailable.
type Occupancy struct {
	mu    sync.RWMutex
	owner map[*device.Node]*design.Net
}

// NewOccupancy returns an empty occupancy table.
func NewOccupancy() *Occupancy {
	return &Occupancy{owner: make(map[*device.Node]*design.Net)}
}

// Claim records every node the net's PIPs and pins touch. It fails when a
// node is already held by a different net, leaving the table unchanged.
func (o *Occupancy) Claim(n *design.Net) error {
	nodes := netNodes(n)
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, node := range nodes {
		if cur := o.owner[node]; cur != nil && cur != n {
			return fmt.Errorf("router: node %s of net %s is held by net %s", node, n.Name, cur.Name)
		}
	}
	for _, node := range nodes {
		o.owner[node] = n
	}
	return nil
}

// Release forgets every node held by n.
func (o *Occupancy) Release(n *design.Net) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for node, owner := range o.owner {
		if owner == n {
			delete(o.owner, node)
		}
	}
}

// Owner returns the net holding node, or nil.
func (o *Occupancy) Owner(node *device.Node) *design.Net {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.owner[node]
}

// Len returns the number of claimed nodes.
func (o *Occupancy) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.owner)
}

// Oracle returns the status view of the table for routing net.
func (o *Occupancy) Oracle(net *design.Net) Oracle {
	return func(node *device.Node) NodeStatus {
		owner := o.Owner(node)
		switch {
		case owner == nil:
			return Available
		case owner == net, net.Type.IsStatic() && owner.Type == net.Type:
			return InUse
		}
		return Unavailable
	}
}

func netNodes(n *design.Net) []*device.Node {
	seen := make(map[*device.Node]bool)
	var out []*device.Node
	add := func(node *device.Node) {
		if node != nil && !seen[node] {
			seen[node] = true
			out = append(out, node)
		}
	}
	for _, p := range n.PIPs() {
		add(p.Start)
		add(p.End)
	}
	for _, p := range n.Pins() {
		add(p.Node())
	}
	return out
}
