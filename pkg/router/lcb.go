package router

import (
	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/design"
	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/device"
)

// PinKey identifies a logical pin of a primitive (site type).
type PinKey struct {
	Primitive  string
	LogicalPin string
}

// PinLCB names the leaf clock buffer wires that may drive one physical pin.
type PinLCB struct {
	SitePin string
	LCBs    []string
}

// LCBTable maps primitive logical pins to the physical pins they split into
// and the leaf clock buffers each physical pin requires.
type LCBTable struct {
	entries map[PinKey][]PinLCB
	byPin   map[PinKey]PinLCB // keyed by site pin instead of logical pin
}

// NewLCBTable returns an empty table.
func NewLCBTable() *LCBTable {
	return &LCBTable{
		entries: make(map[PinKey][]PinLCB),
		byPin:   make(map[PinKey]PinLCB),
	}
}

// Add registers the physical pins of one logical pin.
func (t *LCBTable) Add(primitive, logical string, pins ...PinLCB) {
	k := PinKey{Primitive: primitive, LogicalPin: logical}
	t.entries[k] = append(t.entries[k], pins...)
	for _, p := range pins {
		t.byPin[PinKey{Primitive: primitive, LogicalPin: p.SitePin}] = p
	}
}

// Remove drops the mapping of a single physical pin, wherever it appears.
func (t *LCBTable) Remove(primitive, sitePin string) {
	delete(t.byPin, PinKey{Primitive: primitive, LogicalPin: sitePin})
	for k, pins := range t.entries {
		if k.Primitive != primitive {
			continue
		}
		kept := pins[:0]
		for _, p := range pins {
			if p.SitePin != sitePin {
				kept = append(kept, p)
			}
		}
		t.entries[k] = kept
	}
}

// logical returns the physical pins registered for a logical pin.
func (t *LCBTable) logical(primitive, logical string) []PinLCB {
	return t.entries[PinKey{Primitive: primitive, LogicalPin: logical}]
}

// Lookup returns the entry of a physical site pin.
func (t *LCBTable) Lookup(primitive, sitePin string) (PinLCB, bool) {
	p, ok := t.byPin[PinKey{Primitive: primitive, LogicalPin: sitePin}]
	return p, ok
}

// Clone returns an independent copy of t.
func (t *LCBTable) Clone() *LCBTable {
	c := NewLCBTable()
	for k, pins := range t.entries {
		c.entries[k] = append([]PinLCB(nil), pins...)
	}
	for k, p := range t.byPin {
		c.byPin[k] = p
	}
	return c
}

// DefaultLCBTable covers the slice clock pin and every split RAMB36 pin.
func DefaultLCBTable() *LCBTable {
	t := NewLCBTable()
	t.Add("SLICEL", "CLK", PinLCB{SitePin: "CLK", LCBs: []string{"LEAF_CLK0", "LEAF_CLK1"}})
	lower := []string{"LEAF_CLK_L0", "LEAF_CLK_L1"}
	upper := []string{"LEAF_CLK_U0", "LEAF_CLK_U1"}
	for _, logical := range append(append([]string(nil), device.RAMB36SplitPins...), "WEBWE[0]") {
		lo, up := device.RAMB36Halves(logical)
		t.Add("RAMB36", logical,
			PinLCB{SitePin: lo, LCBs: lower},
			PinLCB{SitePin: up, LCBs: upper},
		)
	}
	return t
}

// resolveLCB picks the leaf clock buffer driving sink. LCBs already chosen
// for the net are preferred so sinks share buffers.
func (t *LCBTable) resolveLCB(net *design.Net, sink *design.SitePinInst, oracle Oracle, chosen map[*device.Node]int) (*device.Node, error) {
	si := sink.SiteInst()
	node := sink.Node()
	if si == nil || node == nil {
		return nil, &UnreachableSinkError{Net: net, Pin: sink, Reason: "pin is not bound to a site"}
	}
	entry, ok := t.Lookup(si.Site.Type, sink.Name)
	if !ok {
		return nil, &MappingNotFoundError{Net: net, Pin: sink}
	}
	var cands []*device.Node
	for _, name := range entry.LCBs {
		for _, p := range node.Uphill() {
			if p.Start.Wire == name && p.Start.Type == device.NodeLeafClock {
				cands = append(cands, p.Start)
			}
		}
	}
	if len(cands) == 0 {
		return nil, &MappingNotFoundError{Net: net, Pin: sink}
	}
	for _, c := range cands {
		if _, ok := chosen[c]; ok {
			return c, nil
		}
	}
	for _, c := range cands {
		if oracle(c) != Unavailable {
			return c, nil
		}
	}
	return nil, &UnreachableSinkError{Net: net, Pin: sink, Reason: "every leaf clock buffer is unavailable"}
}
