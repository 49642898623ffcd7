package design

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/device"
)

// NetType classifies a net.
type NetType uint8

const (
	NetSignal NetType = iota
	NetClock
	NetGND
	NetVCC
)

var netTypeNames = []string{"SIGNAL", "CLOCK", "GND", "VCC"}

func (t NetType) String() string {
	if int(t) < len(netTypeNames) {
		return netTypeNames[t]
	}
	return fmt.Sprintf("NetType(%d)", uint8(t))
}

// ParseNetType is the inverse of NetType.String (case-insensitive).
func ParseNetType(s string) (NetType, error) {
	for i, name := range netTypeNames {
		if strings.EqualFold(name, s) {
			return NetType(i), nil
		}
	}
	return 0, fmt.Errorf("design: unknown net type %q", s)
}

// IsStatic reports whether the net carries a constant.
func (t NetType) IsStatic() bool {
	return t == NetGND || t == NetVCC
}

// SitePinInst is a pin of a placed site attached to a net.
type SitePinInst struct {
	Name   string
	Out    bool
	Routed bool

	siteInst *SiteInst
	net      *Net
}

// SiteInst returns the owning site instance, or nil once detached.
func (p *SitePinInst) SiteInst() *SiteInst {
	return p.siteInst
}

// Net returns the net the pin is attached to, or nil.
func (p *SitePinInst) Net() *Net {
	return p.net
}

// SiteName returns the name of the site the pin belongs to.
func (p *SitePinInst) SiteName() string {
	if p.siteInst == nil {
		return ""
	}
	return p.siteInst.Site.Name
}

// Node returns the routing node the pin terminates at.
func (p *SitePinInst) Node() *device.Node {
	if p.siteInst == nil {
		return nil
	}
	sp := p.siteInst.Site.Pin(p.Name)
	if sp == nil {
		return nil
	}
	return sp.Node
}

// String formats the pin as "IN SITE.PIN" or "OUT SITE.PIN".
func (p *SitePinInst) String() string {
	dir := "IN"
	if p.Out {
		dir = "OUT"
	}
	return dir + " " + p.SiteName() + "." + p.Name
}

// DetachSiteInst unbinds the pin from its site instance.
func (p *SitePinInst) DetachSiteInst() {
	if p.siteInst != nil {
		delete(p.siteInst.pins, p.Name)
		p.siteInst = nil
	}
	p.Routed = false
}

// Net is a named signal with its physical pins and selected PIPs.
type Net struct {
	Name string
	Type NetType

	design *Design
	pins   []*SitePinInst
	pips   []*device.PIP
	pipSet map[*device.PIP]struct{}
}

// Design returns the owning design.
func (n *Net) Design() *Design {
	return n.design
}

// Pins returns the pins in insertion order. The slice must not be modified.
func (n *Net) Pins() []*SitePinInst {
	return n.pins
}

// Source returns the first output pin, or nil.
func (n *Net) Source() *SitePinInst {
	for _, p := range n.pins {
		if p.Out {
			return p
		}
	}
	return nil
}

// Sources returns every output pin.
func (n *Net) Sources() []*SitePinInst {
	var out []*SitePinInst
	for _, p := range n.pins {
		if p.Out {
			out = append(out, p)
		}
	}
	return out
}

// Sinks returns every input pin in insertion order.
func (n *Net) Sinks() []*SitePinInst {
	var out []*SitePinInst
	for _, p := range n.pins {
		if !p.Out {
			out = append(out, p)
		}
	}
	return out
}

// AddPin attaches p to the net, detaching it from any previous net.
func (n *Net) AddPin(p *SitePinInst) {
	if p.net == n {
		return
	}
	if p.net != nil {
		p.net.RemovePin(p)
	}
	p.net = n
	n.pins = append(n.pins, p)
}

// RemovePin detaches p from the net. It reports whether p was attached.
func (n *Net) RemovePin(p *SitePinInst) bool {
	for i, q := range n.pins {
		if q == p {
			n.pins = append(n.pins[:i], n.pins[i+1:]...)
			p.net = nil
			p.Routed = false
			return true
		}
	}
	return false
}

// CreatePin creates (or reuses) the named pin on a placed site and attaches it.
func (n *Net) CreatePin(siteName, pin string, out bool) (*SitePinInst, error) {
	si := n.design.SiteInst(siteName)
	if si == nil {
		var err error
		if si, err = n.design.CreateSiteInst(siteName); err != nil {
			return nil, err
		}
	}
	p, err := si.pin(pin, out)
	if err != nil {
		return nil, err
	}
	if p.net != nil && p.net != n {
		return nil, fmt.Errorf("design: %s already on net %s", p, p.net.Name)
	}
	n.AddPin(p)
	return p, nil
}

// Connect attaches every physical pin the cell maps to logicalPin. Logical pins
// spanning several physical pins (split upper/lower halves) yield all of them.
func (n *Net) Connect(cell *Cell, logicalPin string) ([]*SitePinInst, error) {
	if cell.siteInst == nil {
		return nil, fmt.Errorf("design: cell %s is not placed", cell.Name)
	}
	phys := cell.PhysicalPins(logicalPin)
	if len(phys) == 0 {
		phys = []string{logicalPin}
	}
	out := make([]*SitePinInst, 0, len(phys))
	for _, name := range phys {
		sp := cell.siteInst.Site.Pin(name)
		if sp == nil {
			return out, fmt.Errorf("design: site %s has no pin %s for %s.%s", cell.siteInst.Site.Name, name, cell.Name, logicalPin)
		}
		p, err := n.CreatePin(cell.siteInst.Site.Name, name, sp.IsOutput())
		if err != nil {
			return out, err
		}
		out = append(out, p)
	}
	return out, nil
}

// PIPs returns the selected PIPs in selection order. The slice must not be modified.
func (n *Net) PIPs() []*device.PIP {
	return n.pips
}

// HasPIPs reports whether any PIP is selected.
func (n *Net) HasPIPs() bool {
	return len(n.pips) > 0
}

// HasPIP reports whether p is selected.
func (n *Net) HasPIP(p *device.PIP) bool {
	_, ok := n.pipSet[p]
	return ok
}

// AddPIP selects p; it reports false when p was already selected.
func (n *Net) AddPIP(p *device.PIP) bool {
	if n.pipSet == nil {
		n.pipSet = make(map[*device.PIP]struct{})
	}
	if _, ok := n.pipSet[p]; ok {
		return false
	}
	n.pipSet[p] = struct{}{}
	n.pips = append(n.pips, p)
	return true
}

// SetPIPs replaces the PIP selection.
func (n *Net) SetPIPs(pips []*device.PIP) {
	n.pips = nil
	n.pipSet = nil
	for _, p := range pips {
		n.AddPIP(p)
	}
}

// Unroute drops every PIP and clears the routed flag on all pins.
func (n *Net) Unroute() {
	n.SetPIPs(nil)
	for _, p := range n.pins {
		p.Routed = false
	}
}

func (n *Net) String() string {
	return n.Name
}
