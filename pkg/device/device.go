package device

import (
	"fmt"
	"sort"
	"strings"
)

// NodeType classifies a routing node by the role it plays in the fabric.
type NodeType uint8

const (
	// NodeWire is general interconnect (switchbox locals, single/double hops).
	NodeWire NodeType = iota
	// NodeSitePin is a node that terminates at a site pin.
	NodeSitePin
	// NodeTieVCC is a switchbox tie-off permanently driving logic 1.
	NodeTieVCC
	// NodeTieGND is a switchbox tie-off permanently driving logic 0.
	NodeTieGND
	// NodeGlobalClock is the output of a global clock buffer.
	NodeGlobalClock
	// NodeClockRoute is a clock routing track crossing clock regions.
	NodeClockRoute
	// NodeClockDistrV is a vertical clock distribution (spine) track.
	NodeClockDistrV
	// NodeClockDistrH is a horizontal clock distribution track.
	NodeClockDistrH
	// NodeLeafClock is a leaf clock buffer (LCB) output.
	NodeLeafClock
)

var nodeTypeNames = map[NodeType]string{
	NodeWire:        "wire",
	NodeSitePin:     "site_pin",
	NodeTieVCC:      "tie_vcc",
	NodeTieGND:      "tie_gnd",
	NodeGlobalClock: "global_clock",
	NodeClockRoute:  "clock_route",
	NodeClockDistrV: "clock_vdistr",
	NodeClockDistrH: "clock_hdistr",
	NodeLeafClock:   "leaf_clock",
}

func (t NodeType) String() string {
	if s, ok := nodeTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("NodeType(%d)", uint8(t))
}

// ParseNodeType is the inverse of NodeType.String.
func ParseNodeType(s string) (NodeType, error) {
	for t, name := range nodeTypeNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("device: unknown node type %q", s)
}

// IsClock reports whether the node belongs to the dedicated clock fabric.
func (t NodeType) IsClock() bool {
	switch t {
	case NodeGlobalClock, NodeClockRoute, NodeClockDistrV, NodeClockDistrH, NodeLeafClock:
		return true
	}
	return false
}

// Region identifies a clock region by its grid coordinates.
type Region struct {
	X, Y int
}

func (r Region) String() string {
	return fmt.Sprintf("X%dY%d", r.X, r.Y)
}

// Node is a routing graph vertex: a set of electrically joined wire segments.
type Node struct {
	ID     int
	Tile   string
	Wire   string
	Type   NodeType
	Region Region
	Track  int // clock track index, -1 outside the clock fabric

	sitePin  *SitePin
	uphill   []*PIP
	downhill []*PIP
}

// Name returns the canonical "TILE/WIRE" node name.
func (n *Node) Name() string {
	return n.Tile + "/" + n.Wire
}

func (n *Node) String() string {
	return n.Name()
}

// SitePin returns the site pin this node terminates at, or nil.
func (n *Node) SitePin() *SitePin {
	return n.sitePin
}

// Uphill returns the PIPs driving this node.
func (n *Node) Uphill() []*PIP {
	return n.uphill
}

// Downhill returns the PIPs this node can drive.
func (n *Node) Downhill() []*PIP {
	return n.downhill
}

// RouteThru describes a PIP that is realised through a site's internal logic.
type RouteThru struct {
	Site *Site
	BEL  string
}

// PIP is a directed programmable connection from Start to End.
type PIP struct {
	Start     *Node
	End       *Node
	RouteThru *RouteThru
}

// IsRouteThru reports whether selecting the PIP borrows a site BEL.
func (p *PIP) IsRouteThru() bool {
	return p.RouteThru != nil
}

func (p *PIP) String() string {
	return p.Start.Name() + "->>" + p.End.Name()
}

// PinDir is the direction of a site pin relative to its site.
type PinDir uint8

const (
	PinInput PinDir = iota
	PinOutput
)

func (d PinDir) String() string {
	if d == PinOutput {
		return "out"
	}
	return "in"
}

// SitePin is a physical pin of a site bound to exactly one routing node.
type SitePin struct {
	Site *Site
	Name string
	Dir  PinDir
	Node *Node
}

func (p *SitePin) String() string {
	return p.Site.Name + "." + p.Name
}

// IsOutput reports whether the pin drives out of the site.
func (p *SitePin) IsOutput() bool {
	return p.Dir == PinOutput
}

// BELKind classifies basic elements inside a site.
type BELKind uint8

const (
	BELLUT BELKind = iota
	BELFF
	BELRAM
	BELBUFG
)

var belKindNames = map[BELKind]string{
	BELLUT:  "lut",
	BELFF:   "ff",
	BELRAM:  "ram",
	BELBUFG: "bufg",
}

func (k BELKind) String() string {
	if s, ok := belKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("BELKind(%d)", uint8(k))
}

// ParseBELKind is the inverse of BELKind.String.
func ParseBELKind(s string) (BELKind, error) {
	for k, name := range belKindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("device: unknown BEL kind %q", s)
}

// BEL is a basic element of a site. Output names the site pin a LUT BEL can
// drive directly; it is empty for BELs without such a pin.
type BEL struct {
	Name   string
	Kind   BELKind
	Output string
}

// Site is a placeable primitive location.
type Site struct {
	Name   string
	Type   string
	Tile   string
	Region Region

	pins   []*SitePin
	byName map[string]*SitePin
	bels   []BEL
}

// Pins returns the site pins in declaration order.
func (s *Site) Pins() []*SitePin {
	return s.pins
}

// Pin returns the named site pin or nil.
func (s *Site) Pin(name string) *SitePin {
	return s.byName[name]
}

// BELs returns the site's basic elements in declaration order.
func (s *Site) BELs() []BEL {
	return s.bels
}

// BEL returns the named BEL.
func (s *Site) BEL(name string) (BEL, bool) {
	for _, b := range s.bels {
		if b.Name == name {
			return b, true
		}
	}
	return BEL{}, false
}

// ConstantDriver returns the LUT BEL able to drive the given output pin.
func (s *Site) ConstantDriver(pin string) (BEL, bool) {
	for _, b := range s.bels {
		if b.Kind == BELLUT && b.Output == pin {
			return b, true
		}
	}
	return BEL{}, false
}

// IsClockBuffer reports whether the site hosts a global clock buffer.
func (s *Site) IsClockBuffer() bool {
	for _, b := range s.bels {
		if b.Kind == BELBUFG {
			return true
		}
	}
	return false
}

// Device is the immutable routing graph of one part.
type Device struct {
	Name string

	nodes  []*Node
	byName map[string]*Node
	pips   int
	sites  []*Site
	siteBy map[string]*Site
	cols   int
	rows   int
}

// Node returns the node with the given "TILE/WIRE" name, or nil.
func (d *Device) Node(name string) *Node {
	return d.byName[name]
}

// Nodes returns every node ordered by ID.
func (d *Device) Nodes() []*Node {
	return d.nodes
}

// NodeCount returns the number of nodes.
func (d *Device) NodeCount() int {
	return len(d.nodes)
}

// PIPCount returns the number of PIPs.
func (d *Device) PIPCount() int {
	return d.pips
}

// Site returns the named site, or nil.
func (d *Device) Site(name string) *Site {
	return d.siteBy[name]
}

// Sites returns all sites in declaration order.
func (d *Device) Sites() []*Site {
	return d.sites
}

// SitesOfType returns the sites of the given type sorted by name.
func (d *Device) SitesOfType(typ string) []*Site {
	var out []*Site
	for _, s := range d.sites {
		if s.Type == typ {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RegionGrid returns the clock region grid size.
func (d *Device) RegionGrid() (cols, rows int) {
	return d.cols, d.rows
}

// PIP returns the PIP from -> to, or nil if the fabric has no such switch.
func (d *Device) PIP(from, to *Node) *PIP {
	if from == nil || to == nil {
		return nil
	}
	// Uphill lists are usually shorter than downhill fan-out.
	for _, p := range to.uphill {
		if p.Start == from {
			return p
		}
	}
	return nil
}

// SitePinNode returns the node of site.pin, or nil.
func (d *Device) SitePinNode(site, pin string) *Node {
	s := d.siteBy[site]
	if s == nil {
		return nil
	}
	p := s.byName[pin]
	if p == nil {
		return nil
	}
	return p.Node
}

// Downhill returns the first node driven by n that matches typ, region and track.
func (d *Device) Downhill(n *Node, typ NodeType, region Region, track int) *Node {
	for _, p := range n.downhill {
		e := p.End
		if e.Type == typ && e.Region == region && e.Track == track {
			return e
		}
	}
	return nil
}
