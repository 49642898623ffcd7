package design

import (
	"fmt"
	"sort"
	"strings"

	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/device"
)

// Names of the implicit constant nets every design owns.
const (
	GndNetName = "GLOBAL_LOGIC0"
	VccNetName = "GLOBAL_LOGIC1"
)

// Design is a placed design on one device.
type Design struct {
	Name   string
	Device *device.Device

	nets      map[string]*Net
	netOrder  []*Net
	siteInsts map[string]*SiteInst
	cells     map[string]*Cell
	cellOrder []*Cell
}

// New creates an empty design with its GND and VCC nets.
func New(name string, dev *device.Device) *Design {
	d := &Design{
		Name:      name,
		Device:    dev,
		nets:      make(map[string]*Net),
		siteInsts: make(map[string]*SiteInst),
		cells:     make(map[string]*Cell),
	}
	d.mustNet(GndNetName, NetGND)
	d.mustNet(VccNetName, NetVCC)
	return d
}

func (d *Design) mustNet(name string, typ NetType) {
	if _, err := d.CreateNet(name, typ); err != nil {
		panic(err)
	}
}

// CreateNet adds a net. Static types other than the implicit nets are rejected.
func (d *Design) CreateNet(name string, typ NetType) (*Net, error) {
	if _, dup := d.nets[name]; dup {
		return nil, fmt.Errorf("design: duplicate net %s", name)
	}
	if typ.IsStatic() && d.StaticNet(typ) != nil {
		return nil, fmt.Errorf("design: %s already has a %s net", d.Name, typ)
	}
	n := &Net{Name: name, Type: typ, design: d}
	d.nets[name] = n
	d.netOrder = append(d.netOrder, n)
	return n, nil
}

// Net returns the named net, or nil.
func (d *Design) Net(name string) *Net {
	return d.nets[name]
}

// Nets returns every net in creation order.
func (d *Design) Nets() []*Net {
	return d.netOrder
}

// GndNet returns the design's logic-0 net.
func (d *Design) GndNet() *Net {
	return d.nets[GndNetName]
}

// VccNet returns the design's logic-1 net.
func (d *Design) VccNet() *Net {
	return d.nets[VccNetName]
}

// StaticNet returns the constant net of the given type, or nil.
func (d *Design) StaticNet(t NetType) *Net {
	for _, n := range d.netOrder {
		if n.Type == t && t.IsStatic() {
			return n
		}
	}
	return nil
}

// CreateSiteInst instantiates a device site.
func (d *Design) CreateSiteInst(siteName string) (*SiteInst, error) {
	if si, ok := d.siteInsts[siteName]; ok {
		return si, nil
	}
	site := d.Device.Site(siteName)
	if site == nil {
		return nil, fmt.Errorf("design: device %s has no site %s", d.Device.Name, siteName)
	}
	si := &SiteInst{
		Site:          site,
		design:        d,
		cells:         make(map[string]*Cell),
		pins:          make(map[string]*SitePinInst),
		staticSources: make(map[string]NetType),
		routeThrus:    make(map[string]*Net),
	}
	d.siteInsts[siteName] = si
	return si, nil
}

// SiteInst returns the instance of the named site, or nil if nothing uses it.
func (d *Design) SiteInst(siteName string) *SiteInst {
	return d.siteInsts[siteName]
}

// SiteInsts returns all site instances sorted by site name.
func (d *Design) SiteInsts() []*SiteInst {
	out := make([]*SiteInst, 0, len(d.siteInsts))
	for _, si := range d.siteInsts {
		out = append(out, si)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Site.Name < out[j].Site.Name })
	return out
}

// PlaceCell creates a cell on site/bel.
func (d *Design) PlaceCell(name, typ, siteName, bel string) (*Cell, error) {
	if _, dup := d.cells[name]; dup {
		return nil, fmt.Errorf("design: duplicate cell %s", name)
	}
	si, err := d.CreateSiteInst(siteName)
	if err != nil {
		return nil, err
	}
	if _, ok := si.Site.BEL(bel); !ok {
		return nil, fmt.Errorf("design: site %s has no BEL %s", siteName, bel)
	}
	if !si.BELFree(bel) {
		return nil, fmt.Errorf("design: BEL %s/%s is occupied", siteName, bel)
	}
	c := &Cell{
		Name:     name,
		Type:     typ,
		BEL:      bel,
		siteInst: si,
		pinMap:   make(map[string][]string),
		ties:     make(map[string]NetType),
	}
	si.cells[bel] = c
	d.cells[name] = c
	d.cellOrder = append(d.cellOrder, c)
	return c, nil
}

// Cell returns the named cell, or nil.
func (d *Design) Cell(name string) *Cell {
	return d.cells[name]
}

// Cells returns all cells in placement order.
func (d *Design) Cells() []*Cell {
	return d.cellOrder
}

// Unroute drops the routing of every net and releases route-through BELs.
// Constant sources created by earlier routing keep their pins.
func (d *Design) Unroute() {
	for _, n := range d.netOrder {
		n.Unroute()
	}
	for _, si := range d.siteInsts {
		clear(si.routeThrus)
	}
}

// SiteInst is a used site together with everything consuming its BELs.
type SiteInst struct {
	Site *device.Site

	design        *Design
	cells         map[string]*Cell
	pins          map[string]*SitePinInst
	staticSources map[string]NetType
	routeThrus    map[string]*Net
}

// Cell returns the cell placed on bel, or nil.
func (si *SiteInst) Cell(bel string) *Cell {
	return si.cells[bel]
}

// CellOnPin returns the cell mapping the physical pin and the logical pin it
// maps it to. Cells are searched in BEL order.
func (si *SiteInst) CellOnPin(physical string) (*Cell, string) {
	for _, b := range si.Site.BELs() {
		c := si.cells[b.Name]
		if c == nil {
			continue
		}
		for _, l := range c.logical {
			for _, p := range c.pinMap[l] {
				if p == physical {
					return c, l
				}
			}
		}
	}
	return nil, ""
}

// SitePinInst returns the named pin instance, or nil.
func (si *SiteInst) SitePinInst(name string) *SitePinInst {
	return si.pins[name]
}

// StaticSource reports which constant bel has been turned into, if any.
func (si *SiteInst) StaticSource(bel string) (NetType, bool) {
	t, ok := si.staticSources[bel]
	return t, ok
}

// SetStaticSource records that bel now ties its output to a constant.
func (si *SiteInst) SetStaticSource(bel string, t NetType) {
	si.staticSources[bel] = t
}

// RouteThru returns the net borrowing bel as a wire, or nil.
func (si *SiteInst) RouteThru(bel string) *Net {
	return si.routeThrus[bel]
}

// SetRouteThru records that net uses bel as a route-through.
func (si *SiteInst) SetRouteThru(bel string, net *Net) {
	si.routeThrus[bel] = net
}

// BELFree reports whether nothing places on, sources from, or routes through bel.
func (si *SiteInst) BELFree(bel string) bool {
	if si.cells[bel] != nil || si.routeThrus[bel] != nil {
		return false
	}
	_, src := si.staticSources[bel]
	return !src
}

func (si *SiteInst) pin(name string, out bool) (*SitePinInst, error) {
	sp := si.Site.Pin(name)
	if sp == nil {
		return nil, fmt.Errorf("design: site %s has no pin %s", si.Site.Name, name)
	}
	if sp.IsOutput() != out {
		return nil, fmt.Errorf("design: pin %s.%s direction is %s", si.Site.Name, name, sp.Dir)
	}
	if p, ok := si.pins[name]; ok {
		return p, nil
	}
	p := &SitePinInst{Name: name, Out: out, siteInst: si}
	si.pins[name] = p
	return p, nil
}

// Cell is a placed primitive.
type Cell struct {
	Name string
	Type string
	BEL  string

	siteInst *SiteInst
	pinMap   map[string][]string
	logical  []string
	ties     map[string]NetType
	tieOrder []string
	inverted []string
}

// SiteInst returns the site instance the cell is placed on.
func (c *Cell) SiteInst() *SiteInst {
	return c.siteInst
}

// AddPinMapping maps a physical site pin to a logical cell pin. A logical pin
// may map to several physical pins.
func (c *Cell) AddPinMapping(physical, logical string) {
	if _, ok := c.pinMap[logical]; !ok {
		c.logical = append(c.logical, logical)
	}
	for _, p := range c.pinMap[logical] {
		if p == physical {
			return
		}
	}
	c.pinMap[logical] = append(c.pinMap[logical], physical)
}

// PhysicalPins returns the physical pins mapped to logical, in mapping order.
func (c *Cell) PhysicalPins(logical string) []string {
	return c.pinMap[logical]
}

// LogicalPins returns the mapped logical pins in mapping order.
func (c *Cell) LogicalPins() []string {
	return c.logical
}

// Tie ties a logical pin to a constant.
func (c *Cell) Tie(logical string, t NetType) error {
	if !t.IsStatic() {
		return fmt.Errorf("design: cannot tie %s.%s to %s", c.Name, logical, t)
	}
	if _, ok := c.ties[logical]; !ok {
		c.tieOrder = append(c.tieOrder, logical)
	}
	c.ties[logical] = t
	return nil
}

// TiedPins returns the logical pins tied to t.
func (c *Cell) TiedPins(t NetType) []string {
	var out []string
	for _, l := range c.tieOrder {
		if c.ties[l] == t {
			out = append(out, l)
		}
	}
	return out
}

// IsLUT reports whether the cell is a LUT placed on a LUT BEL. Its equation
// can absorb an inverted input.
func (c *Cell) IsLUT() bool {
	if !strings.HasPrefix(c.Type, "LUT") {
		return false
	}
	b, ok := c.siteInst.Site.BEL(c.BEL)
	return ok && b.Kind == device.BELLUT
}

// InvertInput flips the constant a tied LUT input is tied to and records that
// the cell equation now sees the input inverted. Inverting twice restores the
// original sense.
func (c *Cell) InvertInput(logical string) error {
	if !c.IsLUT() {
		return fmt.Errorf("design: cell %s (%s) cannot absorb an inverted input", c.Name, c.Type)
	}
	t, ok := c.ties[logical]
	if !ok {
		return fmt.Errorf("design: %s.%s is not tied", c.Name, logical)
	}
	if t == NetGND {
		c.ties[logical] = NetVCC
	} else {
		c.ties[logical] = NetGND
	}
	for i, l := range c.inverted {
		if l == logical {
			c.inverted = append(c.inverted[:i], c.inverted[i+1:]...)
			return nil
		}
	}
	c.inverted = append(c.inverted, logical)
	return nil
}

// InvertedPins returns the logical inputs whose sense has been inverted.
func (c *Cell) InvertedPins() []string {
	return c.inverted
}
