package device

import (
	"errors"
	"fmt"
)

// Builder assembles a Device. A Device cannot be modified once Build returns.
type Builder struct {
	dev  *Device
	errs []error
	done bool
}

// NewBuilder starts a new device with the given part name.
func NewBuilder(name string) *Builder {
	return &Builder{
		dev: &Device{
			Name:   name,
			byName: make(map[string]*Node),
			siteBy: make(map[string]*Site),
		},
	}
}

// AddNode creates a node. Clock fabric nodes should pass their track index,
// every other node -1.
func (b *Builder) AddNode(tile, wire string, typ NodeType, region Region, track int) *Node {
	n := &Node{
		ID:     len(b.dev.nodes),
		Tile:   tile,
		Wire:   wire,
		Type:   typ,
		Region: region,
		Track:  track,
	}
	if _, dup := b.dev.byName[n.Name()]; dup {
		b.errs = append(b.errs, fmt.Errorf("device: duplicate node %s", n.Name()))
		return b.dev.byName[n.Name()]
	}
	b.dev.nodes = append(b.dev.nodes, n)
	b.dev.byName[n.Name()] = n
	b.grow(region)
	return n
}

// AddPIP connects from -> to.
func (b *Builder) AddPIP(from, to *Node) *PIP {
	return b.addPIP(from, to, nil)
}

// AddRouteThruPIP connects from -> to through the given BEL of site.
func (b *Builder) AddRouteThruPIP(from, to *Node, site *Site, bel string) *PIP {
	if site == nil {
		b.errs = append(b.errs, fmt.Errorf("device: route-thru %s->>%s has no site", from, to))
		return nil
	}
	return b.addPIP(from, to, &RouteThru{Site: site, BEL: bel})
}

func (b *Builder) addPIP(from, to *Node, rt *RouteThru) *PIP {
	if from == nil || to == nil {
		b.errs = append(b.errs, errors.New("device: PIP with nil endpoint"))
		return nil
	}
	if from == to {
		b.errs = append(b.errs, fmt.Errorf("device: self-loop PIP on %s", from))
		return nil
	}
	p := &PIP{Start: from, End: to, RouteThru: rt}
	from.downhill = append(from.downhill, p)
	to.uphill = append(to.uphill, p)
	b.dev.pips++
	return p
}

// AddSite creates an empty site.
func (b *Builder) AddSite(name, typ, tile string, region Region) *Site {
	if s, dup := b.dev.siteBy[name]; dup {
		b.errs = append(b.errs, fmt.Errorf("device: duplicate site %s", name))
		return s
	}
	s := &Site{
		Name:   name,
		Type:   typ,
		Tile:   tile,
		Region: region,
		byName: make(map[string]*SitePin),
	}
	b.dev.sites = append(b.dev.sites, s)
	b.dev.siteBy[name] = s
	b.grow(region)
	return s
}

// AddSitePin binds a site pin to a node. A node may terminate at one site pin only.
func (b *Builder) AddSitePin(site *Site, name string, dir PinDir, node *Node) *SitePin {
	if site == nil || node == nil {
		b.errs = append(b.errs, fmt.Errorf("device: site pin %s missing site or node", name))
		return nil
	}
	if node.sitePin != nil {
		b.errs = append(b.errs, fmt.Errorf("device: node %s already bound to %s", node, node.sitePin))
		return nil
	}
	if _, dup := site.byName[name]; dup {
		b.errs = append(b.errs, fmt.Errorf("device: duplicate pin %s.%s", site.Name, name))
		return nil
	}
	p := &SitePin{Site: site, Name: name, Dir: dir, Node: node}
	node.sitePin = p
	site.pins = append(site.pins, p)
	site.byName[name] = p
	return p
}

// AddBEL declares a basic element inside a site.
func (b *Builder) AddBEL(site *Site, bel BEL) {
	if site == nil {
		b.errs = append(b.errs, fmt.Errorf("device: BEL %s has no site", bel.Name))
		return
	}
	if _, dup := site.BEL(bel.Name); dup {
		b.errs = append(b.errs, fmt.Errorf("device: duplicate BEL %s/%s", site.Name, bel.Name))
		return
	}
	site.bels = append(site.bels, bel)
}

// Node looks up a node added earlier.
func (b *Builder) Node(name string) *Node {
	return b.dev.byName[name]
}

// Site looks up a site added earlier.
func (b *Builder) Site(name string) *Site {
	return b.dev.siteBy[name]
}

// Build validates and returns the device.
func (b *Builder) Build() (*Device, error) {
	if b.done {
		return nil, errors.New("device: builder already used")
	}
	for _, s := range b.dev.sites {
		for _, bel := range s.bels {
			if bel.Output != "" && s.byName[bel.Output] == nil {
				b.errs = append(b.errs, fmt.Errorf("device: BEL %s/%s drives unknown pin %s", s.Name, bel.Name, bel.Output))
			}
		}
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	b.done = true
	return b.dev, nil
}

func (b *Builder) grow(r Region) {
	if r.X+1 > b.dev.cols {
		b.dev.cols = r.X + 1
	}
	if r.Y+1 > b.dev.rows {
		b.dev.rows = r.Y + 1
	}
}
