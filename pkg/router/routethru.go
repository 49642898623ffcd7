package router

import (
	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/design"
	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/device"
)

// RouteThruFilter answers route-through legality from the design's current
// placement. It holds no state of its own, so placement changes are visible
// on the next query.
type RouteThruFilter struct {
	design *design.Design
}

// NewRouteThruFilter binds a filter to d.
func NewRouteThruFilter(d *design.Design) *RouteThruFilter {
	return &RouteThruFilter{design: d}
}

// IsRouteThru reports whether moving from one node to the next passes
// through a site BEL.
func (f *RouteThruFilter) IsRouteThru(from, to *device.Node) bool {
	p := f.design.Device.PIP(from, to)
	return p != nil && p.IsRouteThru()
}

// Allows reports whether net may select p. Ordinary PIPs are always allowed.
// A route-through is illegal when its BEL holds a cell, already drives a
// constant, or carries another net.
func (f *RouteThruFilter) Allows(net *design.Net, p *device.PIP) bool {
	if f == nil || !p.IsRouteThru() {
		return true
	}
	si := f.design.SiteInst(p.RouteThru.Site.Name)
	if si == nil {
		return true
	}
	if si.Cell(p.RouteThru.BEL) != nil {
		return false
	}
	if _, src := si.StaticSource(p.RouteThru.BEL); src {
		return false
	}
	if owner := si.RouteThru(p.RouteThru.BEL); owner != nil && owner != net {
		return false
	}
	// The BEL's output pin must not already serve as some other net's source.
	if out := si.SitePinInst(outputOf(p)); out != nil && out.Net() != nil && out.Net() != net {
		return false
	}
	return true
}

// commit marks the BEL of a selected route-through as used by net.
func (f *RouteThruFilter) commit(net *design.Net, p *device.PIP) error {
	if !p.IsRouteThru() {
		return nil
	}
	si, err := f.design.CreateSiteInst(p.RouteThru.Site.Name)
	if err != nil {
		return err
	}
	si.SetRouteThru(p.RouteThru.BEL, net)
	return nil
}

func outputOf(p *device.PIP) string {
	if sp := p.End.SitePin(); sp != nil {
		return sp.Name
	}
	return ""
}
