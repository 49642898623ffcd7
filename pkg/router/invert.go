package router

import (
	"fmt"
	"slices"

	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/design"
)

// InvertGndPinsToVcc moves GND sinks that feed a LUT input over to the VCC
// net and inverts the input in the LUT equation, so tie-offs can feed them
// instead of a created GND source. Pins that are already routed, sit on a
// site without a LUT cell behind them, or are not on the GND net are left
// alone. It returns the pins it moved.
func InvertGndPinsToVcc(d *design.Design, pins []*design.SitePinInst) ([]*design.SitePinInst, error) {
	gnd, vcc := d.GndNet(), d.VccNet()
	var moved []*design.SitePinInst
	for _, p := range pins {
		if p.Out || p.Routed || p.Net() != gnd || p.SiteInst() == nil {
			continue
		}
		si := p.SiteInst()
		c, logical := si.CellOnPin(p.Name)
		if c == nil || !c.IsLUT() || !slices.Contains(c.TiedPins(design.NetGND), logical) {
			continue
		}
		// Every physical pin behind the input changes net together.
		var group []*design.SitePinInst
		for _, phys := range c.PhysicalPins(logical) {
			if sp := si.SitePinInst(phys); sp != nil && sp.Net() == gnd {
				group = append(group, sp)
			}
		}
		if slices.ContainsFunc(group, func(sp *design.SitePinInst) bool { return sp.Routed }) {
			continue
		}
		if err := c.InvertInput(logical); err != nil {
			return moved, fmt.Errorf("router: %s: %w", p, err)
		}
		for _, sp := range group {
			vcc.AddPin(sp)
		}
		moved = append(moved, group...)
	}
	return moved, nil
}
