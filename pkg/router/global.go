package router

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/design"
	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/device"
)

// Progress reports the state of a RouteGlobalNets run.
type Progress struct {
	Phase string // "claim", "clock", "static", "done"
	Net   string // net being routed
	Index int    // 0-based index of the net within its phase
	Total int    // nets in the phase
}

// Summary describes a finished RouteGlobalNets run.
type Summary struct {
	ClockNets      int
	StaticNets     int
	Failed         int
	SourcesCreated int
	Inverted       int // GND sinks moved to VCC
	PIPs           int
}

// Combine returns an Oracle reporting the most restrictive status of all
// given oracles.
func Combine(oracles ...Oracle) Oracle {
	return func(n *device.Node) NodeStatus {
		s := Available
		for _, o := range oracles {
			if st := o(n); st > s {
				s = st
			}
		}
		return s
	}
}

// RouteGlobalNets routes every clock net and then the GND and VCC nets of d,
// one net at a time, claiming each result in occ so later nets avoid it.
// Existing routing is claimed first. Missing constant sinks are created from
// cell ties before the static nets are routed, and with cfg.InvertGndToVcc
// GND sinks on LUT inputs are moved to VCC. After each net is routed its
// claim is rebuilt, so nodes the router dropped become free again.
//
// With cfg.ContinueOnError the remaining nets are still routed after a
// failure and all errors are returned joined; otherwise the first error
// stops the run.
//
// progress may be nil. Sends are blocking, so the caller must drain it.
func RouteGlobalNets(d *design.Design, occ *Occupancy, cfg *Config, progress chan<- Progress) (*Summary, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if occ == nil {
		occ = NewOccupancy()
	}
	report := func(p Progress) {
		if progress != nil {
			progress <- p
		}
	}

	var clocks, statics []*design.Net
	for _, n := range d.Nets() {
		switch {
		case n.Type == design.NetClock:
			clocks = append(clocks, n)
		case n.Type.IsStatic():
			statics = append(statics, n)
		}
	}

	for i, n := range d.Nets() {
		report(Progress{Phase: "claim", Net: n.Name, Index: i, Total: len(d.Nets())})
		if !n.HasPIPs() {
			continue
		}
		if err := occ.Claim(n); err != nil {
			return nil, err
		}
	}

	sum := &Summary{}
	var errs []error
	fail := func(err error) bool {
		sum.Failed++
		errs = append(errs, err)
		return !cfg.ContinueOnError
	}

	for i, n := range clocks {
		report(Progress{Phase: "clock", Net: n.Name, Index: i, Total: len(clocks)})
		before := len(n.PIPs())
		oracle := Combine(occ.Oracle(n), PinOracle(d, n.Type))
		if err := SymmetricClkRouting(n, d.Device, oracle, cfg); err != nil {
			if fail(err) {
				return sum, errors.Join(errs...)
			}
			continue
		}
		if err := reclaim(occ, n); err != nil {
			return sum, err
		}
		sum.ClockNets++
		sum.PIPs += len(n.PIPs()) - before
	}

	if cfg.InvertGndToVcc {
		gnd := d.GndNet()
		if _, err := design.CreateMissingSitePinInsts(gnd); err != nil {
			return sum, fmt.Errorf("router: %s: %w", gnd.Name, err)
		}
		moved, err := InvertGndPinsToVcc(d, gnd.Sinks())
		if err != nil {
			return sum, err
		}
		sum.Inverted = len(moved)
		cfg.Logger.Debug("inverted GND sinks to VCC", "pins", len(moved))
	}

	filter := NewRouteThruFilter(d)
	for i, n := range statics {
		report(Progress{Phase: "static", Net: n.Name, Index: i, Total: len(statics)})
		if _, err := design.CreateMissingSitePinInsts(n); err != nil {
			if fail(fmt.Errorf("router: %s: %w", n.Name, err)) {
				return sum, errors.Join(errs...)
			}
			continue
		}
		sinks := n.Sinks()
		if len(sinks) == 0 {
			continue
		}
		pips, sources := len(n.PIPs()), len(n.Sources())
		oracle := Combine(occ.Oracle(n), PinOracle(d, n.Type))
		if err := RouteStaticNet(sinks, oracle, d, filter, cfg); err != nil {
			if fail(err) {
				return sum, errors.Join(errs...)
			}
			continue
		}
		if err := reclaim(occ, n); err != nil {
			return sum, err
		}
		sum.StaticNets++
		sum.PIPs += len(n.PIPs()) - pips
		sum.SourcesCreated += len(n.Sources()) - sources
	}

	report(Progress{Phase: "done", Total: len(clocks) + len(statics)})
	cfg.Logger.Info("global routing finished",
		"clock_nets", sum.ClockNets,
		"static_nets", sum.StaticNets,
		"failed", sum.Failed,
		"sources_created", sum.SourcesCreated,
		"inverted", sum.Inverted,
		"pips", sum.PIPs)
	return sum, errors.Join(errs...)
}

// reclaim replaces the claim of n with the nodes its PIPs use now.
func reclaim(occ *Occupancy, n *design.Net) error {
	occ.Release(n)
	return occ.Claim(n)
}
