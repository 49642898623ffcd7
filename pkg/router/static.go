package router

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/design"
	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/device"
)

// RouteStaticNet routes the given sinks of one GND or VCC net.
//
// Each sink not yet reached by the net is searched backward, one hop level at
// a time, until it meets the net's existing tree, a tie-off of the net's
// constant, or an idle LUT able to drive the constant. Unavailable nodes are
// never entered and route-throughs the filter rejects are pruned during the
// search. A LUT only becomes a new source when no tree node or tie-off is
// found within cfg.SourcePenalty further levels.
//
// The first unreachable sink aborts the call with an *UnreachableSinkError;
// paths committed for earlier sinks are kept.
//
// Parameters:
//   - sinks: pins of a single constant net (output pins are ignored)
//   - oracle: node status as seen by this net
//   - d: the design owning the net
//   - filter: route-through legality (nil allows every route-through)
//   - cfg: router configuration (nil uses DefaultConfig())
func RouteStaticNet(sinks []*design.SitePinInst, oracle Oracle, d *design.Design, filter *RouteThruFilter, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	net, err := staticNetOf(sinks)
	if err != nil || net == nil {
		return err
	}
	if net.Design() != d {
		return fmt.Errorf("router: net %s does not belong to design %s", net.Name, d.Name)
	}

	start := time.Now()
	defer func() {
		routeDuration.WithLabelValues(routerStatic).Observe(time.Since(start).Seconds())
	}()

	r := &staticRouter{
		net:    net,
		design: d,
		oracle: oracle,
		filter: filter,
		cfg:    cfg,
		log:    cfg.Logger.With("net", net.Name, "type", net.Type.String()),
	}
	r.dropOrphans()
	r.tree = design.Reachable(net)

	err = r.route(sinks)
	design.UpdatePinsIsRouted(net)
	if err != nil {
		recordFailure(routerStatic, err)
		return err
	}
	r.log.Info("static net routed",
		"sinks", r.routed,
		"sources_created", r.created,
		"pips", r.pips,
		"elapsed", time.Since(start))
	return nil
}

func staticNetOf(sinks []*design.SitePinInst) (*design.Net, error) {
	var net *design.Net
	for _, p := range sinks {
		switch {
		case p.Net() == nil:
			return nil, fmt.Errorf("router: %s is not attached to a net", p)
		case net == nil:
			net = p.Net()
		case p.Net() != net:
			return nil, fmt.Errorf("router: sinks span nets %s and %s", net.Name, p.Net().Name)
		}
	}
	if net != nil && !net.Type.IsStatic() {
		return nil, fmt.Errorf("router: net %s is %s, not GND or VCC", net.Name, net.Type)
	}
	return net, nil
}

type staticRouter struct {
	net    *design.Net
	design *design.Design
	oracle Oracle
	filter *RouteThruFilter
	cfg    *Config
	log    *slog.Logger
	tree   map[*device.Node]bool

	routed, created, pips int
}

// dropOrphans removes PIPs that no source or tie-off drives.
func (r *staticRouter) dropOrphans() {
	reach := design.Reachable(r.net)
	pips := r.net.PIPs()
	kept := make([]*device.PIP, 0, len(pips))
	for _, p := range pips {
		if reach[p.Start] {
			kept = append(kept, p)
		}
	}
	if dropped := len(pips) - len(kept); dropped > 0 {
		r.net.SetPIPs(kept)
		r.log.Debug("dropped orphan PIPs", "count", dropped)
	}
}

func (r *staticRouter) route(sinks []*design.SitePinInst) error {
	for _, sink := range sinks {
		if sink.Out {
			continue
		}
		node := sink.Node()
		if node == nil {
			return &UnreachableSinkError{Net: r.net, Pin: sink, Reason: "pin is not bound to a site"}
		}
		if r.tree[node] {
			sink.Routed = true
			continue
		}
		path, source, err := r.search(sink, node)
		if err != nil {
			return err
		}
		if err := r.commit(path, source); err != nil {
			return err
		}
		sink.Routed = true
		r.routed++
		sinksRouted.WithLabelValues(routerStatic).Inc()
	}
	return nil
}

// search walks uphill from node and returns the PIPs from the chosen
// terminal down to node, plus the terminal when it is a new source.
func (r *staticRouter) search(sink *design.SitePinInst, node *device.Node) ([]*device.PIP, *device.Node, error) {
	via := map[*device.Node]*device.PIP{node: nil}
	frontier := []*device.Node{node}
	var candidate *device.Node
	candidateLevel := 0
	budget := r.cfg.MaxSearchNodes

search:
	for level := 1; len(frontier) > 0; level++ {
		if candidate != nil && level > candidateLevel+r.cfg.SourcePenalty {
			break
		}
		var next []*device.Node
		for _, cur := range frontier {
			for _, p := range cur.Uphill() {
				up := p.Start
				if _, seen := via[up]; seen {
					continue
				}
				if !r.filter.Allows(r.net, p) {
					continue
				}
				inTree := r.tree[up]
				if !inTree && r.oracle(up) == Unavailable {
					continue
				}
				via[up] = p
				if inTree || design.IsTieOff(up, r.net.Type) {
					return tracePath(up, via), nil, nil
				}
				if up.Type == device.NodeTieVCC || up.Type == device.NodeTieGND {
					continue
				}
				if candidate == nil && r.canSource(up) {
					candidate, candidateLevel = up, level
				}
				next = append(next, up)
				if budget > 0 && len(via) > budget {
					break search
				}
			}
		}
		frontier = next
	}
	if candidate != nil {
		return tracePath(candidate, via), candidate, nil
	}
	return nil, nil, &UnreachableSinkError{Net: r.net, Pin: sink, Reason: "no source, tie-off or idle LUT within reach"}
}

func tracePath(from *device.Node, via map[*device.Node]*device.PIP) []*device.PIP {
	var path []*device.PIP
	for cur := from; ; {
		p := via[cur]
		if p == nil {
			return path
		}
		path = append(path, p)
		cur = p.End
	}
}

// canSource reports whether node is the output of a LUT that is free to be
// tied to the net's constant.
func (r *staticRouter) canSource(node *device.Node) bool {
	sp := node.SitePin()
	if sp == nil || !sp.IsOutput() {
		return false
	}
	bel, ok := sp.Site.ConstantDriver(sp.Name)
	if !ok {
		return false
	}
	si := r.design.SiteInst(sp.Site.Name)
	if si == nil {
		return true
	}
	if si.Cell(bel.Name) != nil || si.RouteThru(bel.Name) != nil {
		return false
	}
	if t, ok := si.StaticSource(bel.Name); ok && t != r.net.Type {
		return false
	}
	if pin := si.SitePinInst(sp.Name); pin != nil && pin.Net() != nil && pin.Net() != r.net {
		return false
	}
	return true
}

// commit verifies and selects path, turning source on first when set.
func (r *staticRouter) commit(path []*device.PIP, source *device.Node) error {
	for _, p := range path {
		if !r.filter.Allows(r.net, p) {
			return &IllegalRouteThruError{Net: r.net, PIP: p}
		}
	}
	if source != nil {
		if err := r.createSource(source); err != nil {
			return err
		}
	}
	for _, p := range path {
		if r.net.AddPIP(p) {
			r.pips++
			pipsCommitted.WithLabelValues(routerStatic).Inc()
		}
		if r.filter != nil {
			if err := r.filter.commit(r.net, p); err != nil {
				return err
			}
		}
		r.tree[p.Start] = true
		r.tree[p.End] = true
	}
	return nil
}

func (r *staticRouter) createSource(node *device.Node) error {
	sp := node.SitePin()
	bel, _ := sp.Site.ConstantDriver(sp.Name)
	pin, err := r.net.CreatePin(sp.Site.Name, sp.Name, true)
	if err != nil {
		return fmt.Errorf("router: create source %s: %w", sp, err)
	}
	pin.SiteInst().SetStaticSource(bel.Name, r.net.Type)
	pin.Routed = true
	r.tree[node] = true
	r.created++
	sourcesCreated.WithLabelValues(r.net.Type.String()).Inc()
	r.log.Debug("created constant source", "pin", pin.String(), "bel", bel.Name)
	return nil
}
