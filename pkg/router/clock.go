package router

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/design"
	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/device"
)

// SymmetricClkRouting routes a clock net from its buffer to every sink through
// the dedicated clock fabric.
//
// Every sink is first resolved to its leaf clock buffer (LCB); a sink pin
// missing from the LCB table aborts the call with a *MappingNotFoundError
// before the net is touched. The trunk then runs on a single clock track:
// ROUTE tracks from the buffer to the centroid clock region, the VDISTR spine
// across the rows that hold LCBs, and HDISTR across each row's columns. Every
// LCB hangs off the HDISTR of its own region and drives its sinks with one PIP
// each, so sinks sharing an LCB get identical branches. A track with any
// unavailable node is abandoned for the next one. Nothing is committed
// unless every sink is reached.
func SymmetricClkRouting(net *design.Net, dev *device.Device, oracle Oracle, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	start := time.Now()
	defer func() {
		routeDuration.WithLabelValues(routerClock).Observe(time.Since(start).Seconds())
	}()

	c := &clockRouter{
		net:    net,
		dev:    dev,
		oracle: oracle,
		lcbs:   cfg.LCBs,
		log:    cfg.Logger.With("net", net.Name),
	}
	err := c.route()
	if err != nil {
		recordFailure(routerClock, err)
		return err
	}
	if c.planned > 0 {
		c.log.Info("clock net routed",
			"sinks", len(c.sinks),
			"track", c.track,
			"centroid", c.centroid.String(),
			"pips", c.planned,
			"elapsed", time.Since(start))
	}
	return nil
}

type clockRouter struct {
	net    *design.Net
	dev    *device.Device
	oracle Oracle
	lcbs   *LCBTable
	log    *slog.Logger

	source   *device.Node
	sinks    []*design.SitePinInst
	lcbOf    map[*design.SitePinInst]*device.Node
	lcbOrder []*device.Node
	centroid device.Region
	track    int
	planned  int
}

func (c *clockRouter) route() error {
	src := c.net.Source()
	if src == nil || src.SiteInst() == nil {
		return fmt.Errorf("router: clock net %s has no source pin", c.net.Name)
	}
	if !src.SiteInst().Site.IsClockBuffer() {
		return fmt.Errorf("router: clock net %s is driven by %s, not a clock buffer", c.net.Name, src)
	}
	c.source = src.Node()
	c.sinks = c.net.Sinks()
	if len(c.sinks) == 0 {
		return nil
	}
	if design.UpdatePinsIsRouted(c.net) == 0 {
		return nil
	}

	// Resolve every LCB before any mutation.
	c.lcbOf = make(map[*design.SitePinInst]*device.Node, len(c.sinks))
	uses := make(map[*device.Node]int)
	for _, sink := range c.sinks {
		lcb, err := c.lcbs.resolveLCB(c.net, sink, c.oracle, uses)
		if err != nil {
			return err
		}
		if uses[lcb] == 0 {
			c.lcbOrder = append(c.lcbOrder, lcb)
		}
		uses[lcb]++
		c.lcbOf[sink] = lcb
	}
	c.centroid = c.centroidOf(uses)

	var lastErr error
	for _, t := range c.tracks() {
		plan, err := c.planTrack(t)
		if err != nil {
			c.log.Debug("clock track rejected", "track", t, "err", err)
			lastErr = err
			continue
		}
		c.track = t
		c.commit(plan)
		return nil
	}
	if lastErr == nil {
		lastErr = &UnreachableSinkError{Net: c.net, Pin: c.sinks[0], Reason: "clock buffer drives no clock track"}
	}
	return lastErr
}

// centroidOf returns the sink-weighted mean region of the used LCBs.
func (c *clockRouter) centroidOf(uses map[*device.Node]int) device.Region {
	xs := make([]float64, len(c.lcbOrder))
	ys := make([]float64, len(c.lcbOrder))
	ws := make([]float64, len(c.lcbOrder))
	for i, lcb := range c.lcbOrder {
		xs[i] = float64(lcb.Region.X)
		ys[i] = float64(lcb.Region.Y)
		ws[i] = float64(uses[lcb])
	}
	cols, rows := c.dev.RegionGrid()
	return device.Region{
		X: clamp(int(math.Round(stat.Mean(xs, ws))), 0, cols-1),
		Y: clamp(int(math.Round(stat.Mean(ys, ws))), 0, rows-1),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if hi >= lo && v > hi {
		return hi
	}
	return v
}

// tracks returns the clock tracks the source can enter, in ascending order.
func (c *clockRouter) tracks() []int {
	seen := make(map[int]bool)
	var out []int
	for _, p := range c.source.Downhill() {
		if p.End.Type == device.NodeClockRoute && !seen[p.End.Track] {
			seen[p.End.Track] = true
			out = append(out, p.End.Track)
		}
	}
	sort.Ints(out)
	return out
}

type pipPlan struct {
	pips []*device.PIP
	set  map[*device.PIP]bool
}

func (c *clockRouter) planTrack(t int) (*pipPlan, error) {
	plan := &pipPlan{set: make(map[*device.PIP]bool)}
	fail := func(sink *design.SitePinInst, format string, args ...any) error {
		return &UnreachableSinkError{Net: c.net, Pin: sink, Reason: fmt.Sprintf("track %d: ", t) + fmt.Sprintf(format, args...)}
	}
	add := func(p *device.PIP) bool {
		if p == nil || c.oracle(p.End) == Unavailable {
			return false
		}
		if !plan.set[p] {
			plan.set[p] = true
			plan.pips = append(plan.pips, p)
		}
		return true
	}
	first := c.sinks[0]

	// Trunk: buffer output over ROUTE tracks to the centroid.
	route, path := c.routeToCentroid(t)
	if route == nil {
		return nil, fail(first, "no free ROUTE path to %s", c.centroid)
	}
	for _, p := range path {
		add(p)
	}
	spineRoot := c.dev.Downhill(route, device.NodeClockDistrV, c.centroid, t)
	if !add(c.dev.PIP(route, spineRoot)) {
		return nil, fail(first, "VDISTR unavailable in %s", c.centroid)
	}

	// Spine over the rows that hold LCBs.
	rows := make(map[int][]int) // row -> columns
	minY, maxY := c.centroid.Y, c.centroid.Y
	for _, lcb := range c.lcbOrder {
		r := lcb.Region
		rows[r.Y] = append(rows[r.Y], r.X)
		minY, maxY = min(minY, r.Y), max(maxY, r.Y)
	}
	spine := map[int]*device.Node{c.centroid.Y: spineRoot}
	for _, dir := range []int{1, -1} {
		for y := c.centroid.Y + dir; y >= minY && y <= maxY; y += dir {
			prev := spine[y-dir]
			next := c.dev.Downhill(prev, device.NodeClockDistrV, device.Region{X: c.centroid.X, Y: y}, t)
			if !add(c.dev.PIP(prev, next)) {
				return nil, fail(first, "VDISTR spine blocked at row %d", y)
			}
			spine[y] = next
		}
	}

	// Horizontal distribution per row.
	ys := make([]int, 0, len(rows))
	for y := range rows {
		ys = append(ys, y)
	}
	sort.Ints(ys)
	hdistr := make(map[device.Region]*device.Node)
	for _, y := range ys {
		cols := rows[y]
		root := c.dev.Downhill(spine[y], device.NodeClockDistrH, device.Region{X: c.centroid.X, Y: y}, t)
		if !add(c.dev.PIP(spine[y], root)) {
			return nil, fail(first, "HDISTR unavailable in row %d", y)
		}
		hdistr[device.Region{X: c.centroid.X, Y: y}] = root
		lo, hi := c.centroid.X, c.centroid.X
		for _, x := range cols {
			lo, hi = min(lo, x), max(hi, x)
		}
		for _, dir := range []int{1, -1} {
			for x := c.centroid.X + dir; x >= lo && x <= hi; x += dir {
				prev := hdistr[device.Region{X: x - dir, Y: y}]
				r := device.Region{X: x, Y: y}
				next := c.dev.Downhill(prev, device.NodeClockDistrH, r, t)
				if !add(c.dev.PIP(prev, next)) {
					return nil, fail(first, "HDISTR blocked at %s", r)
				}
				hdistr[r] = next
			}
		}
	}

	// Leaves: HDISTR -> LCB -> pin.
	for _, lcb := range c.lcbOrder {
		if !add(c.dev.PIP(hdistr[lcb.Region], lcb)) {
			return nil, fail(c.sinkOf(lcb), "%s unreachable from HDISTR%d", lcb, t)
		}
	}
	for _, sink := range c.sinks {
		lcb := c.lcbOf[sink]
		if !add(c.dev.PIP(lcb, sink.Node())) {
			return nil, fail(sink, "no PIP from %s", lcb)
		}
	}
	return plan, nil
}

// routeToCentroid finds the shortest ROUTE path on track t from the source
// into the centroid region.
func (c *clockRouter) routeToCentroid(t int) (*device.Node, []*device.PIP) {
	via := map[*device.Node]*device.PIP{c.source: nil}
	queue := []*device.Node{c.source}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.Type == device.NodeClockRoute && cur.Region == c.centroid {
			var path []*device.PIP
			for n := cur; via[n] != nil; n = via[n].Start {
				path = append(path, via[n])
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return cur, path
		}
		for _, p := range cur.Downhill() {
			next := p.End
			if next.Type != device.NodeClockRoute || next.Track != t {
				continue
			}
			if _, seen := via[next]; seen || c.oracle(next) == Unavailable {
				continue
			}
			via[next] = p
			queue = append(queue, next)
		}
	}
	return nil, nil
}

func (c *clockRouter) sinkOf(lcb *device.Node) *design.SitePinInst {
	for _, s := range c.sinks {
		if c.lcbOf[s] == lcb {
			return s
		}
	}
	return c.sinks[0]
}

func (c *clockRouter) commit(plan *pipPlan) {
	if c.net.HasPIPs() {
		// A partially routed clock is rebuilt on one track.
		c.net.Unroute()
	}
	for _, p := range plan.pips {
		if c.net.AddPIP(p) {
			c.planned++
			pipsCommitted.WithLabelValues(routerClock).Inc()
		}
	}
	for _, sink := range c.sinks {
		sink.Routed = true
	}
	sinksRouted.WithLabelValues(routerClock).Add(float64(len(c.sinks)))
	design.UpdatePinsIsRouted(c.net)
}
