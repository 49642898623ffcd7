// Package router selects PIPs for the global nets of a placed design: clock
// nets, which must follow the dedicated clock fabric, and the constant GND and
// VCC nets, which fan out to tens of thousands of scattered sink pins.
//
// # Overview
//
// Both routers mutate a design.Net in place and never touch any other net.
// What the rest of the design already occupies is supplied by an Oracle, a
// function classifying each node as Available, InUse (already carries this
// net or its constant) or Unavailable. Routers consult it for every candidate
// and keep no status of their own between calls.
//
//   - RouteStaticNet grows one shared tree per constant net. Each sink is
//     searched backward to the nearest tree node, tie-off or idle LUT; a LUT
//     only becomes a new source when nothing already driving the constant is
//     within Config.SourcePenalty further hops.
//   - SymmetricClkRouting resolves each sink to its leaf clock buffer through
//     an LCBTable, then builds one trunk on a single clock track to the
//     sink-weighted centroid region and fans out along the distribution
//     spine. Sinks sharing a buffer get identical one-PIP branches.
//   - RouteGlobalNets runs both over a whole design, sequencing nets through
//     a caller-owned Occupancy table. With Config.InvertGndToVcc it first
//     moves GND sinks on LUT inputs to VCC (InvertGndPinsToVcc), where
//     tie-offs feed them without creating sources.
//
// # Usage
//
//	occ := router.NewOccupancy()
//	cfg := router.DefaultConfig()
//	cfg.Logger = logger
//
//	progressCh := make(chan router.Progress)
//	go func() {
//		for p := range progressCh {
//			logger.Debug("routing", "phase", p.Phase, "net", p.Net)
//		}
//	}()
//	sum, err := router.RouteGlobalNets(d, occ, cfg, progressCh)
//	close(progressCh)
//
// Single nets can be routed directly:
//
//	filter := router.NewRouteThruFilter(d)
//	gnd := d.GndNet()
//	err := router.RouteStaticNet(gnd.Sinks(), router.PinOracle(d, design.NetGND), d, filter, nil)
//
// # Route-throughs
//
// A PIP through a LUT uses the LUT as a wire. RouteThruFilter derives its
// legality from the design's current placement on every query: the LUT must
// host no cell, drive no constant and carry no other net. Committed
// route-throughs are recorded on the SiteInst, so later queries see them.
//
// # Errors
//
// Failures are typed and matchable with errors.As or, through the sentinels,
// errors.Is:
//
//   - *MappingNotFoundError (ErrMappingNotFound): a clock sink pin has no
//     LCBTable entry. The clock net is left untouched.
//   - *UnreachableSinkError (ErrUnreachableSink): no legal path exists.
//     Static paths committed before the failure are kept.
//   - *IllegalRouteThruError (ErrIllegalRouteThru): a path about to be
//     committed crosses a route-through the filter rejects.
package router
