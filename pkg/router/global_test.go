package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/design"
	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/device"
)

func globalDesign(t *testing.T) *design.Design {
	t.Helper()
	dev := synthDevice(t, nil)
	d := design.New("global", dev)
	tieSlices(t, d, 4, 4)
	placeTiedLUT(t, d, sliceName(6, 6), "CLUT", []string{"C1", "C2"}, design.NetVCC)

	clk := newClockNet(t, d, "clk", "BUFGCE_X0Y0")
	for _, site := range []string{sliceName(0, 0), sliceName(2, 3), sliceName(5, 1)} {
		_, err := clk.CreatePin(site, "CLK", false)
		require.NoError(t, err)
	}
	return d
}

func TestRouteGlobalNets(t *testing.T) {
	d := globalDesign(t)
	occ := NewOccupancy()

	progress := make(chan Progress, 64)
	var phases []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			if len(phases) == 0 || phases[len(phases)-1] != p.Phase {
				phases = append(phases, p.Phase)
			}
		}
	}()
	sum, err := RouteGlobalNets(d, occ, nil, progress)
	close(progress)
	<-done
	require.NoError(t, err)

	assert.Equal(t, []string{"claim", "clock", "static", "done"}, phases)
	assert.Equal(t, 1, sum.ClockNets)
	assert.Equal(t, 2, sum.StaticNets)
	assert.Zero(t, sum.Failed)
	assert.Positive(t, sum.SourcesCreated)
	assert.Positive(t, sum.PIPs)

	for _, n := range []*design.Net{d.Net("clk"), d.GndNet(), d.VccNet()} {
		assert.Zero(t, design.UpdatePinsIsRouted(n), n.Name)
		assert.NoError(t, design.CheckForest(n), n.Name)
		for node := range netNodeSet(n) {
			assert.Equal(t, n, occ.Owner(node), "node %s", node)
		}
	}
	assert.Len(t, d.GndNet().Sinks(), 48)
	assert.Len(t, d.VccNet().Sinks(), 2)
	assert.Empty(t, d.VccNet().Sources(), "VCC is fed by tie-offs")
}

func TestRouteGlobalNetsContinueOnError(t *testing.T) {
	d := globalDesign(t)
	// A second clock whose only sink lies on a pin no table entry covers.
	clk2 := newClockNet(t, d, "clk2", "BUFGCE_X1Y1")
	_, err := clk2.CreatePin("RAMB36_X1Y3", "RSTRAMARSTRAML", false)
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.LCBs = DefaultLCBTable().Clone()
	cfg.LCBs.Remove("RAMB36", "RSTRAMARSTRAML")

	t.Run("fail fast", func(t *testing.T) {
		sum, err := RouteGlobalNets(d, NewOccupancy(), cfg, nil)
		require.ErrorIs(t, err, ErrMappingNotFound)
		assert.Equal(t, 1, sum.Failed)
		assert.Zero(t, sum.StaticNets)
		assert.False(t, d.GndNet().HasPIPs())
	})

	t.Run("continue", func(t *testing.T) {
		cfg.ContinueOnError = true
		sum, err := RouteGlobalNets(d, NewOccupancy(), cfg, nil)
		require.ErrorIs(t, err, ErrMappingNotFound)
		assert.Equal(t, 1, sum.Failed)
		assert.Equal(t, 2, sum.StaticNets)
		assert.Zero(t, design.UpdatePinsIsRouted(d.GndNet()))
		assert.False(t, clk2.HasPIPs())
	})
}

func TestRouteGlobalNetsClaimsExistingRouting(t *testing.T) {
	d := globalDesign(t)
	dev := d.Device
	sig, err := d.CreateNet("data", design.NetSignal)
	require.NoError(t, err)
	blocked := []*device.Node{dev.Node("INT_X0Y0/INODE_0"), dev.Node("INT_X0Y0/INODE_1")}
	sig.AddPIP(dev.PIP(blocked[0], blocked[1]))

	occ := NewOccupancy()
	_, err = RouteGlobalNets(d, occ, nil, nil)
	require.NoError(t, err)
	for _, n := range blocked {
		assert.Equal(t, sig, occ.Owner(n))
	}
	gnd := netNodeSet(d.GndNet())
	for _, n := range blocked {
		assert.False(t, gnd[n], "GND routed over %s owned by data", n)
	}
}

// Nodes a net stops using while it is routed must not stay claimed.
func TestRouteGlobalNetsReleasesDroppedPIPs(t *testing.T) {
	d := globalDesign(t)
	dev := d.Device
	orphan := dev.PIP(dev.Node("INT_X6Y7/INODE_0"), dev.Node("INT_X6Y7/EE1_0"))
	require.NotNil(t, orphan)
	d.GndNet().AddPIP(orphan)

	occ := NewOccupancy()
	_, err := RouteGlobalNets(d, occ, nil, nil)
	require.NoError(t, err)

	assert.False(t, d.GndNet().HasPIP(orphan), "orphan dropped from GND")
	vcc := occ.Oracle(d.VccNet())
	for _, node := range []*device.Node{orphan.Start, orphan.End} {
		assert.Nil(t, occ.Owner(node), "%s still claimed", node)
		assert.Equal(t, Available, vcc(node), "%s", node)
	}
	for node := range netNodeSet(d.GndNet()) {
		assert.Equal(t, d.GndNet(), occ.Owner(node), "node %s", node)
	}
}

func TestRouteGlobalNetsInvertGndToVcc(t *testing.T) {
	plain := globalDesign(t)
	base, err := RouteGlobalNets(plain, NewOccupancy(), nil, nil)
	require.NoError(t, err)
	require.Positive(t, len(plain.GndNet().Sources()))

	d := globalDesign(t)
	cfg := DefaultConfig()
	cfg.InvertGndToVcc = true
	sum, err := RouteGlobalNets(d, NewOccupancy(), cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, 48, sum.Inverted)
	assert.Less(t, len(d.GndNet().Sources()), len(plain.GndNet().Sources()))
	assert.Less(t, sum.SourcesCreated, base.SourcesCreated)
	assert.Empty(t, d.GndNet().Sinks())
	assert.Len(t, d.VccNet().Sinks(), 50)
	assert.Empty(t, d.VccNet().Sources(), "VCC is fed by tie-offs")
	assert.Zero(t, design.UpdatePinsIsRouted(d.VccNet()))
	assert.Equal(t, 1, sum.StaticNets, "GND has nothing left to route")

	lut := d.Cell(sliceName(0, 0) + "/ALUT")
	assert.Equal(t, []string{"I0", "I1"}, lut.InvertedPins())
	assert.Empty(t, lut.TiedPins(design.NetGND))
	assert.Equal(t, []string{"I0", "I1"}, lut.TiedPins(design.NetVCC))
}
