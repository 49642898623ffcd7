package design

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/device"
)

var testDevice *device.Device

func synth(t *testing.T) *device.Device {
	t.Helper()
	if testDevice == nil {
		dev, err := device.Synthesize(device.DefaultSynthParams())
		require.NoError(t, err)
		testDevice = dev
	}
	return testDevice
}

func TestNewDesignHasStaticNets(t *testing.T) {
	d := New("top", synth(t))
	require.NotNil(t, d.GndNet())
	require.NotNil(t, d.VccNet())
	assert.Equal(t, NetGND, d.GndNet().Type)
	assert.Equal(t, d.VccNet(), d.StaticNet(NetVCC))
	assert.Nil(t, d.StaticNet(NetSignal))

	_, err := d.CreateNet("my_gnd", NetGND)
	assert.ErrorContains(t, err, "already has a GND net")
	_, err = d.CreateNet(GndNetName, NetSignal)
	assert.ErrorContains(t, err, "duplicate net")

	n, err := d.CreateNet("data", NetSignal)
	require.NoError(t, err)
	assert.Equal(t, []*Net{d.GndNet(), d.VccNet(), n}, d.Nets())
}

func TestParseNetType(t *testing.T) {
	for _, typ := range []NetType{NetSignal, NetClock, NetGND, NetVCC} {
		got, err := ParseNetType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	got, err := ParseNetType("vcc")
	require.NoError(t, err)
	assert.Equal(t, NetVCC, got)
	_, err = ParseNetType("power")
	assert.Error(t, err)
	assert.Equal(t, "NetType(9)", NetType(9).String())
}

func TestPlaceCell(t *testing.T) {
	d := New("top", synth(t))
	c, err := d.PlaceCell("lut", "LUT2", "SLICE_X0Y0", "ALUT")
	require.NoError(t, err)
	assert.Equal(t, c, d.SiteInst("SLICE_X0Y0").Cell("ALUT"))
	assert.False(t, c.SiteInst().BELFree("ALUT"))
	assert.True(t, c.SiteInst().BELFree("BLUT"))

	_, err = d.PlaceCell("lut", "LUT2", "SLICE_X0Y0", "BLUT")
	assert.ErrorContains(t, err, "duplicate cell")
	_, err = d.PlaceCell("lut2", "LUT2", "SLICE_X0Y0", "ALUT")
	assert.ErrorContains(t, err, "occupied")
	_, err = d.PlaceCell("lut3", "LUT2", "SLICE_X0Y0", "ZLUT")
	assert.ErrorContains(t, err, "has no BEL ZLUT")
	_, err = d.PlaceCell("lut4", "LUT2", "SLICE_X99Y99", "ALUT")
	assert.ErrorContains(t, err, "has no site")
	assert.Equal(t, []*Cell{c}, d.Cells())
}

func TestCellPinsAndTies(t *testing.T) {
	d := New("top", synth(t))
	c, err := d.PlaceCell("lut", "LUT2", "SLICE_X0Y0", "ALUT")
	require.NoError(t, err)
	c.AddPinMapping("A1", "I0")
	c.AddPinMapping("A2", "I1")
	c.AddPinMapping("A1", "I0")
	assert.Equal(t, []string{"I0", "I1"}, c.LogicalPins())
	assert.Equal(t, []string{"A1"}, c.PhysicalPins("I0"))

	require.NoError(t, c.Tie("I0", NetGND))
	require.NoError(t, c.Tie("I1", NetVCC))
	assert.ErrorContains(t, c.Tie("I1", NetClock), "cannot tie")
	assert.Equal(t, []string{"I0"}, c.TiedPins(NetGND))
	assert.Equal(t, []string{"I1"}, c.TiedPins(NetVCC))
}

func TestCreatePin(t *testing.T) {
	d := New("top", synth(t))
	n, err := d.CreateNet("data", NetSignal)
	require.NoError(t, err)

	src, err := n.CreatePin("SLICE_X0Y0", "A_O", true)
	require.NoError(t, err)
	sink, err := n.CreatePin("SLICE_X0Y0", "B1", false)
	require.NoError(t, err)
	assert.Equal(t, "OUT SLICE_X0Y0.A_O", src.String())
	assert.Equal(t, "IN SLICE_X0Y0.B1", sink.String())
	assert.Equal(t, src, n.Source())
	assert.Equal(t, []*SitePinInst{sink}, n.Sinks())
	assert.Equal(t, synth(t).Node("INT_X0Y0/IMUX_2"), sink.Node())

	again, err := n.CreatePin("SLICE_X0Y0", "B1", false)
	require.NoError(t, err)
	assert.Same(t, sink, again)
	assert.Len(t, n.Pins(), 2)

	_, err = n.CreatePin("SLICE_X0Y0", "A_O", false)
	assert.ErrorContains(t, err, "direction is out")
	_, err = n.CreatePin("SLICE_X0Y0", "Q9", false)
	assert.ErrorContains(t, err, "has no pin Q9")

	other, err := d.CreateNet("other", NetSignal)
	require.NoError(t, err)
	_, err = other.CreatePin("SLICE_X0Y0", "B1", false)
	assert.ErrorContains(t, err, "already on net data")

	other.AddPin(sink)
	assert.Equal(t, other, sink.Net())
	assert.Len(t, n.Pins(), 1, "AddPin moves the pin between nets")
	assert.True(t, other.RemovePin(sink))
	assert.False(t, other.RemovePin(sink))
	assert.Nil(t, sink.Net())
}

// A logical pin that spans both halves of a split site must attach every
// physical pin behind it.
func TestConnectAttachesAllPhysicalPins(t *testing.T) {
	d := New("top", synth(t))
	clk, err := d.CreateNet("clk", NetClock)
	require.NoError(t, err)

	buf, err := d.PlaceCell("bufg", "BUFGCE", "BUFGCE_X0Y0", "BUFCE")
	require.NoError(t, err)
	buf.AddPinMapping("O", "O")
	ram, err := d.PlaceCell("ram", "RAMB36E2", "RAMB36_X0Y0", "RAMB36E2")
	require.NoError(t, err)
	lo, up := device.RAMB36Halves("CLKBWRCLK")
	ram.AddPinMapping(lo, "CLKBWRCLK")
	ram.AddPinMapping(up, "CLKBWRCLK")

	pins, err := clk.Connect(buf, "O")
	require.NoError(t, err)
	require.Len(t, pins, 1)
	assert.True(t, pins[0].Out)

	pins, err = clk.Connect(ram, "CLKBWRCLK")
	require.NoError(t, err)
	require.Len(t, pins, 2)
	assert.Equal(t, "CLKBWRCLKL", pins[0].Name)
	assert.Equal(t, "CLKBWRCLKU", pins[1].Name)

	assert.Len(t, clk.Pins(), 3)
	assert.Len(t, clk.Sinks(), 2)
}

func TestConnectFallsBackToLogicalName(t *testing.T) {
	d := New("top", synth(t))
	n, err := d.CreateNet("rst", NetSignal)
	require.NoError(t, err)
	ram, err := d.PlaceCell("ram", "RAMB36E2", "RAMB36_X0Y0", "RAMB36E2")
	require.NoError(t, err)

	_, err = n.Connect(ram, "RSTRAMB")
	assert.ErrorContains(t, err, "has no pin RSTRAMB")

	pins, err := n.Connect(ram, "RSTRAMBL")
	require.NoError(t, err)
	assert.Len(t, pins, 1)
}

func TestDetachSiteInst(t *testing.T) {
	d := New("top", synth(t))
	gnd := d.GndNet()
	p, err := gnd.CreatePin("SLICE_X2Y2", "A_O", true)
	require.NoError(t, err)
	si := p.SiteInst()
	p.Routed = true

	p.DetachSiteInst()
	assert.Nil(t, p.SiteInst())
	assert.Nil(t, p.Node())
	assert.Empty(t, p.SiteName())
	assert.False(t, p.Routed)
	assert.Nil(t, si.SitePinInst("A_O"))
	assert.Equal(t, gnd, p.Net(), "detaching keeps the net binding")
}

func TestUnroute(t *testing.T) {
	dev := synth(t)
	d := New("top", dev)
	n, err := d.CreateNet("data", NetSignal)
	require.NoError(t, err)
	src, err := n.CreatePin("SLICE_X0Y0", "A_O", true)
	require.NoError(t, err)
	p := dev.PIP(dev.Node("CLE_X0Y0/A_O"), dev.Node("INT_X0Y0/INODE_0"))
	require.NotNil(t, p)
	assert.True(t, n.AddPIP(p))
	assert.False(t, n.AddPIP(p))
	assert.True(t, n.HasPIP(p))
	src.Routed = true
	si := d.SiteInst("SLICE_X1Y1")
	if si == nil {
		si, err = d.CreateSiteInst("SLICE_X1Y1")
		require.NoError(t, err)
	}
	si.SetRouteThru("ALUT", n)
	assert.False(t, si.BELFree("ALUT"))

	d.Unroute()
	assert.False(t, n.HasPIPs())
	assert.False(t, n.HasPIP(p))
	assert.False(t, src.Routed)
	assert.Nil(t, si.RouteThru("ALUT"))
	assert.True(t, si.BELFree("ALUT"))
}

func TestInvertInput(t *testing.T) {
	d := New("top", synth(t))
	lut, err := d.PlaceCell("lut", "LUT2", "SLICE_X0Y0", "ALUT")
	require.NoError(t, err)
	lut.AddPinMapping("A1", "I0")
	lut.AddPinMapping("A2", "I1")
	require.NoError(t, lut.Tie("I0", NetGND))
	require.True(t, lut.IsLUT())

	require.NoError(t, lut.InvertInput("I0"))
	assert.Equal(t, []string{"I0"}, lut.TiedPins(NetVCC))
	assert.Equal(t, []string{"I0"}, lut.InvertedPins())
	require.NoError(t, lut.InvertInput("I0"))
	assert.Equal(t, []string{"I0"}, lut.TiedPins(NetGND))
	assert.Empty(t, lut.InvertedPins())

	assert.ErrorContains(t, lut.InvertInput("I1"), "is not tied")

	ram, err := d.PlaceCell("ram", "RAMB36E2", "RAMB36_X0Y0", "RAMB36E2")
	require.NoError(t, err)
	ram.AddPinMapping("RSTRAMBL", "RSTRAMB")
	require.NoError(t, ram.Tie("RSTRAMB", NetGND))
	assert.False(t, ram.IsLUT())
	assert.ErrorContains(t, ram.InvertInput("RSTRAMB"), "cannot absorb")

	c, logical := lut.SiteInst().CellOnPin("A2")
	assert.Same(t, lut, c)
	assert.Equal(t, "I1", logical)
	c, _ = lut.SiteInst().CellOnPin("B1")
	assert.Nil(t, c)
}
