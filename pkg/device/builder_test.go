package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderBasic(t *testing.T) {
	b := NewBuilder("tiny")
	a := b.AddNode("INT_X0Y0", "A", NodeWire, Region{}, -1)
	c := b.AddNode("INT_X0Y0", "C", NodeSitePin, Region{}, -1)
	o := b.AddNode("CLE_X0Y0", "O", NodeSitePin, Region{X: 1, Y: 2}, -1)
	site := b.AddSite("SLICE_X0Y0", "SLICEL", "CLE_X0Y0", Region{})
	b.AddSitePin(site, "I", PinInput, c)
	b.AddSitePin(site, "O", PinOutput, o)
	b.AddBEL(site, BEL{Name: "LUT", Kind: BELLUT, Output: "O"})
	b.AddPIP(a, c)
	b.AddRouteThruPIP(c, o, site, "LUT")

	dev, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 3, dev.NodeCount())
	assert.Equal(t, 2, dev.PIPCount())
	cols, rows := dev.RegionGrid()
	assert.Equal(t, []int{2, 3}, []int{cols, rows}, "region grid")
	assert.Same(t, a, dev.Node("INT_X0Y0/A"))

	p := dev.PIP(a, c)
	require.NotNil(t, p)
	assert.False(t, p.IsRouteThru())
	assert.Equal(t, "INT_X0Y0/A->>INT_X0Y0/C", p.String())

	rt := dev.PIP(c, o)
	require.NotNil(t, rt)
	require.True(t, rt.IsRouteThru())
	assert.Equal(t, "LUT", rt.RouteThru.BEL)
	assert.Nil(t, dev.PIP(o, c), "PIPs are directed")

	assert.Same(t, o, dev.SitePinNode("SLICE_X0Y0", "O"))
	require.NotNil(t, o.SitePin())
	assert.True(t, o.SitePin().IsOutput())
	assert.Equal(t, "SLICE_X0Y0.O", o.SitePin().String())

	bel, ok := dev.Site("SLICE_X0Y0").ConstantDriver("O")
	require.True(t, ok)
	assert.Equal(t, "LUT", bel.Name)
	_, ok = dev.Site("SLICE_X0Y0").ConstantDriver("I")
	assert.False(t, ok, "input pin has no constant driver")

	_, err = b.Build()
	assert.Error(t, err, "second Build should fail")
}

func TestBuilderErrors(t *testing.T) {
	b := NewBuilder("bad")
	a := b.AddNode("T", "A", NodeWire, Region{}, -1)
	b.AddNode("T", "A", NodeWire, Region{}, -1)
	b.AddPIP(a, a)
	b.AddPIP(a, nil)
	site := b.AddSite("S", "SLICEL", "T", Region{})
	b.AddSitePin(site, "P", PinInput, a)
	b.AddSitePin(site, "Q", PinInput, a)
	b.AddBEL(site, BEL{Name: "LUT", Kind: BELLUT, Output: "MISSING"})

	_, err := b.Build()
	require.Error(t, err)
	for _, want := range []string{
		"duplicate node T/A",
		"self-loop PIP on T/A",
		"PIP with nil endpoint",
		"already bound to S.P",
		"drives unknown pin MISSING",
	} {
		assert.ErrorContains(t, err, want)
	}
}

func TestParseNames(t *testing.T) {
	for _, typ := range []NodeType{NodeWire, NodeSitePin, NodeTieVCC, NodeTieGND, NodeGlobalClock, NodeClockRoute, NodeClockDistrV, NodeClockDistrH, NodeLeafClock} {
		got, err := ParseNodeType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	_, err := ParseNodeType("bogus")
	assert.Error(t, err)
	for _, k := range []BELKind{BELLUT, BELFF, BELRAM, BELBUFG} {
		got, err := ParseBELKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	assert.True(t, NodeClockRoute.IsClock())
	assert.False(t, NodeWire.IsClock())
}
