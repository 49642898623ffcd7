package router

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/design"
	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/device"
)

func synthDevice(t testing.TB, mutate func(*device.SynthParams)) *device.Device {
	t.Helper()
	p := device.DefaultSynthParams()
	if mutate != nil {
		mutate(&p)
	}
	dev, err := device.Synthesize(p)
	require.NoError(t, err)
	return dev
}

func sliceName(x, y int) string {
	return fmt.Sprintf("SLICE_X%dY%d", x, y)
}

// placeTiedLUT places a LUT cell whose inputs are tied to constant nt.
func placeTiedLUT(t testing.TB, d *design.Design, site, bel string, pins []string, nt design.NetType) *design.Cell {
	t.Helper()
	c, err := d.PlaceCell(site+"/"+bel, "LUT2", site, bel)
	require.NoError(t, err)
	for i, p := range pins {
		logical := fmt.Sprintf("I%d", i)
		c.AddPinMapping(p, logical)
		require.NoError(t, c.Tie(logical, nt))
	}
	return c
}

// tieSlices puts a GND-tied ALUT (A1, A2) and BLUT (B1) in every slice of a
// cols x rows window, giving three GND sinks per slice.
func tieSlices(t testing.TB, d *design.Design, cols, rows int) {
	t.Helper()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			placeTiedLUT(t, d, sliceName(x, y), "ALUT", []string{"A1", "A2"}, design.NetGND)
			placeTiedLUT(t, d, sliceName(x, y), "BLUT", []string{"B1"}, design.NetGND)
		}
	}
}

// unavailableNodes returns the PIP endpoints oracle rejects.
func unavailableNodes(n *design.Net, oracle Oracle) []string {
	var bad []string
	for _, p := range n.PIPs() {
		for _, node := range []*device.Node{p.Start, p.End} {
			if oracle(node) == Unavailable {
				bad = append(bad, node.Name())
			}
		}
	}
	return bad
}

// netNodeSet returns every node a net's PIPs touch.
func netNodeSet(n *design.Net) map[*device.Node]bool {
	set := make(map[*device.Node]bool)
	for _, p := range n.PIPs() {
		set[p.Start] = true
		set[p.End] = true
	}
	return set
}

// pathToSource follows the unique drivers from sink back to a root.
func pathToSource(n *design.Net, sink *design.SitePinInst) []*device.Node {
	driver := make(map[*device.Node]*device.PIP)
	for _, p := range n.PIPs() {
		driver[p.End] = p
	}
	var path []*device.Node
	for cur := sink.Node(); cur != nil; {
		path = append(path, cur)
		p := driver[cur]
		if p == nil {
			break
		}
		cur = p.Start
	}
	return path
}
