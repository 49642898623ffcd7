package device

import (
	"fmt"
)

// SynthParams sizes a synthetic fabric. Synthetic devices follow the naming and
// topology conventions of an UltraScale-class part closely enough to exercise
// global routing without a vendor device database.
type SynthParams struct {
	Name        string
	Cols        int  // switchbox columns
	Rows        int  // switchbox rows
	RegionCols  int  // switchbox columns per clock region
	RegionRows  int  // switchbox rows per clock region
	Locals      int  // INODE wires per switchbox
	ClockTracks int  // clock routing/distribution tracks per region
	BRAMPeriod  int  // every BRAMPeriod-th column carries RAMB36 sites; 0 disables
	TieVCC      bool // switchboxes carry a VCC_WIRE tie-off
	TieGND      bool // switchboxes carry a GND_WIRE tie-off
}

// DefaultSynthParams returns a small two-by-two clock region part.
func DefaultSynthParams() SynthParams {
	return SynthParams{
		Name:        "xcsyn8",
		Cols:        8,
		Rows:        8,
		RegionCols:  4,
		RegionRows:  4,
		Locals:      4,
		ClockTracks: 4,
		BRAMPeriod:  4,
		TieVCC:      true,
	}
}

// Validate rejects parameter sets that cannot produce a routable fabric.
func (p SynthParams) Validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("device: synth name is empty")
	case p.Cols < 1 || p.Rows < 1:
		return fmt.Errorf("device: synth grid %dx%d is empty", p.Cols, p.Rows)
	case p.RegionCols < 1 || p.RegionRows < 1:
		return fmt.Errorf("device: synth region size %dx%d is empty", p.RegionCols, p.RegionRows)
	case p.Locals < 1:
		return fmt.Errorf("device: synth needs at least one local wire")
	case p.ClockTracks < 1:
		return fmt.Errorf("device: synth needs at least one clock track")
	case p.BRAMPeriod < 0:
		return fmt.Errorf("device: negative BRAM period")
	}
	return nil
}

// SliceLUTs lists the LUT BELs of a synthetic SLICEL with their input and output pins.
var SliceLUTs = []struct {
	BEL    string
	Inputs []string
	Output string
}{
	{"ALUT", []string{"A1", "A2"}, "A_O"},
	{"BLUT", []string{"B1", "B2"}, "B_O"},
	{"CLUT", []string{"C1", "C2"}, "C_O"},
	{"DLUT", []string{"D1", "D2"}, "D_O"},
}

// RAMB36SplitPins are the logical RAMB36 pins that split into lower and upper
// physical halves on a synthetic RAMB36 site.
var RAMB36SplitPins = []string{
	"CLKARDCLK", "CLKBWRCLK", "ENARDEN", "ENBWREN",
	"RSTRAMARSTRAM", "RSTRAMB", "ADDRENA", "ADDRENB",
}

// RAMB36Halves returns the lower and upper physical pin names of a split logical pin.
// Indexed write-enable pins like WEBWE[0] become WEBWEL0/WEBWEU0.
func RAMB36Halves(logical string) (lower, upper string) {
	var base, idx string
	for i := 0; i < len(logical); i++ {
		if logical[i] == '[' && logical[len(logical)-1] == ']' {
			base, idx = logical[:i], logical[i+1:len(logical)-1]
			return base + "L" + idx, base + "U" + idx
		}
	}
	return logical + "L", logical + "U"
}

const (
	tileINT  = "INT_X%dY%d"
	tileCLE  = "CLE_X%dY%d"
	tileBRAM = "BRAM_X%dY%d"
	tileRCLK = "RCLK_X%dY%d"
)

type synth struct {
	p SynthParams
	b *Builder
}

// Synthesize builds a regular fabric from p.
func Synthesize(p SynthParams) (*Device, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := &synth{p: p, b: NewBuilder(p.Name)}
	for y := 0; y < p.Rows; y++ {
		for x := 0; x < p.Cols; x++ {
			s.switchbox(x, y)
		}
	}
	for y := 0; y < p.Rows; y++ {
		for x := 0; x < p.Cols; x++ {
			s.hops(x, y)
			s.slice(x, y)
			s.bram(x, y)
		}
	}
	s.clockFabric()
	return s.b.Build()
}

func (s *synth) region(x, y int) Region {
	return Region{X: x / s.p.RegionCols, Y: y / s.p.RegionRows}
}

func (s *synth) node(tileFmt string, x, y int, wire string) *Node {
	return s.b.Node(fmt.Sprintf(tileFmt, x, y) + "/" + wire)
}

func (s *synth) switchbox(x, y int) {
	tile := fmt.Sprintf(tileINT, x, y)
	r := s.region(x, y)
	locals := make([]*Node, s.p.Locals)
	for l := range locals {
		locals[l] = s.b.AddNode(tile, fmt.Sprintf("INODE_%d", l), NodeWire, r, -1)
	}
	dirs := []struct {
		name string
		ok   bool
	}{
		{"EE1", x+1 < s.p.Cols},
		{"WW1", x > 0},
		{"NN1", y+1 < s.p.Rows},
		{"SS1", y > 0},
	}
	for _, d := range dirs {
		if !d.ok {
			continue
		}
		for l := range locals {
			w := s.b.AddNode(tile, fmt.Sprintf("%s_%d", d.name, l), NodeWire, r, -1)
			s.b.AddPIP(locals[l], w)
		}
	}
	for l := range locals {
		if len(locals) > 1 {
			s.b.AddPIP(locals[l], locals[(l+1)%len(locals)])
		}
	}
	var ties []*Node
	if s.p.TieVCC {
		ties = append(ties, s.b.AddNode(tile, "VCC_WIRE", NodeTieVCC, r, -1))
	}
	if s.p.TieGND {
		ties = append(ties, s.b.AddNode(tile, "GND_WIRE", NodeTieGND, r, -1))
	}
	for i := 0; i < 2*len(SliceLUTs); i++ {
		imux := s.b.AddNode(tile, fmt.Sprintf("IMUX_%d", i), NodeSitePin, r, -1)
		for _, l := range locals {
			s.b.AddPIP(l, imux)
		}
		for _, t := range ties {
			s.b.AddPIP(t, imux)
		}
	}
	if y%2 == 0 {
		for k := 0; k < 2; k++ {
			s.b.AddNode(tile, fmt.Sprintf("LEAF_CLK%d", k), NodeLeafClock, r, -1)
		}
	}
}

// hops lands each directional wire on the neighbouring switchbox.
func (s *synth) hops(x, y int) {
	steps := []struct {
		name   string
		dx, dy int
	}{
		{"EE1", 1, 0}, {"WW1", -1, 0}, {"NN1", 0, 1}, {"SS1", 0, -1},
	}
	for _, st := range steps {
		for l := 0; l < s.p.Locals; l++ {
			w := s.node(tileINT, x, y, fmt.Sprintf("%s_%d", st.name, l))
			if w == nil {
				continue
			}
			s.b.AddPIP(w, s.node(tileINT, x+st.dx, y+st.dy, fmt.Sprintf("INODE_%d", l)))
		}
	}
}

func (s *synth) slice(x, y int) {
	r := s.region(x, y)
	cle := fmt.Sprintf(tileCLE, x, y)
	site := s.b.AddSite(fmt.Sprintf("SLICE_X%dY%d", x, y), "SLICEL", cle, r)
	imux := 0
	for _, lut := range SliceLUTs {
		out := s.b.AddNode(cle, lut.Output, NodeSitePin, r, -1)
		s.b.AddSitePin(site, lut.Output, PinOutput, out)
		for l := 0; l < s.p.Locals; l++ {
			s.b.AddPIP(out, s.node(tileINT, x, y, fmt.Sprintf("INODE_%d", l)))
		}
		for _, in := range lut.Inputs {
			n := s.node(tileINT, x, y, fmt.Sprintf("IMUX_%d", imux))
			imux++
			s.b.AddSitePin(site, in, PinInput, n)
			s.b.AddRouteThruPIP(n, out, site, lut.BEL)
		}
		s.b.AddBEL(site, BEL{Name: lut.BEL, Kind: BELLUT, Output: lut.Output})
		s.b.AddBEL(site, BEL{Name: lut.BEL[:1] + "FF", Kind: BELFF})
	}
	clk := s.b.AddNode(cle, "CLK", NodeSitePin, r, -1)
	s.b.AddSitePin(site, "CLK", PinInput, clk)
	for k := 0; k < 2; k++ {
		s.b.AddPIP(s.node(tileINT, x, y-y%2, fmt.Sprintf("LEAF_CLK%d", k)), clk)
	}
}

func (s *synth) bram(x, y int) {
	if s.p.BRAMPeriod == 0 || x%s.p.BRAMPeriod != s.p.BRAMPeriod-1 || y%2 != 0 {
		return
	}
	r := s.region(x, y)
	tile := fmt.Sprintf(tileBRAM, x, y)
	site := s.b.AddSite(fmt.Sprintf("RAMB36_X%dY%d", x/s.p.BRAMPeriod, y/2), "RAMB36", tile, r)
	s.b.AddBEL(site, BEL{Name: "RAMB36E2", Kind: BELRAM})
	var lower, upper []*Node
	for k := 0; k < 2; k++ {
		lower = append(lower, s.b.AddNode(tile, fmt.Sprintf("LEAF_CLK_L%d", k), NodeLeafClock, r, -1))
		upper = append(upper, s.b.AddNode(tile, fmt.Sprintf("LEAF_CLK_U%d", k), NodeLeafClock, r, -1))
	}
	i := 0
	bind := func(name string, lcbs []*Node) {
		n := s.b.AddNode(tile, name+"_PIN", NodeSitePin, r, -1)
		s.b.AddSitePin(site, name, PinInput, n)
		for _, lcb := range lcbs {
			s.b.AddPIP(lcb, n)
		}
		s.b.AddPIP(s.node(tileINT, x, y, fmt.Sprintf("INODE_%d", i%s.p.Locals)), n)
		i++
	}
	for _, logical := range append(RAMB36SplitPins, "WEBWE[0]") {
		lo, up := RAMB36Halves(logical)
		bind(lo, lower)
		bind(up, upper)
	}
}

func (s *synth) clockFabric() {
	rc := (s.p.Cols + s.p.RegionCols - 1) / s.p.RegionCols
	rr := (s.p.Rows + s.p.RegionRows - 1) / s.p.RegionRows
	kinds := []struct {
		prefix string
		typ    NodeType
	}{
		{"ROUTE", NodeClockRoute}, {"VDISTR", NodeClockDistrV}, {"HDISTR", NodeClockDistrH},
	}
	for cy := 0; cy < rr; cy++ {
		for cx := 0; cx < rc; cx++ {
			tile := fmt.Sprintf(tileRCLK, cx, cy)
			r := Region{X: cx, Y: cy}
			for t := 0; t < s.p.ClockTracks; t++ {
				for _, k := range kinds {
					s.b.AddNode(tile, fmt.Sprintf("%s%d", k.prefix, t), k.typ, r, t)
				}
			}
			site := s.b.AddSite(fmt.Sprintf("BUFGCE_X%dY%d", cx, cy), "BUFGCE", tile, r)
			s.b.AddBEL(site, BEL{Name: "BUFCE", Kind: BELBUFG})
			in := s.b.AddNode(tile, "BUFG_I", NodeSitePin, r, -1)
			out := s.b.AddNode(tile, "BUFG_O", NodeGlobalClock, r, -1)
			s.b.AddSitePin(site, "I", PinInput, in)
			s.b.AddSitePin(site, "O", PinOutput, out)
			s.b.AddPIP(s.node(tileINT, cx*s.p.RegionCols, cy*s.p.RegionRows, "INODE_0"), in)
			for t := 0; t < s.p.ClockTracks; t++ {
				s.b.AddPIP(out, s.node(tileRCLK, cx, cy, fmt.Sprintf("ROUTE%d", t)))
			}
		}
	}
	for cy := 0; cy < rr; cy++ {
		for cx := 0; cx < rc; cx++ {
			for t := 0; t < s.p.ClockTracks; t++ {
				s.clockTrack(cx, cy, t, rc, rr)
			}
		}
	}
}

func (s *synth) clockTrack(cx, cy, t, rc, rr int) {
	route := s.node(tileRCLK, cx, cy, fmt.Sprintf("ROUTE%d", t))
	vdistr := s.node(tileRCLK, cx, cy, fmt.Sprintf("VDISTR%d", t))
	hdistr := s.node(tileRCLK, cx, cy, fmt.Sprintf("HDISTR%d", t))
	s.b.AddPIP(route, vdistr)
	s.b.AddPIP(vdistr, hdistr)
	near := func(dx, dy int) bool {
		nx, ny := cx+dx, cy+dy
		return nx >= 0 && ny >= 0 && nx < rc && ny < rr
	}
	for _, d := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		if !near(d[0], d[1]) {
			continue
		}
		s.b.AddPIP(route, s.node(tileRCLK, cx+d[0], cy+d[1], fmt.Sprintf("ROUTE%d", t)))
		if d[0] == 0 {
			s.b.AddPIP(vdistr, s.node(tileRCLK, cx, cy+d[1], fmt.Sprintf("VDISTR%d", t)))
		} else {
			s.b.AddPIP(hdistr, s.node(tileRCLK, cx+d[0], cy, fmt.Sprintf("HDISTR%d", t)))
		}
	}
	// Every distribution track reaches every leaf clock buffer of its region.
	for y := cy * s.p.RegionRows; y < (cy+1)*s.p.RegionRows && y < s.p.Rows; y++ {
		for x := cx * s.p.RegionCols; x < (cx+1)*s.p.RegionCols && x < s.p.Cols; x++ {
			for k := 0; k < 2; k++ {
				if lcb := s.node(tileINT, x, y, fmt.Sprintf("LEAF_CLK%d", k)); lcb != nil {
					s.b.AddPIP(hdistr, lcb)
				}
				for _, half := range []string{"L", "U"} {
					if lcb := s.node(tileBRAM, x, y, fmt.Sprintf("LEAF_CLK_%s%d", half, k)); lcb != nil {
						s.b.AddPIP(hdistr, lcb)
					}
				}
			}
		}
	}
}
