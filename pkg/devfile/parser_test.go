package devfile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/participle/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/device"
)

const tinyDevice = `
# two switchboxes and one slice
device tiny;
node INT_X0Y0/INODE_0 wire region(0,0);
node INT_X0Y0/IMUX_0 site_pin region(0,0);
node INT_X0Y0/VCC_WIRE tie_vcc;
node CLE_X0Y0/A_O site_pin region(0,0);
node RCLK_X0Y0/ROUTE0 clock_route track 0 region(0,0);
site SLICE_X0Y0 SLICEL tile CLE_X0Y0 region(0,0) {
	pin A1 in INT_X0Y0/IMUX_0;
	pin A_O out CLE_X0Y0/A_O;
	bel ALUT lut A_O;
	bel AFF ff;
}
pip INT_X0Y0/INODE_0 -> INT_X0Y0/IMUX_0;
pip INT_X0Y0/VCC_WIRE -> INT_X0Y0/IMUX_0;
pip INT_X0Y0/IMUX_0 -> CLE_X0Y0/A_O routethru SLICE_X0Y0 ALUT;
end tiny;
`

func TestParseTiny(t *testing.T) {
	f, err := ParseString("tiny.dev", tinyDevice)
	require.NoError(t, err)
	assert.Equal(t, "tiny", f.Name)
	assert.Equal(t, "tiny", f.EndName)
	require.Len(t, f.Decls, 9)

	route := f.Decls[4].Node
	require.NotNil(t, route)
	require.NotNil(t, route.Track)
	assert.Equal(t, 0, *route.Track)
	assert.Equal(t, "clock_route", route.Type)
	assert.Nil(t, f.Decls[2].Node.Region, "tie-off declared without region")

	site := f.Decls[5].Site
	require.NotNil(t, site)
	require.Len(t, site.Items, 4)
	assert.Empty(t, site.Items[3].BEL.Output)

	rt := f.Decls[8].PIP.RouteThru
	require.NotNil(t, rt)
	assert.Equal(t, "SLICE_X0Y0", rt.Site)
	assert.Equal(t, "ALUT", rt.BEL)
}

func TestBuildTiny(t *testing.T) {
	f, err := ParseString("tiny.dev", tinyDevice)
	require.NoError(t, err)
	dev, err := Build(f)
	require.NoError(t, err)
	assert.Equal(t, 5, dev.NodeCount())
	assert.Equal(t, 3, dev.PIPCount())

	p := dev.PIP(dev.Node("INT_X0Y0/IMUX_0"), dev.Node("CLE_X0Y0/A_O"))
	require.NotNil(t, p)
	require.True(t, p.IsRouteThru())
	assert.Equal(t, "SLICE_X0Y0", p.RouteThru.Site.Name)
	assert.Equal(t, device.NodeTieVCC, dev.Node("INT_X0Y0/VCC_WIRE").Type)

	bel, ok := dev.Site("SLICE_X0Y0").ConstantDriver("A_O")
	require.True(t, ok)
	assert.Equal(t, "ALUT", bel.Name)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "end mismatch",
			input: "device a; end b;",
			want:  "device a closed by end b",
		},
		{
			name:  "unknown node",
			input: "device a; node T/X wire; pip T/X -> T/Y; end a;",
			want:  "unknown node T/Y",
		},
		{
			name:  "bad node type",
			input: "device a; node T/X copper; end a;",
			want:  "unknown node type",
		},
		{
			name:  "unknown route-thru site",
			input: "device a; node T/X wire; node T/Y wire; pip T/X -> T/Y routethru S LUT; end a;",
			want:  "names unknown site S",
		},
		{
			name:  "bad pin node",
			input: "device a; site S SLICEL tile T { pin A1 in T/NOPE; } end a;",
			want:  "unknown node T/NOPE",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseString(tt.name, tt.input)
			require.NoError(t, err)
			_, err = Build(f)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

// Syntax errors name the file and position they occurred at.
func TestParseSyntaxErrorPosition(t *testing.T) {
	_, err := ParseString("bad.dev", "device a;\nnode ; end a;")
	require.Error(t, err)
	assert.ErrorContains(t, err, "devfile: bad.dev:2:")

	var perr participle.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "bad.dev", perr.Position().Filename)
	assert.Equal(t, 2, perr.Position().Line)

	path := filepath.Join(t.TempDir(), "broken.dev")
	require.NoError(t, os.WriteFile(path, []byte("device a; node ; end a;"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, path+":1:")

	_, err = Load(filepath.Join(t.TempDir(), "missing.dev"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteRoundTrip(t *testing.T) {
	params := device.DefaultSynthParams()
	params.Cols, params.Rows = 4, 4
	params.RegionCols, params.RegionRows = 2, 2
	params.TieGND = true
	orig, err := device.Synthesize(params)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, orig))
	path := filepath.Join(t.TempDir(), "syn.dev")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, orig.Name, got.Name)
	require.Equal(t, orig.NodeCount(), got.NodeCount())
	require.Equal(t, orig.PIPCount(), got.PIPCount())
	require.Len(t, got.Sites(), len(orig.Sites()))
	gc, gr := got.RegionGrid()
	oc, or := orig.RegionGrid()
	assert.Equal(t, []int{oc, or}, []int{gc, gr}, "region grid")

	for _, s := range orig.Sites() {
		gs := got.Site(s.Name)
		require.NotNil(t, gs, s.Name)
		assert.Equal(t, s.Type, gs.Type, s.Name)
		assert.Len(t, gs.Pins(), len(s.Pins()), s.Name)
		assert.Len(t, gs.BELs(), len(s.BELs()), s.Name)
	}
	for _, n := range orig.Nodes() {
		gn := got.Node(n.Name())
		require.NotNil(t, gn, n.Name())
		assert.Equal(t, n.Type, gn.Type, n.Name())
		assert.Equal(t, n.Track, gn.Track, n.Name())
		assert.Equal(t, n.Region, gn.Region, n.Name())
		assert.Len(t, gn.Downhill(), len(n.Downhill()), n.Name())
	}
}
