package devfile

import (
	"bufio"
	"fmt"
	"io"

	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/device"
)

// Write emits dev in description format. Sites are written before PIPs so that
// route-through references resolve when the output is parsed again.
func Write(w io.Writer, dev *device.Device) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %d nodes, %d pips, %d sites\n", dev.NodeCount(), dev.PIPCount(), len(dev.Sites()))
	fmt.Fprintf(bw, "device %s;\n", dev.Name)
	for _, n := range dev.Nodes() {
		fmt.Fprintf(bw, "node %s %s", n.Name(), n.Type)
		if n.Track >= 0 {
			fmt.Fprintf(bw, " track %d", n.Track)
		}
		fmt.Fprintf(bw, " region(%d,%d);\n", n.Region.X, n.Region.Y)
	}
	for _, s := range dev.Sites() {
		fmt.Fprintf(bw, "site %s %s tile %s region(%d,%d) {\n", s.Name, s.Type, s.Tile, s.Region.X, s.Region.Y)
		for _, p := range s.Pins() {
			fmt.Fprintf(bw, "\tpin %s %s %s;\n", p.Name, p.Dir, p.Node.Name())
		}
		for _, bel := range s.BELs() {
			if bel.Output != "" {
				fmt.Fprintf(bw, "\tbel %s %s %s;\n", bel.Name, bel.Kind, bel.Output)
			} else {
				fmt.Fprintf(bw, "\tbel %s %s;\n", bel.Name, bel.Kind)
			}
		}
		fmt.Fprintln(bw, "}")
	}
	for _, n := range dev.Nodes() {
		for _, p := range n.Downhill() {
			if p.RouteThru != nil {
				fmt.Fprintf(bw, "pip %s -> %s routethru %s %s;\n", p.Start.Name(), p.End.Name(), p.RouteThru.Site.Name, p.RouteThru.BEL)
				continue
			}
			fmt.Fprintf(bw, "pip %s -> %s;\n", p.Start.Name(), p.End.Name())
		}
	}
	fmt.Fprintf(bw, "end %s;\n", dev.Name)
	return bw.Flush()
}
