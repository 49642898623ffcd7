package devfile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/device"
)

// Build converts a parsed description into a device. Nodes must be declared
// before the PIPs and site pins that reference them.
func Build(f *File) (*device.Device, error) {
	if f == nil {
		return nil, errors.New("devfile: nil file")
	}
	if f.EndName != f.Name {
		return nil, fmt.Errorf("devfile: device %s closed by end %s", f.Name, f.EndName)
	}
	b := device.NewBuilder(f.Name)
	var errs []error
	lookup := func(name string) *device.Node {
		n := b.Node(name)
		if n == nil {
			errs = append(errs, fmt.Errorf("devfile: unknown node %s", name))
		}
		return n
	}
	for _, d := range f.Decls {
		switch {
		case d.Node != nil:
			if err := addNode(b, d.Node); err != nil {
				errs = append(errs, err)
			}
		case d.PIP != nil:
			from, to := lookup(d.PIP.From), lookup(d.PIP.To)
			if from == nil || to == nil {
				continue
			}
			if rt := d.PIP.RouteThru; rt != nil {
				site := b.Site(rt.Site)
				if site == nil {
					errs = append(errs, fmt.Errorf("devfile: route-thru %s->>%s names unknown site %s", from, to, rt.Site))
					continue
				}
				b.AddRouteThruPIP(from, to, site, rt.BEL)
				continue
			}
			b.AddPIP(from, to)
		case d.Site != nil:
			siteErrs := addSite(b, d.Site, lookup)
			errs = append(errs, siteErrs...)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return b.Build()
}

func addNode(b *device.Builder, d *NodeDecl) error {
	tile, wire, ok := strings.Cut(d.Name, "/")
	if !ok {
		return fmt.Errorf("devfile: malformed node name %s", d.Name)
	}
	typ, err := device.ParseNodeType(d.Type)
	if err != nil {
		return fmt.Errorf("devfile: node %s: %w", d.Name, err)
	}
	track := -1
	if d.Track != nil {
		track = *d.Track
	}
	b.AddNode(tile, wire, typ, region(d.Region), track)
	return nil
}

func addSite(b *device.Builder, d *SiteDecl, lookup func(string) *device.Node) []error {
	var errs []error
	site := b.AddSite(d.Name, d.Type, d.Tile, region(d.Region))
	for _, item := range d.Items {
		switch {
		case item.Pin != nil:
			n := lookup(item.Pin.Node)
			if n == nil {
				continue
			}
			dir := device.PinInput
			if item.Pin.Dir == "out" {
				dir = device.PinOutput
			}
			b.AddSitePin(site, item.Pin.Name, dir, n)
		case item.BEL != nil:
			kind, err := device.ParseBELKind(item.BEL.Kind)
			if err != nil {
				errs = append(errs, fmt.Errorf("devfile: site %s: %w", d.Name, err))
				continue
			}
			b.AddBEL(site, device.BEL{Name: item.BEL.Name, Kind: kind, Output: item.BEL.Output})
		}
	}
	return errs
}

func region(r *RegionRef) device.Region {
	if r == nil {
		return device.Region{}
	}
	return device.Region{X: r.X, Y: r.Y}
}

// Load parses and builds the device description at path.
func Load(path string) (*device.Device, error) {
	f, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Build(f)
}
