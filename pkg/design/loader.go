package design

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/device"
)

// File is the on-disk YAML form of a placed (and possibly routed) design.
type File struct {
	Name   string     `yaml:"name"`
	Device string     `yaml:"device"`
	Cells  []CellSpec `yaml:"cells,omitempty"`
	Nets   []NetSpec  `yaml:"nets,omitempty"`
}

// CellSpec places one cell.
type CellSpec struct {
	Name string              `yaml:"name"`
	Type string              `yaml:"type"`
	Site string              `yaml:"site"`
	BEL  string              `yaml:"bel"`
	Pins map[string][]string `yaml:"pins,omitempty"` // logical -> physical
	Ties map[string]string   `yaml:"ties,omitempty"` // logical -> GND|VCC

	Inverted []string `yaml:"inverted,omitempty"` // LUT inputs whose sense is flipped
}

// NetSpec declares a net, its connections and any existing routing.
type NetSpec struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Connections []string `yaml:"connections,omitempty"` // CELL.LOGICAL_PIN
	SitePins    []string `yaml:"site_pins,omitempty"`   // [out ]SITE.PIN
	PIPs        []string `yaml:"pips,omitempty"`        // TILE/WIRE->>TILE/WIRE
}

// LoadFile reads a YAML design and resolves its device through repo.
func LoadFile(path string, repo device.Repository) (*Design, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("design: %w", err)
	}
	return Load(data, repo)
}

// Load decodes a YAML design and resolves its device through repo.
func Load(data []byte, repo device.Repository) (*Design, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("design: decode: %w", err)
	}
	dev, err := repo.Lookup(f.Device)
	if err != nil {
		return nil, fmt.Errorf("design: %s: %w", f.Name, err)
	}
	return f.Build(dev)
}

// Build instantiates the file on dev.
func (f *File) Build(dev *device.Device) (*Design, error) {
	d := New(f.Name, dev)
	for _, cs := range f.Cells {
		if err := d.placeSpec(cs); err != nil {
			return nil, err
		}
	}
	var errs []error
	for _, ns := range f.Nets {
		if err := d.netSpec(ns); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return d, nil
}

func (d *Design) placeSpec(cs CellSpec) error {
	c, err := d.PlaceCell(cs.Name, cs.Type, cs.Site, cs.BEL)
	if err != nil {
		return err
	}
	for _, logical := range sortedKeys(cs.Pins) {
		for _, phys := range cs.Pins[logical] {
			c.AddPinMapping(phys, logical)
		}
	}
	for _, logical := range sortedKeys(cs.Ties) {
		t, err := ParseNetType(cs.Ties[logical])
		if err != nil {
			return fmt.Errorf("design: cell %s: %w", cs.Name, err)
		}
		if err := c.Tie(logical, t); err != nil {
			return err
		}
	}
	for _, logical := range cs.Inverted {
		if _, ok := c.ties[logical]; !ok || !c.IsLUT() {
			return fmt.Errorf("design: cell %s: cannot mark %s inverted", cs.Name, logical)
		}
		c.inverted = append(c.inverted, logical)
	}
	return nil
}

func (d *Design) netSpec(ns NetSpec) error {
	t, err := ParseNetType(ns.Type)
	if err != nil {
		return fmt.Errorf("design: net %s: %w", ns.Name, err)
	}
	n := d.StaticNet(t)
	if n == nil {
		if n, err = d.CreateNet(ns.Name, t); err != nil {
			return err
		}
	}
	for _, conn := range ns.Connections {
		cellName, logical, ok := strings.Cut(conn, ".")
		if !ok {
			return fmt.Errorf("design: net %s: malformed connection %q", ns.Name, conn)
		}
		c := d.Cell(cellName)
		if c == nil {
			return fmt.Errorf("design: net %s: unknown cell %s", ns.Name, cellName)
		}
		if _, err := n.Connect(c, logical); err != nil {
			return err
		}
	}
	for _, ref := range ns.SitePins {
		out := false
		if rest, ok := strings.CutPrefix(ref, "out "); ok {
			out, ref = true, rest
		}
		site, pin, ok := strings.Cut(ref, ".")
		if !ok {
			return fmt.Errorf("design: net %s: malformed site pin %q", ns.Name, ref)
		}
		if _, err := n.CreatePin(site, pin, out); err != nil {
			return err
		}
	}
	for _, ref := range ns.PIPs {
		p, err := parsePIP(d.Device, ref)
		if err != nil {
			return fmt.Errorf("design: net %s: %w", ns.Name, err)
		}
		n.AddPIP(p)
	}
	return nil
}

func parsePIP(dev *device.Device, ref string) (*device.PIP, error) {
	from, to, ok := strings.Cut(ref, "->>")
	if !ok {
		return nil, fmt.Errorf("malformed PIP %q", ref)
	}
	p := dev.PIP(dev.Node(strings.TrimSpace(from)), dev.Node(strings.TrimSpace(to)))
	if p == nil {
		return nil, fmt.Errorf("device %s has no PIP %s", dev.Name, ref)
	}
	return p, nil
}

// Export captures the design, including routing, in file form.
func Export(d *Design) *File {
	f := &File{Name: d.Name, Device: d.Device.Name}
	for _, c := range d.cellOrder {
		cs := CellSpec{Name: c.Name, Type: c.Type, Site: c.siteInst.Site.Name, BEL: c.BEL}
		if len(c.logical) > 0 {
			cs.Pins = make(map[string][]string, len(c.logical))
			for _, l := range c.logical {
				cs.Pins[l] = append([]string(nil), c.pinMap[l]...)
			}
		}
		if len(c.tieOrder) > 0 {
			cs.Ties = make(map[string]string, len(c.tieOrder))
			for _, l := range c.tieOrder {
				cs.Ties[l] = c.ties[l].String()
			}
		}
		cs.Inverted = append([]string(nil), c.inverted...)
		f.Cells = append(f.Cells, cs)
	}
	for _, n := range d.netOrder {
		if len(n.pins) == 0 && len(n.pips) == 0 {
			continue
		}
		ns := NetSpec{Name: n.Name, Type: n.Type.String()}
		for _, p := range n.pins {
			if p.siteInst == nil {
				continue
			}
			ref := p.SiteName() + "." + p.Name
			if p.Out {
				ref = "out " + ref
			}
			ns.SitePins = append(ns.SitePins, ref)
		}
		for _, p := range n.pips {
			ns.PIPs = append(ns.PIPs, p.String())
		}
		f.Nets = append(f.Nets, ns)
	}
	return f
}

// Marshal encodes f as YAML.
func (f *File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
