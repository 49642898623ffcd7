package device

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Loader parses one device description file. pkg/devfile provides the
// production implementation; it is injected to keep this package free of the
// grammar.
type Loader func(path string) (*Device, error)

// Repository knows how to look up a device by part name.
type Repository interface {
	Lookup(name string) (*Device, error)
}

// MemoryRepository is an in-memory Repository, filled from description files
// or synthetic devices.
type MemoryRepository struct {
	mu      sync.RWMutex
	devices map[string]*Device
	load    Loader
}

// NewMemoryRepository creates an empty repository. load may be nil when only
// Add is used.
func NewMemoryRepository(load Loader) *MemoryRepository {
	return &MemoryRepository{
		devices: make(map[string]*Device),
		load:    load,
	}
}

// Add registers a device under its part name, replacing any previous entry.
func (r *MemoryRepository) Add(dev *Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[strings.ToLower(dev.Name)] = dev
}

// Lookup implements the Repository interface. Part names are case-insensitive.
func (r *MemoryRepository) Lookup(name string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if dev, ok := r.devices[strings.ToLower(name)]; ok {
		return dev, nil
	}
	return nil, fmt.Errorf("device: no device named %q", name)
}

// Names returns the registered part names, sorted.
func (r *MemoryRepository) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.devices))
	for _, dev := range r.devices {
		out = append(out, dev.Name)
	}
	sort.Strings(out)
	return out
}

// LoadFiles parses the provided paths and adds each device.
func (r *MemoryRepository) LoadFiles(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	if r.load == nil {
		return fmt.Errorf("device: repository has no loader")
	}
	// Device files are large; parse them in parallel and register in order.
	devs := make([]*Device, len(paths))
	var g errgroup.Group
	g.SetLimit(4)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			dev, err := r.load(path)
			if err != nil {
				return fmt.Errorf("device: load %s: %w", path, err)
			}
			devs[i] = dev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, dev := range devs {
		r.Add(dev)
	}
	return nil
}

// LoadDir recursively loads all .dev files below root.
func (r *MemoryRepository) LoadDir(root string) error {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !isDeviceFile(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return err
	}
	return r.LoadFiles(paths...)
}

func isDeviceFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".dev")
}
