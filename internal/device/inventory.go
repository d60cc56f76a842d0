package device

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultSysfsRoot is where Linux exposes V4L2 devices
const DefaultSysfsRoot = "/sys/class/video4linux"

// SysfsInventory lists V4L2 capture devices from sysfs
type SysfsInventory struct {
	root   string
	devDir string
}

// NewSysfsInventory creates an inventory rooted at the given sysfs directory
func NewSysfsInventory(root string) *SysfsInventory {
	if root == "" {
		root = DefaultSysfsRoot
	}
	return &SysfsInventory{root: root, devDir: "/dev"}
}

// Devices returns one video input per videoN entry, ordered by device number
func (s *SysfsInventory) Devices(ctx context.Context) ([]Device, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.root, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "video") {
			names = append(names, e.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) < len(names[j])
		}
		return names[i] < names[j]
	})

	devices := make([]Device, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		label := name
		if data, err := os.ReadFile(filepath.Join(s.root, name, "name")); err == nil {
			label = strings.TrimSpace(string(data))
		}
		devices = append(devices, Device{
			ID:    filepath.Join(s.devDir, name),
			Kind:  KindVideoInput,
			Label: label,
		})
	}
	return devices, nil
}

// StaticInventory is a fixed device list, typically built from config
type StaticInventory []Device

// Devices returns the configured devices
func (s StaticInventory) Devices(ctx context.Context) ([]Device, error) {
	out := make([]Device, len(s))
	copy(out, s)
	return out, nil
}

// ParseSpec parses "label=uri" into a video input device.
// A bare uri is used as its own label.
func ParseSpec(spec string) (Device, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Device{}, errors.New("empty device spec")
	}
	label, uri, found := strings.Cut(spec, "=")
	// a "=" inside a path or query string is not a label separator
	if !found || strings.Contains(label, "/") {
		label, uri = spec, spec
	}
	label = strings.TrimSpace(label)
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Device{}, fmt.Errorf("device spec %q has no uri", spec)
	}
	return Device{ID: uri, Kind: KindVideoInput, Label: label}, nil
}

// MultiInventory concatenates inventories in order
type MultiInventory []Inventory

// Devices enumerates every inventory; the first failure aborts enumeration
func (m MultiInventory) Devices(ctx context.Context) ([]Device, error) {
	var all []Device
	for _, inv := range m {
		devices, err := inv.Devices(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, devices...)
	}
	return all, nil
}
