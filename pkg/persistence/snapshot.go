package persistence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jesd204b/lmk-go/pkg/model"
)

// SnapshotVersion is the current version of the snapshot file format.
const SnapshotVersion = 1

// ErrUnsupportedVersion is returned for snapshots written by a newer format.
var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

// Snapshot contains configuration values of a device subtree.
type Snapshot struct {
	// Version is the snapshot file format version.
	Version int `json:"version" yaml:"version"`

	// SavedAt is when the snapshot was taken.
	SavedAt time.Time `json:"saved_at" yaml:"saved_at"`

	// SessionID identifies the tree the values were captured from.
	SessionID string `json:"session_id,omitempty" yaml:"session_id,omitempty"`

	// Devices holds one entry per device that has configuration variables.
	Devices []DeviceValues `json:"devices" yaml:"devices"`
}

// DeviceValues holds the configuration variables of one device.
type DeviceValues struct {
	// Path is the full device path, e.g. "Root/Lmk04828".
	Path string `json:"path" yaml:"path"`

	// Values maps variable names to values.
	Values map[string]string `json:"values" yaml:"values"`
}

// Capture records every Configuration variable of dev and its descendants.
// Hidden variables are included.
func Capture(dev *model.Device) *Snapshot {
	s := &Snapshot{
		Version:   SnapshotVersion,
		SavedAt:   time.Now(),
		SessionID: dev.SessionID(),
	}
	capture(dev, s)
	return s
}

func capture(dev *model.Device, s *Snapshot) {
	values := make(map[string]string)
	for _, v := range dev.Variables() {
		if v.Class() == model.ClassConfiguration {
			values[v.Name()] = v.Value()
		}
	}
	if len(values) > 0 {
		s.Devices = append(s.Devices, DeviceValues{Path: dev.Path(), Values: values})
	}

	for _, c := range dev.Devices() {
		capture(c, s)
	}
}

// Apply sets the variables recorded in s on the subtree rooted at dev.
// Every device, variable and value is checked before any value is set, so an
// unknown name or a rejected value leaves the tree untouched. Values are not written to hardware; call
// WriteAll afterwards.
func Apply(dev *model.Device, s *Snapshot) error {
	if s.Version > SnapshotVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}

	type pending struct {
		v     *model.Variable
		value string
	}
	var sets []pending

	base := dev.Path()
	for _, dv := range s.Devices {
		target, err := resolve(dev, base, dv.Path)
		if err != nil {
			return err
		}
		for name, value := range dv.Values {
			v, err := target.Variable(name)
			if err != nil {
				return fmt.Errorf("%s: %w", dv.Path, err)
			}
			if err := v.CheckValue(value); err != nil {
				return fmt.Errorf("%s/%s: %w", dv.Path, name, err)
			}
			sets = append(sets, pending{v: v, value: value})
		}
	}

	for _, p := range sets {
		if err := p.v.SetValue(p.value); err != nil {
			return fmt.Errorf("%s: %w", p.v.Name(), err)
		}
	}
	return nil
}

func resolve(dev *model.Device, base, path string) (*model.Device, error) {
	if path == base {
		return dev, nil
	}
	rel, ok := strings.CutPrefix(path, base+"/")
	if !ok {
		return nil, fmt.Errorf("%w: %s is outside %s", model.ErrDeviceNotFound, path, base)
	}
	return dev.Find(rel)
}
