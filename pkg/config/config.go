// Package config holds the tunable parameters of a relief session.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// Default values for a new session.
const (
	DefaultThreshold = 200
	DefaultMinArea   = 100
	DefaultCellSize  = 10
	DefaultHeight    = 100
	DefaultOutput    = "extruded_voxel_mesh_all.stl"
	DefaultSolidName = "extruded_mesh"
	DefaultKernel    = "raster"
)

// Kernels lists the accepted membership backends.
var Kernels = []string{"raster", "sdfx"}

// ErrInvalid is wrapped by every validation failure that cannot be fixed
// by clamping.
var ErrInvalid = errors.New("config: invalid value")

// Config holds runtime configuration for detection and extrusion.
// Fields may be loaded from a JSON file and overridden by command-line flags.
type Config struct {
	Debug bool `json:"debug"`

	// Detection parameters
	Threshold int     `json:"threshold"`
	MinArea   float64 `json:"min_area"`
	StableIDs bool    `json:"stable_ids"`

	// Extrusion parameters
	CellSize float64 `json:"cell_size"`
	Height   float64 `json:"height"`
	FillBase bool    `json:"fill_base"`
	FillTop  bool    `json:"fill_top"`
	Kernel   string  `json:"kernel"`

	// Output
	Output    string `json:"output"`
	SolidName string `json:"solid_name"`
	Normals   bool   `json:"normals"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:     false,
		Threshold: DefaultThreshold,
		MinArea:   DefaultMinArea,
		StableIDs: false,
		CellSize:  DefaultCellSize,
		Height:    DefaultHeight,
		FillBase:  true,
		FillTop:   true,
		Kernel:    DefaultKernel,
		Output:    DefaultOutput,
		SolidName: DefaultSolidName,
		Normals:   false,
	}
}

// Validate clamps soft values into range and rejects values extrusion
// cannot run with. Threshold is clamped to 0..255, a negative or NaN
// minimum area becomes 0, and empty names fall back to the defaults.
// Non-positive cell size or height and unknown kernels are errors.
func (c *Config) Validate() error {
	c.Threshold = min(max(c.Threshold, 0), 255)
	if !(c.MinArea >= 0) {
		c.MinArea = 0
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.SolidName == "" {
		c.SolidName = DefaultSolidName
	}
	if c.Kernel == "" {
		c.Kernel = DefaultKernel
	}

	if !positive(c.CellSize) {
		return fmt.Errorf("%w: cell size %v", ErrInvalid, c.CellSize)
	}
	if !positive(c.Height) {
		return fmt.Errorf("%w: height %v", ErrInvalid, c.Height)
	}
	if !knownKernel(c.Kernel) {
		return fmt.Errorf("%w: kernel %q (want one of %v)", ErrInvalid, c.Kernel, Kernels)
	}
	return nil
}

// SetThreshold sets the binarization threshold, clamped to 0..255.
func (c *Config) SetThreshold(v int) {
	c.Threshold = min(max(v, 0), 255)
}

// SetMinArea sets the minimum effective region area. Negative values clamp
// to 0.
func (c *Config) SetMinArea(v float64) {
	if !(v >= 0) {
		v = 0
	}
	c.MinArea = v
}

// SetCellSize sets the grid cell size. A non-positive value is rejected and
// the previous value kept.
func (c *Config) SetCellSize(v float64) error {
	if !positive(v) {
		return fmt.Errorf("%w: cell size %v", ErrInvalid, v)
	}
	c.CellSize = v
	return nil
}

// SetHeight sets the extrusion height. A non-positive value is rejected and
// the previous value kept.
func (c *Config) SetHeight(v float64) error {
	if !positive(v) {
		return fmt.Errorf("%w: height %v", ErrInvalid, v)
	}
	c.Height = v
	return nil
}

// Load attempts to read configuration from the given JSON file path. If the
// file does not exist it returns DefaultConfig(). Fields absent from the
// file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("config: encode %s: %w", path, err)
	}
	return f.Close()
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func knownKernel(name string) bool {
	for _, k := range Kernels {
		if k == name {
			return true
		}
	}
	return false
}
