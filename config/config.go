// Restitch configuration. The knobs are deliberately closed sets of string
// constants: a bad value fails Validate up front instead of surfacing as a
// weird image halfway through a run.
package config

import (
	"fmt"

	"github.com/nsew-imaging/chipstitch/core/fileaccess"
)

// Blend modes for overlapping quadrants. All are deterministic per-pixel
// merges so a rerun over the same inputs produces an identical canvas.
const (
	BlendReplace = "replace" // later region wins
	BlendMax     = "max"     // per-channel maximum, common for fluorescence
	BlendMean    = "mean"    // per-channel average
)

// Interpolation kernels for resizing and sub-pixel placement
const (
	InterpNearest    = "nearest"
	InterpBilinear   = "bilinear"
	InterpCatmullRom = "catmullrom" // highest quality kernel available, use unless speed matters
)

// Output encodings
const (
	FormatTIFF = "tiff"
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

type StitchConfig struct {
	BlendMode     string `json:"blendMode"`
	Interpolation string `json:"interpolation"`
	OutputFormat  string `json:"outputFormat"`
	JPEGQuality   int    `json:"jpegQuality"`
}

func Default() StitchConfig {
	return StitchConfig{
		BlendMode:     BlendMax,
		Interpolation: InterpCatmullRom,
		OutputFormat:  FormatTIFF,
		JPEGQuality:   90,
	}
}

func (c StitchConfig) Validate() error {
	switch c.BlendMode {
	case BlendReplace, BlendMax, BlendMean:
	default:
		return fmt.Errorf("unknown blend mode: %v", c.BlendMode)
	}

	switch c.Interpolation {
	case InterpNearest, InterpBilinear, InterpCatmullRom:
	default:
		return fmt.Errorf("unknown interpolation: %v", c.Interpolation)
	}

	switch c.OutputFormat {
	case FormatTIFF, FormatPNG, FormatJPEG:
	default:
		return fmt.Errorf("unknown output format: %v", c.OutputFormat)
	}

	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be 1-100, got %v", c.JPEGQuality)
	}

	return nil
}

func (c StitchConfig) OutputExtension() string {
	switch c.OutputFormat {
	case FormatPNG:
		return ".png"
	case FormatJPEG:
		return ".jpg"
	}
	return ".tif"
}

// Load - reads a config JSON, fields left out keep their defaults
func Load(fs fileaccess.FileAccess, root string, path string) (StitchConfig, error) {
	cfg := Default()
	if err := fs.ReadJSON(root, path, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save - persisted next to results so a run can be reproduced later
func Save(fs fileaccess.FileAccess, root string, path string, cfg StitchConfig) error {
	return fs.WriteJSON(root, path, cfg)
}
