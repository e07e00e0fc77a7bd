package compositor

import (
	"image/color"

	"github.com/nsew-imaging/chipstitch/config"
)

// MergeFunc - deterministic per-pixel merge applied where placed regions
// overlap on the canvas. The compositor doesn't choose blend semantics, it
// applies whichever merge it's handed, so a restitch can use the exact policy
// the first pass used.
type MergeFunc func(existing color.RGBA, incoming color.RGBA) color.RGBA

// MergeReplace - later region wins
func MergeReplace(existing color.RGBA, incoming color.RGBA) color.RGBA {
	return incoming
}

// MergeMax - per-channel maximum. The usual choice for fluorescence imagery
// where signal is additive and background is near black.
func MergeMax(existing color.RGBA, incoming color.RGBA) color.RGBA {
	return color.RGBA{
		R: maxU8(existing.R, incoming.R),
		G: maxU8(existing.G, incoming.G),
		B: maxU8(existing.B, incoming.B),
		A: maxU8(existing.A, incoming.A),
	}
}

// MergeMean - per-channel average, rounding half up
func MergeMean(existing color.RGBA, incoming color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8((uint16(existing.R) + uint16(incoming.R) + 1) / 2),
		G: uint8((uint16(existing.G) + uint16(incoming.G) + 1) / 2),
		B: uint8((uint16(existing.B) + uint16(incoming.B) + 1) / 2),
		A: maxU8(existing.A, incoming.A),
	}
}

func MergeForBlendMode(mode string) MergeFunc {
	switch mode {
	case config.BlendReplace:
		return MergeReplace
	case config.BlendMean:
		return MergeMean
	}
	return MergeMax
}

func maxU8(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}
