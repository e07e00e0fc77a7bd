package chipimport

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/nsew-imaging/chipstitch/alignment"
	"github.com/nsew-imaging/chipstitch/config"
	"github.com/nsew-imaging/chipstitch/core/imgcodec"
	"github.com/nsew-imaging/chipstitch/core/logger"
)

// NormalizedBuffer - a region's pixel data at exactly the dimensions the
// alignment record expects, so the stored translation applies unchanged
type NormalizedBuffer struct {
	Image          image.Image
	Resized        bool
	FromDimensions alignment.Dimensions // pre-resize dimensions, only set when Resized
}

type Reconciler struct {
	codec  imgcodec.ImageCodec
	scaler draw.Scaler
	log    logger.ILogger
}

func MakeReconciler(codec imgcodec.ImageCodec, interpolation string, log logger.ILogger) Reconciler {
	var scaler draw.Scaler
	switch interpolation {
	case config.InterpNearest:
		scaler = draw.NearestNeighbor
	case config.InterpBilinear:
		scaler = draw.ApproxBiLinear
	default:
		scaler = draw.CatmullRom
	}
	return Reconciler{codec: codec, scaler: scaler, log: log}
}

// Placeholder - opaque pure-black buffer of the given dimensions, substituted
// for a region whose chip image is absent or undecodable
func Placeholder(dims alignment.Dimensions) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, dims.Width, dims.Height))
	// NewRGBA zeroes the pixel data, which is transparent black. We want
	// opaque black so blending treats placeholder area as covered canvas.
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

// Normalize - produces the buffer for one region:
//   - no chip file (foundPath empty): pure-black placeholder at the recorded
//     dimensions
//   - dimensions already match: decoded verbatim, no resampling, sample
//     values preserved exactly
//   - dimensions differ: resampled to the recorded dimensions, because the
//     stored translation is only valid at those dimensions
func (r *Reconciler) Normalize(region *alignment.RegionAlignment, foundPath string) (*NormalizedBuffer, error) {
	target := *region.SourceDimensions

	if len(foundPath) <= 0 {
		r.log.Infof("Region %v: no chip image, generating %vx%v placeholder", region.RegionID, target.Width, target.Height)
		return &NormalizedBuffer{Image: Placeholder(target)}, nil
	}

	img, err := r.codec.ReadPixels(foundPath)
	if err != nil {
		return nil, &UnreadableImageError{Path: foundPath, Err: err}
	}

	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	if w == target.Width && h == target.Height {
		return &NormalizedBuffer{Image: img}, nil
	}

	r.log.Infof("Region %v: resampling %vx%v -> %vx%v", region.RegionID, w, h, target.Width, target.Height)
	dst := image.NewRGBA(image.Rect(0, 0, target.Width, target.Height))
	r.scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	return &NormalizedBuffer{
		Image:          dst,
		Resized:        true,
		FromDimensions: alignment.Dimensions{Width: w, Height: h},
	}, nil
}
