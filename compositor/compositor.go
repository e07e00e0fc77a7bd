// Canvas assembly by pure 2-D translation. This is the step that makes
// alignment reuse fast: no feature matching or homography estimation happens
// here, each region buffer is placed at the translation its alignment record
// stored and overlaps are merged with a supplied blend policy.
package compositor

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/nsew-imaging/chipstitch/alignment"
	"github.com/nsew-imaging/chipstitch/config"
	"github.com/nsew-imaging/chipstitch/core/logger"
	"github.com/nsew-imaging/chipstitch/core/quadrant"
)

// Anything larger than this per edge means a translation is nonsense
const maxCanvasEdgePx = 1 << 17

// CompositionError - canvas assembly failed, eg a translation that produces
// a degenerate or absurd canvas
type CompositionError struct {
	Reason string
}

func (e *CompositionError) Error() string {
	return "composition failed: " + e.Reason
}

// Placement - one region buffer and where it goes
type Placement struct {
	RegionID    quadrant.Quadrant
	Buffer      image.Image
	Translation alignment.Translation
}

type Compositor struct {
	merge  MergeFunc
	interp draw.Interpolator
	log    logger.ILogger
}

func MakeCompositor(cfg config.StitchConfig, log logger.ILogger) Compositor {
	var interp draw.Interpolator
	switch cfg.Interpolation {
	case config.InterpNearest:
		interp = draw.NearestNeighbor
	case config.InterpCatmullRom:
		interp = draw.CatmullRom
	default:
		// Sub-pixel offsets get bilinear resampling unless told otherwise
		interp = draw.BiLinear
	}
	return Compositor{merge: MergeForBlendMode(cfg.BlendMode), interp: interp, log: log}
}

// Compose - places each buffer at its stored translation and merges overlaps.
// The canvas is the smallest bounding rectangle containing every translated
// buffer, nothing is clipped. Placements are processed in the order given
// (record order), which makes overlap resolution reproducible.
//
// Integer translations are applied by exact index placement: no resampling,
// sample values land on the canvas untouched. Fractional translations
// resample the buffer once through the configured interpolator.
func (c *Compositor) Compose(placements []Placement) (*image.RGBA, error) {
	if len(placements) <= 0 {
		return nil, &CompositionError{Reason: "no regions to compose"}
	}

	minX, minY := math.MaxInt32, math.MaxInt32
	maxX, maxY := math.MinInt32, math.MinInt32

	for _, p := range placements {
		dx, dy := p.Translation.Dx, p.Translation.Dy
		if math.IsNaN(dx) || math.IsInf(dx, 0) || math.IsNaN(dy) || math.IsInf(dy, 0) {
			return nil, &CompositionError{Reason: fmt.Sprintf("region %v translation is not finite", p.RegionID)}
		}
		if p.Buffer == nil || p.Buffer.Bounds().Dx() <= 0 || p.Buffer.Bounds().Dy() <= 0 {
			return nil, &CompositionError{Reason: fmt.Sprintf("region %v has an empty buffer", p.RegionID)}
		}

		x0 := int(math.Floor(dx))
		y0 := int(math.Floor(dy))
		x1 := int(math.Ceil(dx)) + p.Buffer.Bounds().Dx()
		y1 := int(math.Ceil(dy)) + p.Buffer.Bounds().Dy()

		minX = minI(minX, x0)
		minY = minI(minY, y0)
		maxX = maxI(maxX, x1)
		maxY = maxI(maxY, y1)
	}

	width := maxX - minX
	height := maxY - minY
	if width <= 0 || height <= 0 || width > maxCanvasEdgePx || height > maxCanvasEdgePx {
		return nil, &CompositionError{Reason: fmt.Sprintf("degenerate canvas %vx%v", width, height)}
	}

	c.log.Debugf("Composing %v regions onto %vx%v canvas (origin offset %v,%v)", len(placements), width, height, minX, minY)
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))

	for _, p := range placements {
		dx, dy := p.Translation.Dx, p.Translation.Dy
		x0 := int(math.Floor(dx))
		y0 := int(math.Floor(dy))
		fx := dx - float64(x0)
		fy := dy - float64(y0)

		src := toRGBA(p.Buffer)
		if fx != 0 || fy != 0 {
			src = c.subPixelShift(src, fx, fy)
		}

		c.place(canvas, src, x0-minX, y0-minY)
	}

	return canvas, nil
}

// subPixelShift - resamples a buffer by its fractional offset. The result is
// one pixel wider/taller so nothing falls off the far edge.
func (c *Compositor) subPixelShift(src *image.RGBA, fx float64, fy float64) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, src.Bounds().Dx()+1, src.Bounds().Dy()+1))
	c.interp.Transform(dst, f64.Aff3{
		1, 0, fx,
		0, 1, fy,
	}, src, src.Bounds(), draw.Src, nil)
	return dst
}

// place - merges src onto the canvas at integer offset (ox, oy). Uncovered
// canvas (alpha 0) takes the incoming pixel directly, covered canvas goes
// through the merge policy. Transparent incoming pixels (the unsupported
// fringe of a sub-pixel shift) are skipped.
func (c *Compositor) place(canvas *image.RGBA, src *image.RGBA, ox int, oy int) {
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			incoming := src.RGBAAt(x, y)
			if incoming.A == 0 {
				continue
			}

			cx := ox + x - b.Min.X
			cy := oy + y - b.Min.Y
			existing := canvas.RGBAAt(cx, cy)
			if existing.A == 0 {
				canvas.SetRGBA(cx, cy, incoming)
			} else {
				canvas.SetRGBA(cx, cy, c.merge(existing, incoming))
			}
		}
	}
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst
}

func minI(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxI(a, b int) int {
	if a > b {
		return a
	}
	return b
}
