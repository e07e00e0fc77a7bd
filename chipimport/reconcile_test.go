package chipimport

import (
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"

	"github.com/nsew-imaging/chipstitch/alignment"
	"github.com/nsew-imaging/chipstitch/config"
	"github.com/nsew-imaging/chipstitch/core/imgcodec"
	"github.com/nsew-imaging/chipstitch/core/logger"
	"github.com/nsew-imaging/chipstitch/core/quadrant"
)

func makeReconcileRegion(w int, h int) *alignment.RegionAlignment {
	return &alignment.RegionAlignment{
		RegionID:         quadrant.SE,
		SourcePath:       "scans/plateSE.tif",
		SourceDimensions: &alignment.Dimensions{Width: w, Height: h},
		Translation:      &alignment.Translation{Dx: 3, Dy: 4},
	}
}

func TestPlaceholderCorrectness(t *testing.T) {
	r := MakeReconciler(imgcodec.MakeMemCodec(), config.InterpCatmullRom, &logger.NullLogger{})

	buf, err := r.Normalize(makeReconcileRegion(120, 150), "")
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if buf.Resized {
		t.Errorf("placeholder must not be marked resized")
	}

	img := buf.Image
	if img.Bounds().Dx() != 120 || img.Bounds().Dy() != 150 {
		t.Fatalf("placeholder is %vx%v, want 120x150", img.Bounds().Dx(), img.Bounds().Dy())
	}

	// Every sample at the minimum value: opaque pure black
	for y := 0; y < 150; y++ {
		for x := 0; x < 120; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			if c.R != 0 || c.G != 0 || c.B != 0 || c.A != 0xff {
				t.Fatalf("placeholder pixel at %v,%v is %+v, want opaque black", x, y, c)
			}
		}
	}
}

// Matching dimensions must pass through untouched, sample for sample
func TestExactDimensionPassthrough(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			src.SetRGBA(x, y, color.RGBA{R: uint8(x * 50), G: uint8(y * 70), B: 9, A: 255})
		}
	}

	codec := imgcodec.MakeMemCodec()
	codec.Images["scans/plateChipSE.tif"] = src

	r := MakeReconciler(codec, config.InterpCatmullRom, &logger.NullLogger{})
	buf, err := r.Normalize(makeReconcileRegion(4, 3), "scans/plateChipSE.tif")
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if buf.Resized {
		t.Errorf("matching dimensions must not resample")
	}
	if buf.Image != image.Image(src) {
		// Not just equal - the same decoded pixels, untouched
		t.Errorf("passthrough returned a different buffer")
	}
}

func TestResizeToRecordedDimensions(t *testing.T) {
	codec := imgcodec.MakeMemCodec()
	codec.Images["scans/plateChipSE.tif"] = image.NewRGBA(image.Rect(0, 0, 100, 100))

	r := MakeReconciler(codec, config.InterpBilinear, &logger.NullLogger{})
	buf, err := r.Normalize(makeReconcileRegion(120, 150), "scans/plateChipSE.tif")
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	if !buf.Resized {
		t.Errorf("expected resize")
	}
	if buf.FromDimensions.Width != 100 || buf.FromDimensions.Height != 100 {
		t.Errorf("pre-resize dimensions wrong: %+v", buf.FromDimensions)
	}
	if buf.Image.Bounds().Dx() != 120 || buf.Image.Bounds().Dy() != 150 {
		t.Errorf("buffer is %vx%v after resize, want 120x150", buf.Image.Bounds().Dx(), buf.Image.Bounds().Dy())
	}
}

func TestUnreadableImage(t *testing.T) {
	codec := imgcodec.MakeMemCodec()
	codec.Corrupt["scans/plateChipSE.tif"] = true

	r := MakeReconciler(codec, config.InterpCatmullRom, &logger.NullLogger{})
	_, err := r.Normalize(makeReconcileRegion(120, 150), "scans/plateChipSE.tif")

	var unreadable *UnreadableImageError
	if !errors.As(err, &unreadable) {
		t.Fatalf("expected UnreadableImageError, got %v", err)
	}
	if unreadable.Path != "scans/plateChipSE.tif" {
		t.Errorf("error names wrong path: %v", unreadable.Path)
	}
}
