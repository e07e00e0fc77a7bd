package session

import (
	"crypto/md5"
	"encoding/hex"
	"image"
	"path"
	"strings"
	"time"

	"github.com/nsew-imaging/chipstitch/alignment"
	"github.com/nsew-imaging/chipstitch/chipimport"
	"github.com/nsew-imaging/chipstitch/config"
	"github.com/nsew-imaging/chipstitch/core/quadrant"
)

// Provenance - the permanent record of where each region's pixels came from
type Provenance string

const (
	ProvenanceFound       Provenance = "found"
	ProvenancePlaceholder Provenance = "placeholder"
	ProvenanceResized     Provenance = "resized-then-applied"
)

// CompositeResult - final output of a run. Created once, immutable, handed to
// the caller; the session keeps nothing after delivering it.
type CompositeResult struct {
	RunID               string
	Canvas              *image.RGBA
	PerRegionProvenance map[quadrant.Quadrant]Provenance
	SizeMismatches      []chipimport.SizeMismatch
	ProcessingTime      time.Duration
	SourceRecordPath    string
	OutputPath          string
	CanvasMD5           string
	Warnings            []string
}

// ProvenanceCounts - how many regions came from each source kind
func (r *CompositeResult) ProvenanceCounts() map[Provenance]int {
	counts := map[Provenance]int{}
	for _, prov := range r.PerRegionProvenance {
		counts[prov]++
	}
	return counts
}

// What gets written next to the composite for audit. Includes the config so
// the run is reproducible from the report alone.
type resultReport struct {
	RunID            string                           `json:"runId"`
	SourceRecordPath string                           `json:"sourceRecordPath"`
	OutputPath       string                           `json:"outputPath"`
	Provenance       map[quadrant.Quadrant]Provenance `json:"provenance"`
	ProvenanceCounts map[Provenance]int               `json:"provenanceCounts"`
	SizeMismatches   []chipimport.SizeMismatch        `json:"sizeMismatches"`
	ProcessingTimeMs int64                            `json:"processingTimeMs"`
	CanvasMD5        string                           `json:"canvasMd5"`
	Warnings         []string                         `json:"warnings"`
	Config           config.StitchConfig              `json:"config"`
}

// ReportPathFor - "scans/plateChip.tif" -> "scans/plateChip.restitch.json"
func ReportPathFor(outputPath string) string {
	ext := path.Ext(outputPath)
	return strings.TrimSuffix(outputPath, ext) + ".restitch.json"
}

// DefaultOutputPath - composite path with a chip suffix spliced in, in the
// configured output format: "scans/plate_stitched.tif" -> "scans/plate_stitched_chip.tif"
func DefaultOutputPath(record *alignment.AlignmentRecord, cfg config.StitchConfig) string {
	ext := path.Ext(record.CompositeOutputPath)
	stem := strings.TrimSuffix(record.CompositeOutputPath, ext)
	return stem + "_chip" + cfg.OutputExtension()
}

// canvasChecksum - integrity fingerprint of the raw canvas samples
func canvasChecksum(canvas *image.RGBA) string {
	sum := md5.Sum(canvas.Pix)
	return hex.EncodeToString(sum[:])
}
