// Alignment records are the sidecar files written next to a stitched
// composite. They capture just enough of the first-pass registration (per
// quadrant translation + source dimensions) for a later chip-image run to
// reproduce the exact same geometry without redoing feature detection.
package alignment

import (
	"encoding/json"
	"fmt"

	"github.com/nsew-imaging/chipstitch/core/quadrant"
)

// SchemaVersion - the sidecar schema this build reads and writes
const SchemaVersion = "1.0"

// Dimensions - serialised as [width, height]
type Dimensions struct {
	Width  int
	Height int
}

func (d Dimensions) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{d.Width, d.Height})
}

func (d *Dimensions) UnmarshalJSON(b []byte) error {
	// Unmarshal into a slice, not an array - encoding/json zero-fills and
	// truncates arrays, which would let a wrong-arity tuple through silently
	var v []int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if len(v) != 2 {
		return fmt.Errorf("source_dimensions must be a [width, height] pair, got %v elements", len(v))
	}
	d.Width = v[0]
	d.Height = v[1]
	return nil
}

// Translation - serialised as [dx, dy]. Offsets are in pixels, may be
// negative and fractional.
type Translation struct {
	Dx float64
	Dy float64
}

func (t Translation) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{t.Dx, t.Dy})
}

func (t *Translation) UnmarshalJSON(b []byte) error {
	var v []float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if len(v) != 2 {
		return fmt.Errorf("translation must be a [dx, dy] pair, got %v elements", len(v))
	}
	t.Dx = v[0]
	t.Dy = v[1]
	return nil
}

// RegionAlignment - the rigid transform recorded for one quadrant.
// SourceDimensions and Translation are pointers so a record loaded from a
// sidecar missing one of them is distinguishable from a real zero value -
// validation reports that as a completeness failure rather than silently
// treating it as (0, 0).
type RegionAlignment struct {
	RegionID         quadrant.Quadrant `json:"region_id"`
	SourcePath       string            `json:"source_path"`
	SourceDimensions *Dimensions       `json:"source_dimensions"`
	Translation      *Translation      `json:"translation"`
}

// AlignmentRecord - the persisted unit. Written once after a successful
// first-pass stitch, read-only thereafter. Unknown JSON fields are ignored on
// load for forward compatibility.
type AlignmentRecord struct {
	SchemaVersion       string            `json:"schema_version"`
	CreatedAt           string            `json:"created_at"`
	CompositeOutputPath string            `json:"composite_output_path"`
	Regions             []RegionAlignment `json:"regions"`
}

// Region - lookup by quadrant tag, nil if the record has no entry for it
func (r *AlignmentRecord) Region(q quadrant.Quadrant) *RegionAlignment {
	for i := range r.Regions {
		if r.Regions[i].RegionID == q {
			return &r.Regions[i]
		}
	}
	return nil
}
