package alignment

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nsew-imaging/chipstitch/core/quadrant"
)

func makeTestRecord() *AlignmentRecord {
	return &AlignmentRecord{
		SchemaVersion:       SchemaVersion,
		CreatedAt:           "2024-05-01T10:30:00Z",
		CompositeOutputPath: "scans/plate03_stitched.tif",
		Regions: []RegionAlignment{
			{
				RegionID:         quadrant.NW,
				SourcePath:       "scans/plate03NW.tif",
				SourceDimensions: &Dimensions{Width: 1200, Height: 900},
				Translation:      &Translation{Dx: 0, Dy: 0},
			},
			{
				RegionID:         quadrant.NE,
				SourcePath:       "scans/plate03NE.tif",
				SourceDimensions: &Dimensions{Width: 1200, Height: 900},
				Translation:      &Translation{Dx: 1150.5, Dy: -2.25},
			},
		},
	}
}

func TestRecordJSONRoundTrip(t *testing.T) {
	record := makeTestRecord()

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	read := &AlignmentRecord{}
	if err := json.Unmarshal(data, read); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if diff := cmp.Diff(record, read); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%v", diff)
	}
}

// The wire shape is fixed by the sidecar format: dimensions and translations
// are 2-element arrays, not objects
func Example_recordWireShape() {
	record := &AlignmentRecord{
		SchemaVersion:       SchemaVersion,
		CreatedAt:           "2024-05-01T10:30:00Z",
		CompositeOutputPath: "out.tif",
		Regions: []RegionAlignment{
			{
				RegionID:         quadrant.SE,
				SourcePath:       "plateSE.tif",
				SourceDimensions: &Dimensions{Width: 120, Height: 150},
				Translation:      &Translation{Dx: -3.5, Dy: 12},
			},
		},
	}

	data, _ := json.Marshal(record)
	fmt.Println(string(data))

	// Output:
	// {"schema_version":"1.0","created_at":"2024-05-01T10:30:00Z","composite_output_path":"out.tif","regions":[{"region_id":"SE","source_path":"plateSE.tif","source_dimensions":[120,150],"translation":[-3.5,12]}]}
}

// Tuples of the wrong arity must be rejected outright. encoding/json would
// happily zero-fill a fixed-size array, turning "[5]" into (5, 0) and
// silently corrupting the reused geometry.
func TestTupleArityRejected(t *testing.T) {
	for _, tuple := range []string{`[]`, `[5]`, `[1, 2, 3]`} {
		var tr Translation
		if err := json.Unmarshal([]byte(tuple), &tr); err == nil {
			t.Errorf("translation %v should be rejected, got %+v", tuple, tr)
		}

		var dims Dimensions
		if err := json.Unmarshal([]byte(tuple), &dims); err == nil {
			t.Errorf("dimensions %v should be rejected, got %+v", tuple, dims)
		}
	}

	// Exactly two elements still parse
	var tr Translation
	if err := json.Unmarshal([]byte(`[1.5, -2]`), &tr); err != nil {
		t.Errorf("valid pair rejected: %v", err)
	} else if tr.Dx != 1.5 || tr.Dy != -2 {
		t.Errorf("valid pair mangled: %+v", tr)
	}
}

func TestUnknownFieldsIgnored(t *testing.T) {
	data := []byte(`{
		"schema_version": "1.0",
		"created_at": "2024-05-01T10:30:00Z",
		"composite_output_path": "out.tif",
		"future_field": {"nested": true},
		"regions": [
			{"region_id": "NW", "source_path": "aNW.tif", "source_dimensions": [10, 20], "translation": [1, 2], "another_future_field": 7}
		]
	}`)

	record := &AlignmentRecord{}
	if err := json.Unmarshal(data, record); err != nil {
		t.Fatalf("unmarshal with unknown fields failed: %v", err)
	}
	if len(record.Regions) != 1 || record.Regions[0].SourceDimensions.Width != 10 {
		t.Errorf("record not populated: %+v", record)
	}
}

func TestRegionLookup(t *testing.T) {
	record := makeTestRecord()

	if region := record.Region(quadrant.NE); region == nil || region.SourcePath != "scans/plate03NE.tif" {
		t.Errorf("NE lookup failed: %+v", region)
	}
	if region := record.Region(quadrant.SW); region != nil {
		t.Errorf("SW should not be present, got %+v", region)
	}
}
