package alignment

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/nsew-imaging/chipstitch/core/fileaccess"
	"github.com/nsew-imaging/chipstitch/core/logger"
	"github.com/nsew-imaging/chipstitch/core/quadrant"
	"github.com/nsew-imaging/chipstitch/core/timestamper"
)

func makeTestStore(fs fileaccess.FileAccess) Store {
	return MakeStore(fs, &timestamper.MockTimeNowStamper{QueuedTimeStamps: []int64{1714558200}}, &logger.NullLogger{})
}

func TestValidateStages(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(r *AlignmentRecord)
		wantStage Stage
	}{
		{
			name:      "valid record passes",
			mutate:    func(r *AlignmentRecord) {},
			wantStage: StageNone,
		},
		{
			name:      "schema version mismatch fails format",
			mutate:    func(r *AlignmentRecord) { r.SchemaVersion = "0.9" },
			wantStage: StageFormat,
		},
		{
			name:      "unparseable timestamp fails format",
			mutate:    func(r *AlignmentRecord) { r.CreatedAt = "yesterday-ish" },
			wantStage: StageFormat,
		},
		{
			name:      "unknown region tag fails format",
			mutate:    func(r *AlignmentRecord) { r.Regions[0].RegionID = "XX" },
			wantStage: StageFormat,
		},
		{
			name:      "non-positive dimensions fail format",
			mutate:    func(r *AlignmentRecord) { r.Regions[0].SourceDimensions = &Dimensions{Width: 0, Height: 900} },
			wantStage: StageFormat,
		},
		{
			name:      "non-finite translation fails format",
			mutate:    func(r *AlignmentRecord) { r.Regions[0].Translation = &Translation{Dx: math.NaN(), Dy: 0} },
			wantStage: StageFormat,
		},
		{
			name:      "missing schema version fails completeness",
			mutate:    func(r *AlignmentRecord) { r.SchemaVersion = "" },
			wantStage: StageCompleteness,
		},
		{
			// Missing translation must surface at completeness, never at
			// format (it isn't malformed, it's absent) or existence
			name:      "missing translation fails completeness",
			mutate:    func(r *AlignmentRecord) { r.Regions[1].Translation = nil },
			wantStage: StageCompleteness,
		},
		{
			name:      "missing dimensions fail completeness",
			mutate:    func(r *AlignmentRecord) { r.Regions[0].SourceDimensions = nil },
			wantStage: StageCompleteness,
		},
		{
			name: "duplicate region ids fail completeness",
			mutate: func(r *AlignmentRecord) {
				r.Regions[1].RegionID = r.Regions[0].RegionID
			},
			wantStage: StageCompleteness,
		},
		{
			name:      "no regions fails completeness",
			mutate:    func(r *AlignmentRecord) { r.Regions = []RegionAlignment{} },
			wantStage: StageCompleteness,
		},
		{
			name: "five regions fail completeness",
			mutate: func(r *AlignmentRecord) {
				extra := r.Regions[0]
				extra.RegionID = quadrant.SW
				r.Regions = append(r.Regions, r.Regions[0], r.Regions[1], extra)
			},
			wantStage: StageCompleteness,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fs := fileaccess.MakeMemoryAccess()
			store := makeTestStore(fs)

			record := makeTestRecord()
			test.mutate(record)

			outcome := store.Validate("", record, false)
			if outcome.FailedStage != test.wantStage {
				t.Errorf("failed stage: got %q want %q (errors: %v)", outcome.FailedStage, test.wantStage, outcome.Errors)
			}
			if outcome.OK != (test.wantStage == StageNone) {
				t.Errorf("OK=%v inconsistent with stage %q", outcome.OK, outcome.FailedStage)
			}
			if !outcome.OK && len(outcome.Errors) == 0 {
				t.Errorf("failed outcome carries no errors")
			}
		})
	}
}

// A missing source file is a warning, not an error - the dimensions the
// pipeline needs are already in the record
func TestValidateExistenceWarns(t *testing.T) {
	fs := fileaccess.MakeMemoryAccess()
	fs.WriteObject("", "scans/plate03NW.tif", []byte("fake"))
	// NE source deliberately absent

	store := makeTestStore(fs)
	record := makeTestRecord()

	outcome := store.Validate("", record, true)
	if !outcome.OK {
		t.Fatalf("expected OK outcome, got stage %v errors %v", outcome.FailedStage, outcome.Errors)
	}
	if len(outcome.Warnings) != 1 {
		t.Errorf("expected 1 warning for the missing NE source, got %v", outcome.Warnings)
	}

	// With existence checks off there should be no warnings at all
	outcome = store.Validate("", record, false)
	if len(outcome.Warnings) != 0 {
		t.Errorf("expected no warnings without existence checks, got %v", outcome.Warnings)
	}
}

// A storage fault while checking a source file is not the same as the file
// being absent - the stage must fail rather than warn
func TestValidateExistenceStatFault(t *testing.T) {
	fs := fileaccess.MakeMemoryAccess()
	fs.WriteObject("", "scans/plate03NW.tif", []byte("fake"))
	fs.WriteObject("", "scans/plate03NE.tif", []byte("fake"))
	fs.StatErrors["scans/plate03NE.tif"] = errors.New("i/o timeout")

	store := makeTestStore(fs)
	record := makeTestRecord()

	outcome := store.Validate("", record, true)
	if outcome.OK {
		t.Fatalf("expected failed outcome, got OK (warnings: %v)", outcome.Warnings)
	}
	if outcome.FailedStage != StageExistence {
		t.Errorf("expected existence stage, got %v", outcome.FailedStage)
	}
	if len(outcome.Errors) != 1 {
		t.Errorf("expected 1 error for the unstattable NE source, got %v", outcome.Errors)
	}

	// Without existence checks the same record passes
	if outcome := store.Validate("", record, false); !outcome.OK {
		t.Errorf("stat fault must not leak into earlier stages: %v", outcome.Errors)
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	fs := fileaccess.MakeMemoryAccess()
	store := makeTestStore(fs)

	record := makeTestRecord()
	record.Regions[0].RegionID = "XX" // force a format failure

	first := store.Validate("", record, true)
	second := store.Validate("", record, true)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("validate not idempotent (-first +second):\n%v", diff)
	}
}
