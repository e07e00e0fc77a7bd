package alignment

import (
	"fmt"
	"math"
	"time"

	"github.com/nsew-imaging/chipstitch/core/quadrant"
)

// Stage - which validation stage a record failed at
type Stage string

const (
	StageNone         Stage = ""
	StageFormat       Stage = "format"
	StageCompleteness Stage = "completeness"
	StageExistence    Stage = "existence"
)

// ValidationOutcome - validation is always returned as data, never as a Go
// error. Callers decide whether a failed outcome blocks them.
type ValidationOutcome struct {
	OK          bool
	FailedStage Stage
	Errors      []string
	Warnings    []string
}

// Timestamp layouts we accept for created_at. RFC3339 is what we write, the
// rest cover sidecars produced by earlier tooling.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseableTimestamp(val string) bool {
	for _, layout := range createdAtLayouts {
		if _, err := time.Parse(layout, val); err == nil {
			return true
		}
	}
	return false
}

// Validate - runs the three ordered stages (format, completeness, optionally
// existence), short-circuiting at the first stage that produces errors.
// A missing source file is a warning only - it doesn't block a restitch
// because the dimensions needed are already captured in the record - but a
// storage fault while checking fails the existence stage.
func (s *Store) Validate(root string, record *AlignmentRecord, checkExistence bool) ValidationOutcome {
	outcome := ValidationOutcome{OK: true, Errors: []string{}, Warnings: []string{}}

	// Stage 1: format - every field that IS present has the expected shape
	if len(record.SchemaVersion) > 0 && record.SchemaVersion != SchemaVersion {
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("unsupported schema_version \"%v\", expected \"%v\"", record.SchemaVersion, SchemaVersion))
	}
	if len(record.CreatedAt) > 0 && !parseableTimestamp(record.CreatedAt) {
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("created_at \"%v\" is not a parseable timestamp", record.CreatedAt))
	}
	for i, region := range record.Regions {
		if len(region.RegionID) > 0 && !quadrant.IsValid(string(region.RegionID)) {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("regions[%v]: region_id \"%v\" is not a known quadrant tag", i, region.RegionID))
		}
		if region.SourceDimensions != nil && (region.SourceDimensions.Width <= 0 || region.SourceDimensions.Height <= 0) {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("regions[%v]: source_dimensions %vx%v must both be > 0", i, region.SourceDimensions.Width, region.SourceDimensions.Height))
		}
		if region.Translation != nil {
			if math.IsNaN(region.Translation.Dx) || math.IsInf(region.Translation.Dx, 0) ||
				math.IsNaN(region.Translation.Dy) || math.IsInf(region.Translation.Dy, 0) {
				outcome.Errors = append(outcome.Errors, fmt.Sprintf("regions[%v]: translation is not finite", i))
			}
		}
	}
	if len(outcome.Errors) > 0 {
		outcome.OK = false
		outcome.FailedStage = StageFormat
		return outcome
	}

	// Stage 2: completeness - required fields present and non-empty
	if len(record.SchemaVersion) <= 0 {
		outcome.Errors = append(outcome.Errors, "missing schema_version")
	}
	if len(record.CreatedAt) <= 0 {
		outcome.Errors = append(outcome.Errors, "missing created_at")
	}
	if len(record.CompositeOutputPath) <= 0 {
		outcome.Errors = append(outcome.Errors, "missing composite_output_path")
	}
	if len(record.Regions) < 1 || len(record.Regions) > 4 {
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("regions must have 1-4 entries, got %v", len(record.Regions)))
	}
	seen := map[quadrant.Quadrant]bool{}
	for i, region := range record.Regions {
		if len(region.RegionID) <= 0 {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("regions[%v]: missing region_id", i))
			continue
		}
		if seen[region.RegionID] {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("regions[%v]: duplicate region_id \"%v\"", i, region.RegionID))
		}
		seen[region.RegionID] = true

		if len(region.SourcePath) <= 0 {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("region %v: missing source_path", region.RegionID))
		}
		if region.SourceDimensions == nil {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("region %v: missing source_dimensions", region.RegionID))
		}
		if region.Translation == nil {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("region %v: missing translation", region.RegionID))
		}
	}
	if len(outcome.Errors) > 0 {
		outcome.OK = false
		outcome.FailedStage = StageCompleteness
		return outcome
	}

	// Stage 3: existence - source files still on disk. A missing file is only
	// a warning, the recorded dimensions are enough to proceed. A storage
	// fault while checking (can't stat, can't reach the bucket) is an error:
	// it means the answer is unknown, not "no".
	if checkExistence {
		for _, region := range record.Regions {
			exists, err := s.fs.ObjectExists(root, region.SourcePath)
			if err != nil {
				outcome.Errors = append(outcome.Errors, fmt.Sprintf("region %v: could not check source file %v: %v", region.RegionID, region.SourcePath, err))
				continue
			}
			if !exists {
				outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("region %v: source file %v no longer exists (dimensions already recorded, proceeding)", region.RegionID, region.SourcePath))
			}
		}
		if len(outcome.Errors) > 0 {
			outcome.OK = false
			outcome.FailedStage = StageExistence
			return outcome
		}
	}

	return outcome
}
