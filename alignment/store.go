package alignment

import (
	"encoding/json"
	"path"
	"strings"
	"time"

	"github.com/nsew-imaging/chipstitch/core/fileaccess"
	"github.com/nsew-imaging/chipstitch/core/logger"
	"github.com/nsew-imaging/chipstitch/core/timestamper"
	"github.com/pkg/errors"
)

// SidecarSuffix - alignment records live next to the composite they describe,
// named <composite stem> + this suffix
const SidecarSuffix = ".alignment.json"

var ErrNoSidecarFound = errors.New("no alignment sidecar found")

// Store - saves, loads and validates alignment records through a FileAccess,
// so records work the same on a local drive or shared S3 storage.
type Store struct {
	fs  fileaccess.FileAccess
	ts  timestamper.ITimeStamper
	log logger.ILogger
}

func MakeStore(fs fileaccess.FileAccess, ts timestamper.ITimeStamper, log logger.ILogger) Store {
	return Store{fs: fs, ts: ts, log: log}
}

// SidecarPathForComposite - "scans/plate_stitched.tif" -> "scans/plate_stitched.alignment.json"
func SidecarPathForComposite(compositePath string) string {
	ext := path.Ext(compositePath)
	return strings.TrimSuffix(compositePath, ext) + SidecarSuffix
}

// Save - stamps created_at if unset, validates, then writes atomically.
// Validation failures come back as IncompleteRecordError, I/O failures as
// PersistenceError.
func (s *Store) Save(root string, sidecarPath string, record *AlignmentRecord) error {
	if len(record.CreatedAt) <= 0 {
		record.CreatedAt = time.Unix(s.ts.GetTimeNowSec(), 0).UTC().Format(time.RFC3339)
	}

	outcome := s.Validate(root, record, false)
	if !outcome.OK {
		return &IncompleteRecordError{Path: sidecarPath, Stage: outcome.FailedStage, Problems: outcome.Errors}
	}

	data, err := json.MarshalIndent(record, "", "    ")
	if err != nil {
		return &PersistenceError{Path: sidecarPath, Err: err}
	}

	if err := s.fs.WriteObject(root, sidecarPath, data); err != nil {
		return &PersistenceError{Path: sidecarPath, Err: err}
	}

	s.log.Infof("Saved alignment record: %v (%v regions)", sidecarPath, len(record.Regions))
	return nil
}

// Load - parses a sidecar. Unparseable data is a CorruptedRecordError,
// parseable JSON of the wrong shape (or with the required top-level fields
// absent) is an IncompleteRecordError. Whether referenced files still exist
// is Validate's job, not Load's.
func (s *Store) Load(root string, sidecarPath string) (*AlignmentRecord, error) {
	data, err := s.fs.ReadObject(root, sidecarPath)
	if err != nil {
		return nil, &PersistenceError{Path: sidecarPath, Err: err}
	}

	record := &AlignmentRecord{}
	if err := json.Unmarshal(data, record); err != nil {
		if !json.Valid(data) {
			return nil, &CorruptedRecordError{Path: sidecarPath, Err: err}
		}
		// Valid JSON that doesn't fit the record shape
		return nil, &IncompleteRecordError{Path: sidecarPath, Stage: StageFormat, Problems: []string{err.Error()}}
	}

	problems := []string{}
	if len(record.SchemaVersion) <= 0 {
		problems = append(problems, "missing schema_version")
	}
	if record.Regions == nil {
		problems = append(problems, "missing regions")
	}
	if len(problems) > 0 {
		return nil, &IncompleteRecordError{Path: sidecarPath, Stage: StageCompleteness, Problems: problems}
	}

	return record, nil
}

// FindLatestSidecar - picks the most recently modified sidecar directly in
// dir (not subdirectories). Identical modification times are broken by
// lexicographic path order, greatest wins, so the pick is deterministic on
// filesystems with coarse timestamps.
func (s *Store) FindLatestSidecar(root string, dir string) (string, error) {
	listing, err := s.fs.ListObjects(root, dir)
	if err != nil {
		return "", errors.Wrapf(err, "failed to list %v", dir)
	}

	listRoot := path.Join(dir)

	best := ""
	var bestTime time.Time
	for _, objPath := range listing {
		rel := objPath
		if len(listRoot) > 0 && strings.HasPrefix(rel, listRoot+"/") {
			rel = rel[len(listRoot)+1:]
		}
		if strings.Contains(rel, "/") || !strings.HasSuffix(rel, SidecarSuffix) {
			continue
		}

		modTime, err := s.fs.LastModified(root, objPath)
		if err != nil {
			s.log.Errorf("Failed to stat sidecar candidate %v: %v", objPath, err)
			continue
		}

		if best == "" || modTime.After(bestTime) || (modTime.Equal(bestTime) && objPath > best) {
			best = objPath
			bestTime = modTime
		}
	}

	if best == "" {
		return "", errors.Wrap(ErrNoSidecarFound, dir)
	}

	s.log.Debugf("Latest alignment sidecar in %v: %v (modified %v)", dir, best, bestTime)
	return best, nil
}
