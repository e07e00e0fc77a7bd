package alignment

import (
	"fmt"
	"strings"
)

// PersistenceError - I/O failure while writing a sidecar record
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist alignment record to %v: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// CorruptedRecordError - sidecar file exists but isn't parseable at all
type CorruptedRecordError struct {
	Path string
	Err  error
}

func (e *CorruptedRecordError) Error() string {
	return fmt.Sprintf("alignment record %v is corrupted: %v", e.Path, e.Err)
}

func (e *CorruptedRecordError) Unwrap() error {
	return e.Err
}

// IncompleteRecordError - record parsed but required fields are absent or the
// wrong shape. Problems lists each issue in validation order.
type IncompleteRecordError struct {
	Path     string
	Stage    Stage
	Problems []string
}

func (e *IncompleteRecordError) Error() string {
	where := ""
	if len(e.Path) > 0 {
		where = " " + e.Path
	}
	return fmt.Sprintf("alignment record%v is incomplete (%v stage): %v", where, e.Stage, strings.Join(e.Problems, "; "))
}
