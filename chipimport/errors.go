package chipimport

import "fmt"

// NamingPatternError - a source file name doesn't end in a quadrant tag, so
// no chip file name can be derived from it
type NamingPatternError struct {
	SourcePath string
}

func (e *NamingPatternError) Error() string {
	return fmt.Sprintf("cannot derive chip file name: %v does not end with a quadrant tag", e.SourcePath)
}

// DirectoryUnavailableError - the directory holding a region's source image
// couldn't be listed, eg deleted between validation and discovery
type DirectoryUnavailableError struct {
	Dir string
	Err error
}

func (e *DirectoryUnavailableError) Error() string {
	return fmt.Sprintf("cannot list directory %v: %v", e.Dir, e.Err)
}

func (e *DirectoryUnavailableError) Unwrap() error {
	return e.Err
}

// UnreadableImageError - a chip file exists but its pixel data can't be
// decoded. The session decides whether to retry the region as a placeholder.
type UnreadableImageError struct {
	Path string
	Err  error
}

func (e *UnreadableImageError) Error() string {
	return fmt.Sprintf("cannot decode image %v: %v", e.Path, e.Err)
}

func (e *UnreadableImageError) Unwrap() error {
	return e.Err
}
