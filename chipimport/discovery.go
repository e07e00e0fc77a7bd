// Chip image handling: discovery of the chip file set matching an alignment
// record, and dimension reconciliation of what was (or wasn't) found.
//
// Chip scans are named after their quadrant scan with a marker token spliced
// in directly before the quadrant tag: "plate03NE.tif" -> "plate03ChipNE.tif".
// Discovery never opens pixel data, it only probes image headers.
package chipimport

import (
	"path"
	"strings"

	"github.com/nsew-imaging/chipstitch/alignment"
	"github.com/nsew-imaging/chipstitch/core/fileaccess"
	"github.com/nsew-imaging/chipstitch/core/imgcodec"
	"github.com/nsew-imaging/chipstitch/core/logger"
	"github.com/nsew-imaging/chipstitch/core/quadrant"
)

// ChipMarker - inserted before the quadrant tag, no separator
const ChipMarker = "Chip"

// SizeMismatch - a chip file was found but its dimensions differ from what
// the alignment record says its region should be
type SizeMismatch struct {
	RegionID         quadrant.Quadrant
	ChipPath         string
	FoundDimensions  alignment.Dimensions
	TargetDimensions alignment.Dimensions
}

// DiscoveredRegionSet - total description of what is and isn't available.
// Found keys and Missing together always equal the record's region ids.
type DiscoveredRegionSet struct {
	Record         *alignment.AlignmentRecord
	Found          map[quadrant.Quadrant]string
	Missing        map[quadrant.Quadrant]bool
	SizeMismatches []SizeMismatch
}

// ChipPathFor - derives the expected chip image path for a region source
// path. The stem must end with the region's quadrant tag.
func ChipPathFor(sourcePath string) (string, error) {
	dir := path.Dir(sourcePath)
	ext := path.Ext(sourcePath)
	stem := strings.TrimSuffix(path.Base(sourcePath), ext)

	prefix, tag, ok := quadrant.SplitStem(stem)
	if !ok {
		return "", &NamingPatternError{SourcePath: sourcePath}
	}

	return path.Join(dir, prefix+ChipMarker+string(tag)+ext), nil
}

type Discovery struct {
	fs    fileaccess.FileAccess
	codec imgcodec.ImageCodec
	log   logger.ILogger
}

func MakeDiscovery(fs fileaccess.FileAccess, codec imgcodec.ImageCodec, log logger.ILogger) Discovery {
	return Discovery{fs: fs, codec: codec, log: log}
}

// Find - locates chip images for every region in the record, in record
// order. A region with no chip file lands in Missing, that is not an error.
// Dimension mismatches are recorded but the region still counts as found.
// The only failures are an underivable chip name (NamingPatternError) and an
// unlistable source directory (DirectoryUnavailableError).
func (d *Discovery) Find(root string, record *alignment.AlignmentRecord) (*DiscoveredRegionSet, error) {
	result := &DiscoveredRegionSet{
		Record:         record,
		Found:          map[quadrant.Quadrant]string{},
		Missing:        map[quadrant.Quadrant]bool{},
		SizeMismatches: []SizeMismatch{},
	}

	for _, region := range record.Regions {
		chipPath, err := ChipPathFor(region.SourcePath)
		if err != nil {
			return nil, err
		}

		dir := path.Dir(region.SourcePath)
		listing, err := d.fs.ListObjects(root, dir)
		if err != nil {
			return nil, &DirectoryUnavailableError{Dir: dir, Err: err}
		}

		if !containsAtTopLevel(listing, dir, path.Base(chipPath)) {
			d.log.Debugf("No chip image for region %v (looked for %v)", region.RegionID, chipPath)
			result.Missing[region.RegionID] = true
			continue
		}

		result.Found[region.RegionID] = chipPath

		w, h, err := d.codec.ReadDimensions(chipPath)
		if err != nil {
			// Leave it in Found - reconciliation will hit the decode failure
			// and the region degrades to a placeholder there
			d.log.Errorf("Failed to probe dimensions of %v: %v", chipPath, err)
			continue
		}

		if region.SourceDimensions != nil && (w != region.SourceDimensions.Width || h != region.SourceDimensions.Height) {
			d.log.Infof("Region %v chip is %vx%v, expected %vx%v - will resize", region.RegionID, w, h, region.SourceDimensions.Width, region.SourceDimensions.Height)
			result.SizeMismatches = append(result.SizeMismatches, SizeMismatch{
				RegionID:         region.RegionID,
				ChipPath:         chipPath,
				FoundDimensions:  alignment.Dimensions{Width: w, Height: h},
				TargetDimensions: *region.SourceDimensions,
			})
		}
	}

	return result, nil
}

// Search is restricted to the source image's own directory, files in
// subdirectories don't count
func containsAtTopLevel(listing []string, dir string, base string) bool {
	listRoot := path.Join(dir)

	for _, objPath := range listing {
		rel := objPath
		if len(listRoot) > 0 && listRoot != "." && strings.HasPrefix(rel, listRoot+"/") {
			rel = rel[len(listRoot)+1:]
		}
		if strings.Contains(rel, "/") {
			continue
		}
		if rel == base {
			return true
		}
	}
	return false
}
