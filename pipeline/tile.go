// Package pipeline rasterises collections of LiDAR tiles into one output
// raster per tile, per spec.md §4.6. Grounded on
// original_source/lidar_tin_gridding.rs's directory-enumeration/per-tile
// read/rasterise/write sequence.
package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kestrel-gis/terrane/lidar"

	terrane "github.com/kestrel-gis/terrane"
)

// lidarExtensions lists the file extensions the planning phase recognises
// when enumerating a directory, matching original_source's `.las`/`.zip`
// handling (extended to `.zlidar`, the one LiDAR codec this module adds that
// the original didn't have).
var lidarExtensions = map[string]bool{
	".las":    true,
	".zlidar": true,
	".zip":    true,
}

// Input is one planned input file: its path, its world-space bounding box
// (from the header-only scan), and whatever EPSG code its GeoKeyDirectory
// VLR carries (0 if none).
type Input struct {
	Path   string
	Bounds terrane.BBox
	EPSG   uint16
}

// Job is one planned (input, output) pair: a single tile of work for the
// worker pool, per spec.md §4.6 step 1.
type Job struct {
	Index  int
	Input  Input
	Output string
}

// Plan resolves inputPath into the full job list, per spec.md §4.6 step 1:
// a single file becomes one job; a directory is enumerated for every
// LiDAR-extension file it directly contains, each becoming its own job.
// Every planned input's header is scanned up front (step 2) so that a
// later tile's halo read can test overlap against the whole input set, not
// just its own file.
func Plan(inputPath, outputDir string) ([]Job, error) {
	paths, err := enumerateInputs(inputPath)
	if err != nil {
		return nil, err
	}

	jobs := make([]Job, 0, len(paths))
	for i, p := range paths {
		in, err := ScanBounds(p)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, Job{
			Index:  i,
			Input:  in,
			Output: outputPath(p, outputDir),
		})
	}
	return jobs, nil
}

func enumerateInputs(inputPath string) ([]string, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, terrane.ErrIo
	}
	if !info.IsDir() {
		return []string{inputPath}, nil
	}

	entries, err := os.ReadDir(inputPath)
	if err != nil {
		return nil, terrane.ErrIo
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if lidarExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(inputPath, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// outputPath derives a tile's output raster path from its input path,
// mirroring the original's `.replace(".las", ".tif")` pattern: same base
// name, `.tif` extension, placed in outputDir if given or alongside the
// input otherwise.
func outputPath(inputPath, outputDir string) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath)) + ".tif"
	if outputDir != "" {
		return filepath.Join(outputDir, base)
	}
	return filepath.Join(filepath.Dir(inputPath), base)
}

// ScanBounds implements spec.md §4.6 step 2: read just the header (and VLRs)
// of a LiDAR input and record its world-space bounding box and EPSG code,
// without touching point data. A `.zip`-wrapped input must be extracted
// before its header can be parsed, so that one case reads and decodes the
// whole member, points included, through lidar.OpenPointCloud.
func ScanBounds(path string) (Input, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".las":
		return scanLASBounds(path)
	case ".zlidar":
		return scanZLidarBounds(path)
	case ".zip":
		return scanZipBounds(path)
	default:
		return Input{}, terrane.ErrUnsupported
	}
}

func scanLASBounds(path string) (Input, error) {
	h, vlrs, err := lidar.ReadLASHeaderOnly(path)
	if err != nil {
		return Input{}, err
	}
	return inputFromHeader(path, h, vlrs), nil
}

func scanZLidarBounds(path string) (Input, error) {
	h, vlrs, err := lidar.ReadZLidarHeaderOnly(path)
	if err != nil {
		return Input{}, err
	}
	return inputFromHeader(path, h, vlrs), nil
}

func scanZipBounds(path string) (Input, error) {
	lf, err := lidar.OpenPointCloud(path)
	if err != nil {
		return Input{}, err
	}
	return inputFromHeader(path, lf.Header, lf.VLRs), nil
}

func inputFromHeader(path string, h *lidar.Header, vlrs []*lidar.VLR) Input {
	in := Input{
		Path: path,
		Bounds: terrane.BBox{
			North: h.MaxY,
			South: h.MinY,
			East:  h.MaxX,
			West:  h.MinX,
		},
	}
	for _, v := range vlrs {
		if v.RecordID == lidar.RecordIDGeoKeyDirectory {
			in.EPSG = lidar.EPSGFromGeoKeys(v.Payload)
			break
		}
	}
	return in
}
