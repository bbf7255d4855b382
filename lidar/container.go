package lidar

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	terrane "github.com/kestrel-gis/terrane"
)

// OpenPointCloud reads path as either a bare LAS/ZLidar file or, if its
// extension is ".zip", a single-entry ZIP archive wrapping one, per
// spec.md §4.4.4: "a .las file may be wrapped in a single-entry zip
// archive; the reader transparently decompresses it." The archive member's
// own extension (not the archive's) decides which codec reads it.
func OpenPointCloud(path string) (*LasFile, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return readByExtension(path)
	}

	entryPath, cleanup, err := extractSoleEntry(path)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return readByExtension(entryPath)
}

func readByExtension(path string) (*LasFile, error) {
	if strings.EqualFold(filepath.Ext(path), ".zlidar") {
		return ReadZLidar(path)
	}
	return ReadLAS(path)
}

// extractSoleEntry unpacks a zip archive's single member to a temporary
// file, returning its path and a cleanup func. Per spec.md §4.4.4, an
// archive with zero or more than one member is rejected with
// terrane.ErrInvalidData, and a member compressed with a method other than
// Store/Deflate with terrane.ErrUnsupported.
func extractSoleEntry(path string) (string, func(), error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", nil, terrane.ErrIo
	}
	defer zr.Close()

	if len(zr.File) != 1 {
		return "", nil, terrane.ErrInvalidData
	}
	entry := zr.File[0]
	switch entry.Method {
	case zip.Store, zip.Deflate:
	default:
		return "", nil, terrane.ErrUnsupported
	}

	rc, err := entry.Open()
	if err != nil {
		return "", nil, terrane.ErrIo
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "zlidar-entry-*"+filepath.Ext(entry.Name))
	if err != nil {
		return "", nil, terrane.ErrIo
	}
	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, terrane.ErrIo
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, terrane.ErrIo
	}

	name := tmp.Name()
	return name, func() { os.Remove(name) }, nil
}
