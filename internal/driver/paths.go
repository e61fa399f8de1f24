package driver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"quill/internal/project"
)

// ErrNoUnits is returned when the given paths hold no unit files.
var ErrNoUnits = errors.New("no unit files found")

// ExpandPaths turns files and directories into a sorted, duplicate-free list
// of unit files. Directories are walked recursively; manifests and hidden
// directories are skipped. Explicit files are kept whatever their extension so
// that unknown formats are reported instead of ignored.
func ExpandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, filepath.ToSlash(filepath.Clean(p)))
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && len(d.Name()) > 1 && d.Name()[0] == '.' {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Name() == project.ManifestName || project.FormatOf(path) == project.FormatUnknown {
				return nil
			}
			out = append(out, filepath.ToSlash(filepath.Clean(path)))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if len(out) == 0 {
		return nil, ErrNoUnits
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
