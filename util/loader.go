package util

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nvr-ai/go-fiducial/images"
	"github.com/pkg/errors"
)

// ListImageFiles returns the supported image files directly inside dir, sorted by name.
// Subdirectories are not descended into.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []string: Paths of the image files, joined with dir.
// - error: Error if the directory cannot be read.
func ListImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", dir)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if images.IsSupportedPath(entry.Name()) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// ExpandInputs replaces every directory in paths with its image files and keeps files as
// given. Order is preserved and duplicates are dropped.
//
// Arguments:
// - paths: Files and directories, typically command line arguments.
//
// Returns:
// - []string: The files to process.
// - error: Error if a path does not exist or a directory cannot be read.
//
// @example
// files, err := util.ExpandInputs([]string{"scans/", "extra.jpg"})
func ExpandInputs(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, errors.Wrapf(err, "input %s", p)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		dirFiles, err := ListImageFiles(p)
		if err != nil {
			return nil, err
		}
		for _, f := range dirFiles {
			add(f)
		}
	}
	return files, nil
}

// OutputPath returns where the result for input is written: <name><suffix><ext> next to
// input, or inside outputDir when it is set.
func OutputPath(input, outputDir, suffix string) string {
	ext := filepath.Ext(input)
	name := strings.TrimSuffix(filepath.Base(input), ext) + suffix + ext
	if outputDir == "" {
		return filepath.Join(filepath.Dir(input), name)
	}
	return filepath.Join(outputDir, name)
}
