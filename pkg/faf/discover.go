package faf

import (
	"fmt"
	"os"
	"path/filepath"
)

// maxDiscoveryDepth bounds the upward walk at ten parent directories.
const maxDiscoveryDepth = 10

// discoveryNames are the file names searched at each level, in priority
// order: project.faf is the modern name, .faf the legacy one.
var discoveryNames = []string{"project.faf", ".faf"}

// Discover walks up from start looking for a .faf file. It checks each
// directory for the known file names in priority order before moving to the
// parent, and gives up after maxDiscoveryDepth levels or at the filesystem
// root. It returns ErrNotFound when no file exists within reach.
func Discover(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("faf: discover: %w", err)
	}

	for depth := 0; depth < maxDiscoveryDepth; depth++ {
		for _, name := range discoveryNames {
			candidate := filepath.Join(dir, name)
			info, err := os.Stat(candidate)
			if err == nil && info.Mode().IsRegular() {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", ErrNotFound
}

// DiscoverAndParse finds the nearest .faf file and parses it.
func DiscoverAndParse(start string) (*ProjectDescription, string, error) {
	path, err := Discover(start)
	if err != nil {
		return nil, "", err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("faf: read %s: %w", path, err)
	}
	d, err := Parse(src)
	if err != nil {
		return nil, "", err
	}
	return d, path, nil
}
