package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestFileName is the manifest looked up when no path is given.
const ManifestFileName = "crossgen.toml"

// FindManifest walks up from startDir to locate crossgen.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// ResolveManifestPath returns arg when it names a file, the manifest inside
// arg when it names a directory, or the nearest manifest above the working
// directory when arg is empty.
func ResolveManifestPath(arg string) (string, error) {
	if arg == "" {
		path, ok, err := FindManifest(".")
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("no %s found\nplease specify the manifest explicitly, e.g.:\n  crossgen analyze path/to/%s", ManifestFileName, ManifestFileName)
		}
		return path, nil
	}
	info, err := os.Stat(arg)
	if err != nil {
		return "", fmt.Errorf("failed to stat %q: %w", arg, err)
	}
	if info.IsDir() {
		return filepath.Join(arg, ManifestFileName), nil
	}
	return arg, nil
}
