// Package fileutil provides case-insensitive file lookup. Preset files
// written on case-insensitive file systems reference songs, SoundFonts
// and images in whatever case the author happened to type; on a
// case-sensitive system those references need a directory scan.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FindFileCaseInsensitive searches dir for a file whose name matches
// filename ignoring case and returns the path with the name's actual
// spelling. Directories are never matched. When several entries differ
// only by case the first directory-order match wins.
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	searchName := strings.ToLower(filename)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(entry.Name()) == searchName {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("file not found: %s (searched in %s)", filename, dir)
}
