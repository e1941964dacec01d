package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindFileCaseInsensitive(t *testing.T) {
	tmpDir := t.TempDir()

	testFiles := []string{
		"Show.FX",
		"SONG.MID",
		"GeneralUser-GS.sf2",
	}
	for _, filename := range testFiles {
		path := filepath.Join(tmpDir, filename)
		if err := os.WriteFile(path, []byte("test"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}
	// A directory with a matching name must never be returned.
	if err := os.Mkdir(filepath.Join(tmpDir, "backup.mid"), 0755); err != nil {
		t.Fatalf("Failed to create test directory: %v", err)
	}

	tests := []struct {
		name          string
		searchName    string
		shouldFind    bool
		expectedMatch string
	}{
		{
			name:          "exact match",
			searchName:    "Show.FX",
			shouldFind:    true,
			expectedMatch: "Show.FX",
		},
		{
			name:          "lowercase search for mixed case file",
			searchName:    "show.fx",
			shouldFind:    true,
			expectedMatch: "Show.FX",
		},
		{
			name:          "mixed case search for uppercase file",
			searchName:    "Song.mid",
			shouldFind:    true,
			expectedMatch: "SONG.MID",
		},
		{
			name:          "uppercase search for mixed case file",
			searchName:    "GENERALUSER-GS.SF2",
			shouldFind:    true,
			expectedMatch: "GeneralUser-GS.sf2",
		},
		{
			name:       "file not found",
			searchName: "nonexistent.fx",
			shouldFind: false,
		},
		{
			name:       "directory is not a match",
			searchName: "BACKUP.MID",
			shouldFind: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := FindFileCaseInsensitive(tmpDir, tt.searchName)

			if !tt.shouldFind {
				if err == nil {
					t.Errorf("Expected error, but got path: %s", path)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected to find file, but got error: %v", err)
			}
			if got := filepath.Base(path); got != tt.expectedMatch {
				t.Errorf("Expected filename %s, got %s", tt.expectedMatch, got)
			}
			if _, err := os.Stat(path); err != nil {
				t.Errorf("Returned path does not exist: %s", path)
			}
		})
	}
}

func TestFindFileCaseInsensitiveMissingDir(t *testing.T) {
	if _, err := FindFileCaseInsensitive("/nonexistent/dir", "a.fx"); err == nil {
		t.Error("Expected error for unreadable directory")
	}
}
