package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindSoundFont_ExplicitPath(t *testing.T) {
	tmpDir := t.TempDir()
	sfPath := filepath.Join(tmpDir, "custom.sf2")
	if err := os.WriteFile(sfPath, []byte("RIFF....sfbk"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	got, err := findSoundFont(sfPath, "")
	if err != nil {
		t.Fatalf("Expected explicit path to resolve: %v", err)
	}
	if got != sfPath {
		t.Errorf("Expected path %s, got %s", sfPath, got)
	}
}

func TestFindSoundFont_ExplicitPathWrongCase(t *testing.T) {
	tmpDir := t.TempDir()
	actual := filepath.Join(tmpDir, "Custom.SF2")
	if err := os.WriteFile(actual, []byte("RIFF....sfbk"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	got, err := findSoundFont(filepath.Join(tmpDir, "custom.sf2"), "")
	if err != nil {
		t.Fatalf("Expected case-insensitive lookup to resolve: %v", err)
	}
	if got != actual {
		t.Errorf("Expected actual-case path %s, got %s", actual, got)
	}
}

func TestFindSoundFont_ExplicitPathMissing(t *testing.T) {
	_, err := findSoundFont(filepath.Join(t.TempDir(), "missing.sf2"), "")
	if err == nil {
		t.Error("Expected error for missing explicit path")
	}
}

func TestFindSoundFont_CurrentDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	sfPath := filepath.Join(tmpDir, DefaultSoundFontName)
	if err := os.WriteFile(sfPath, []byte("RIFF....sfbk"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	originalDir, _ := os.Getwd()
	defer os.Chdir(originalDir)
	os.Chdir(tmpDir)

	got, err := findSoundFont("", "")
	if err != nil {
		t.Fatalf("Expected to find SoundFont in current directory: %v", err)
	}
	if got != DefaultSoundFontName {
		t.Errorf("Expected path %s, got %s", DefaultSoundFontName, got)
	}
}

func TestFindSoundFont_SongDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	songDir := filepath.Join(tmpDir, "songs")
	os.MkdirAll(songDir, 0755)

	// Deliberately the wrong case; the lookup should still land on it.
	actual := filepath.Join(songDir, "generaluser-gs.SF2")
	if err := os.WriteFile(actual, []byte("RIFF....sfbk"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	emptyDir := filepath.Join(tmpDir, "empty")
	os.MkdirAll(emptyDir, 0755)
	originalDir, _ := os.Getwd()
	defer os.Chdir(originalDir)
	os.Chdir(emptyDir)

	got, err := findSoundFont("", songDir)
	if err != nil {
		t.Fatalf("Expected to find SoundFont in song directory: %v", err)
	}
	if got != actual {
		t.Errorf("Expected path %s, got %s", actual, got)
	}
}

func TestFindSoundFont_NotFound(t *testing.T) {
	originalDir, _ := os.Getwd()
	defer os.Chdir(originalDir)
	os.Chdir(t.TempDir())

	_, err := findSoundFont("", "/nonexistent/path")
	if err == nil {
		t.Error("Expected error when no SoundFont found")
	}
}

func TestFindSoundFont_Priority(t *testing.T) {
	tmpDir := t.TempDir()
	songDir := filepath.Join(tmpDir, "songs")
	os.MkdirAll(songDir, 0755)

	os.WriteFile(filepath.Join(tmpDir, DefaultSoundFontName), []byte("RIFF-current"), 0644)
	os.WriteFile(filepath.Join(songDir, DefaultSoundFontName), []byte("RIFF-song"), 0644)

	originalDir, _ := os.Getwd()
	defer os.Chdir(originalDir)
	os.Chdir(tmpDir)

	got, err := findSoundFont("", songDir)
	if err != nil {
		t.Fatalf("Expected to find SoundFont: %v", err)
	}
	// The current directory outranks the song directory.
	if got != DefaultSoundFontName {
		t.Errorf("Expected current directory SoundFont, got %s", got)
	}
}
