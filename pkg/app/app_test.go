package app

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/veskel/phosphene/pkg/preset"
	"github.com/veskel/phosphene/pkg/render"
)

func TestDefaultPresetParses(t *testing.T) {
	file, err := preset.Parse(defaultPreset)
	if err != nil {
		t.Fatalf("default preset must parse: %v", err)
	}

	movement := file.Section("movement")
	if movement == nil {
		t.Fatal("default preset should have a movement section")
	}
	if got := movement.Int("preset", -1); got != 12 {
		t.Errorf("movement preset = %d, want 12", got)
	}
	if file.Section("colormod") == nil {
		t.Fatal("default preset should have a colormod section")
	}
}

func TestResolvePath(t *testing.T) {
	tmpDir := t.TempDir()
	actual := filepath.Join(tmpDir, "Show.FX")
	if err := os.WriteFile(actual, []byte("[movement]\npreset = 1\n"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	t.Run("exact path", func(t *testing.T) {
		got, err := resolvePath(actual)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != actual {
			t.Errorf("resolvePath = %q, want %q", got, actual)
		}
	})

	t.Run("wrong case falls back to directory scan", func(t *testing.T) {
		got, err := resolvePath(filepath.Join(tmpDir, "show.fx"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != actual {
			t.Errorf("resolvePath = %q, want %q", got, actual)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := resolvePath(filepath.Join(tmpDir, "nope.fx")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestWritePNG(t *testing.T) {
	buf := render.NewBuffer(4, 3)
	buf.Set(1, 0, 0x00345678)
	buf.Set(3, 2, 0xFFFF0000)

	name := filepath.Join(t.TempDir(), "frame.png")
	if err := writePNG(name, buf); err != nil {
		t.Fatalf("writePNG: %v", err)
	}

	f, err := os.Open(name)
	if err != nil {
		t.Fatalf("Failed to open written file: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Failed to decode PNG: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Fatalf("decoded size = %v, want 4x3", img.Bounds())
	}

	r, g, b, a := img.At(1, 0).RGBA()
	if r>>8 != 0x34 || g>>8 != 0x56 || b>>8 != 0x78 || a>>8 != 0xFF {
		t.Errorf("pixel (1,0) = %02x %02x %02x %02x, want 34 56 78 ff", r>>8, g>>8, b>>8, a>>8)
	}
	r, _, _, _ = img.At(3, 2).RGBA()
	if r>>8 != 0xFF {
		t.Errorf("pixel (3,2) red = %02x, want ff", r>>8)
	}
}

func TestRunHelp(t *testing.T) {
	app := New()
	if err := app.Run([]string{"-h"}); err != nil {
		t.Fatalf("help run should succeed: %v", err)
	}
}

func TestRunInvalidArgs(t *testing.T) {
	app := New()
	if err := app.Run([]string{"--log-level", "bogus"}); err == nil {
		t.Error("expected error for invalid log level")
	}
}

func TestRunMissingPreset(t *testing.T) {
	originalDir, _ := os.Getwd()
	defer os.Chdir(originalDir)
	os.Chdir(t.TempDir())

	app := New()
	err := app.Run([]string{"-headless", "-frames", "1", "nope.fx"})
	if err == nil {
		t.Error("expected error for missing preset file")
	}
}

func TestRunHeadless(t *testing.T) {
	tmpDir := t.TempDir()
	presetPath := filepath.Join(tmpDir, "red.fx")
	src := "[colormod]\npoint = r = 1; g = 0; b = 0\n"
	if err := os.WriteFile(presetPath, []byte(src), 0644); err != nil {
		t.Fatalf("Failed to create preset: %v", err)
	}

	originalDir, _ := os.Getwd()
	defer os.Chdir(originalDir)
	os.Chdir(tmpDir)

	app := New()
	err := app.Run([]string{"-headless", "-frames", "2", "-size", "32x24", "red.fx"})
	if err != nil {
		t.Fatalf("headless run failed: %v", err)
	}

	for _, name := range []string{"frame-0000.png", "frame-0001.png"} {
		f, err := os.Open(name)
		if err != nil {
			t.Fatalf("missing output frame %s: %v", name, err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("Failed to decode %s: %v", name, err)
		}
		if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 24 {
			t.Fatalf("%s size = %v, want 32x24", name, img.Bounds())
		}
		r, g, b, _ := img.At(5, 5).RGBA()
		if r>>8 != 0xFF || g != 0 || b != 0 {
			t.Errorf("%s pixel = %02x %02x %02x, want red", name, r>>8, g>>8, b>>8)
		}
	}
	if _, err := os.Stat("frame-0002.png"); err == nil {
		t.Error("rendered more frames than requested")
	}
}
