package cli

import "testing"

func TestParseArgs_ValidArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected Config
	}{
		{
			name: "defaults",
			args: []string{},
			expected: Config{
				Width: 640, Height: 480,
				Frames:   600,
				LogLevel: "info",
			},
		},
		{
			name: "positional preset path",
			args: []string{"show.fx"},
			expected: Config{
				PresetPath: "show.fx",
				Width:      640, Height: 480,
				Frames:   600,
				LogLevel: "info",
			},
		},
		{
			name: "preset flag wins over positional",
			args: []string{"-preset", "a.fx", "b.fx"},
			expected: Config{
				PresetPath: "a.fx",
				Width:      640, Height: 480,
				Frames:   600,
				LogLevel: "info",
			},
		},
		{
			name: "midi and soundfont",
			args: []string{"-midi", "song.mid", "-soundfont", "gm.sf2"},
			expected: Config{
				MIDIPath:      "song.mid",
				SoundFontPath: "gm.sf2",
				Width:         640, Height: 480,
				Frames:   600,
				LogLevel: "info",
			},
		},
		{
			name: "size",
			args: []string{"--size", "320x200"},
			expected: Config{
				Width: 320, Height: 200,
				Frames:   600,
				LogLevel: "info",
			},
		},
		{
			name: "headless with frames",
			args: []string{"--headless", "-frames", "42"},
			expected: Config{
				Width: 640, Height: 480,
				Frames:   42,
				Headless: true,
				LogLevel: "info",
			},
		},
		{
			name: "log level",
			args: []string{"--log-level", "debug"},
			expected: Config{
				Width: 640, Height: 480,
				Frames:   600,
				LogLevel: "debug",
			},
		},
		{
			name: "help shorthand",
			args: []string{"-h"},
			expected: Config{
				Width: 640, Height: 480,
				Frames:   600,
				LogLevel: "info",
				ShowHelp: true,
			},
		},
		{
			name: "flags after positional argument",
			args: []string{"show.fx", "--headless", "-size", "100x100"},
			expected: Config{
				PresetPath: "show.fx",
				Width:      100, Height: 100,
				Frames:   600,
				Headless: true,
				LogLevel: "info",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := ParseArgs(tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *config != tt.expected {
				t.Errorf("config = %+v, want %+v", *config, tt.expected)
			}
		})
	}
}

func TestParseArgs_InvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "negative frames", args: []string{"-frames", "-5"}},
		{name: "invalid log level", args: []string{"--log-level", "trace"}},
		{name: "size missing separator", args: []string{"-size", "640"}},
		{name: "size zero dimension", args: []string{"-size", "0x480"}},
		{name: "size not numeric", args: []string{"-size", "axb"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParseArgs_Environment(t *testing.T) {
	t.Setenv("HEADLESS", "1")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SOUNDFONT", "/usr/share/sf2/gm.sf2")

	config, err := ParseArgs(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !config.Headless {
		t.Error("HEADLESS=1 should enable headless mode")
	}
	if config.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want %q", config.LogLevel, "warn")
	}
	if config.SoundFontPath != "/usr/share/sf2/gm.sf2" {
		t.Errorf("SoundFontPath = %q, want env value", config.SoundFontPath)
	}

	// Flags still win.
	config, err = ParseArgs([]string{"--log-level", "error", "-soundfont", "local.sf2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want %q", config.LogLevel, "error")
	}
	if config.SoundFontPath != "local.sf2" {
		t.Errorf("SoundFontPath = %q, want flag value", config.SoundFontPath)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		w, h    int
		wantErr bool
	}{
		{"640x480", 640, 480, false},
		{"1920X1080", 1920, 1080, false},
		{"1x1", 1, 1, false},
		{"640", 0, 0, true},
		{"-640x480", 0, 0, true},
		{"x", 0, 0, true},
	}

	for i, tt := range tests {
		w, h, err := parseSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("tests[%d] - parseSize(%q) error=%v, wantErr=%v", i, tt.in, err, tt.wantErr)
		}
		if !tt.wantErr && (w != tt.w || h != tt.h) {
			t.Errorf("tests[%d] - parseSize(%q) = %dx%d, want %dx%d", i, tt.in, w, h, tt.w, tt.h)
		}
	}
}
