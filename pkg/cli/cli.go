// Package cli parses the player's command line and environment.
package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the settings parsed from arguments and environment.
type Config struct {
	PresetPath    string // effect-chain preset file
	MIDIPath      string // Standard MIDI File to play
	SoundFontPath string // SoundFont (.sf2) for synthesis
	Width         int    // frame width
	Height        int    // frame height
	Frames        int    // headless mode: frames to render
	Headless      bool   // render to PNG files instead of a window
	LogLevel      string // debug, info, warn, error
	ShowHelp      bool
}

// ParseArgs parses command-line arguments into a Config. Flags win over
// environment variables (HEADLESS, LOG_LEVEL, SOUNDFONT); a positional
// argument is the preset path.
func ParseArgs(args []string) (*Config, error) {
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("phosphene", flag.ContinueOnError)

	config := &Config{}
	var size string

	fs.StringVar(&config.PresetPath, "preset", "", "effect-chain preset file")
	fs.StringVar(&config.MIDIPath, "midi", "", "MIDI file to play")
	fs.StringVar(&config.SoundFontPath, "soundfont", "", "SoundFont (.sf2) file")
	fs.StringVar(&size, "size", "640x480", "frame size as WIDTHxHEIGHT")
	fs.IntVar(&config.Frames, "frames", 600, "frames to render in headless mode")
	fs.BoolVar(&config.Headless, "headless", false, "render PNG frames without a window")
	fs.StringVar(&config.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.BoolVar(&config.ShowHelp, "help", false, "show help")
	fs.BoolVar(&config.ShowHelp, "h", false, "show help (shorthand)")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// Environment fallbacks; flags take precedence.
	if !config.Headless {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}
	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}
	if config.SoundFontPath == "" {
		config.SoundFontPath = os.Getenv("SOUNDFONT")
	}

	w, h, err := parseSize(size)
	if err != nil {
		return nil, err
	}
	config.Width, config.Height = w, h

	if config.Frames < 0 {
		return nil, fmt.Errorf("frames must be non-negative, got %d", config.Frames)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	if fs.NArg() > 0 && config.PresetPath == "" {
		config.PresetPath = fs.Arg(0)
	}

	return config, nil
}

// parseSize parses "WIDTHxHEIGHT".
func parseSize(s string) (int, int, error) {
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q (want WIDTHxHEIGHT)", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if w < 1 || h < 1 {
		return 0, 0, fmt.Errorf("size must be positive, got %dx%d", w, h)
	}
	return w, h, nil
}

// reorderArgs moves flags before positional arguments so flag.Parse sees
// them all regardless of invocation order.
func reorderArgs(args []string) []string {
	boolFlags := map[string]bool{
		"-h": true, "--h": true,
		"-help": true, "--help": true,
		"-headless": true, "--headless": true,
	}

	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)
			// A non-boolean flag consumes the following value.
			if !boolFlags[arg] && !strings.Contains(arg, "=") &&
				i+1 < len(args) && (len(args[i+1]) == 0 || args[i+1][0] != '-') {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}

	return append(flags, positional...)
}

// PrintHelp writes the usage message.
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `phosphene - audio-reactive visual renderer

Usage:
  phosphene [options] [preset-file]

Arguments:
  preset-file   effect-chain preset file ([effect] sections of key = value lines)

Options:
  -preset <file>       preset file (same as the positional argument)
  -midi <file>         Standard MIDI File to play and react to
  -soundfont <file>    SoundFont (.sf2) used for MIDI synthesis
  -size <WxH>          frame size (default: 640x480)
  -frames <n>          frames to render in headless mode (default: 600)
  -headless            render frame-NNNN.png files instead of opening a window
  -log-level <level>   log level: debug, info, warn, error (default: info)
  -h, -help            show this help

Environment Variables:
  HEADLESS=1           enable headless mode
  LOG_LEVEL=<level>    log level
  SOUNDFONT=<file>     default SoundFont path

Examples:
  phosphene show.fx                         play a preset with the default look
  phosphene -midi song.mid -soundfont gm.sf2 show.fx
  phosphene -headless -frames 120 show.fx   render 120 PNG frames
  LOG_LEVEL=debug phosphene show.fx         verbose logging
`)
}
