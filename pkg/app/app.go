// Package app wires the command line, logger, preset, engine, MIDI
// playback and window into a runnable program.
package app

import (
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/veskel/phosphene/pkg/cli"
	"github.com/veskel/phosphene/pkg/engine"
	"github.com/veskel/phosphene/pkg/fileutil"
	"github.com/veskel/phosphene/pkg/logger"
	"github.com/veskel/phosphene/pkg/preset"
	"github.com/veskel/phosphene/pkg/render"
	"github.com/veskel/phosphene/pkg/window"
)

// headlessFPS is the frame rate headless rendering simulates; it matches
// ebiten's default tick rate so headless and windowed runs see the same
// audio per frame.
const headlessFPS = 60

// defaultPreset is the chain used when no preset file is given: a
// tunneling feedback loop lit by beat flashes and decayed a little
// slower when the low end of the spectrum is busy.
const defaultPreset = `
[movement]
preset = 12

[colormod]
beat = flash = 0.5
frame = flash = flash * 0.8; gain = 0.97 + 0.02 * s1
point = r = r*gain + flash*x; g = g*gain + flash*(1-y); b = b*gain + flash*(1-x)
`

// Application manages the program's lifecycle from argument parsing to
// the render loop.
type Application struct {
	config *cli.Config
	log    *slog.Logger
	engine *engine.Engine
	player *engine.Player
}

// New creates an Application.
func New() *Application {
	return &Application{}
}

// Run executes the application.
func (app *Application) Run(args []string) error {
	// 1. Parse the command line.
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	// 2. Initialize the logger.
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Info("Application started")

	// 3. Build the engine and load the effect chain.
	if err := app.loadPreset(); err != nil {
		return fmt.Errorf("failed to load preset: %w", err)
	}

	// 4. Prepare MIDI playback when a song was given.
	if err := app.setupPlayer(); err != nil {
		return fmt.Errorf("failed to set up playback: %w", err)
	}

	// 5. Render.
	if app.config.Headless {
		if err := app.runHeadless(); err != nil {
			return fmt.Errorf("failed to render headless: %w", err)
		}
	} else {
		if err := app.runWindow(); err != nil {
			return err
		}
	}

	app.log.Info("Application terminated normally")
	return nil
}

// parseArgs parses the command line into the application config.
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger initializes the global logger at the configured level.
func (app *Application) initLogger() error {
	if err := logger.InitLogger(app.config.LogLevel); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// loadPreset builds the engine and loads either the configured preset
// file or the built-in default chain.
func (app *Application) loadPreset() error {
	app.engine = engine.New(engine.Config{
		Width:  app.config.Width,
		Height: app.config.Height,
		Logger: app.log,
	})

	if app.config.PresetPath == "" {
		app.log.Info("No preset given, using the built-in chain")
		file, err := preset.Parse(defaultPreset)
		if err != nil {
			return err
		}
		return app.engine.LoadPreset(file)
	}

	path, err := resolvePath(app.config.PresetPath)
	if err != nil {
		return err
	}
	file, err := preset.Load(path)
	if err != nil {
		return err
	}
	app.log.Info("Preset loaded", "path", path, "effects", len(file.Sections))
	return app.engine.LoadPreset(file)
}

// setupPlayer resolves the song and SoundFont and loads the latter.
// The song itself is opened right before rendering starts.
func (app *Application) setupPlayer() error {
	if app.config.MIDIPath == "" {
		return nil
	}

	midiPath, err := resolvePath(app.config.MIDIPath)
	if err != nil {
		return err
	}
	app.config.MIDIPath = midiPath

	soundFontPath, err := findSoundFont(app.config.SoundFontPath, filepath.Dir(midiPath))
	if err != nil {
		return err
	}

	app.player = engine.NewPlayer(app.engine, app.log)
	if err := app.player.LoadSoundFont(soundFontPath); err != nil {
		return err
	}

	app.log.Info("Playback ready", "song", midiPath, "soundfont", soundFontPath)
	return nil
}

// runWindow starts playback, if any, and hands control to ebiten.
func (app *Application) runWindow() error {
	if app.player != nil {
		if err := app.player.Play(app.config.MIDIPath); err != nil {
			return fmt.Errorf("failed to start playback: %w", err)
		}
		defer app.player.Stop()
	}

	title := "phosphene"
	if app.config.PresetPath != "" {
		title = "phosphene - " + filepath.Base(app.config.PresetPath)
	}
	return window.Run(app.engine, title)
}

// runHeadless renders the configured number of frames to numbered PNG
// files in the current directory. When a song is loaded the synthesizer
// is pumped one frame's worth of samples per rendered frame, so the
// frames see the same audio an interactive run would, just not in real
// time.
func (app *Application) runHeadless() error {
	app.log.Info("Headless mode", "frames", app.config.Frames)

	var stream *engine.Stream
	if app.player != nil {
		s, err := app.player.OpenStream(app.config.MIDIPath)
		if err != nil {
			return fmt.Errorf("failed to open song: %w", err)
		}
		stream = s
	}

	for i := 0; i < app.config.Frames; i++ {
		if stream != nil {
			stream.Pump(engine.SampleRate / headlessFPS)
		}
		buf := app.engine.Step()
		name := fmt.Sprintf("frame-%04d.png", i)
		if err := writePNG(name, buf); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		if stream != nil && stream.Finished() {
			app.log.Info("Song finished", "frame", i)
			break
		}
	}
	return nil
}

// writePNG encodes one frame.
func writePNG(name string, buf *render.Buffer) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(f, buf.ToRGBA()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// resolvePath returns path as-is when it exists and otherwise retries
// as a case-insensitive lookup in the same directory. Presets authored
// on a case-insensitive file system routinely name their files in the
// wrong case.
func resolvePath(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	dir := filepath.Dir(path)
	return fileutil.FindFileCaseInsensitive(dir, filepath.Base(path))
}
