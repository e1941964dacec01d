package engine

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	eaudio "github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/veskel/phosphene/pkg/audio"
	"github.com/veskel/phosphene/pkg/midi"
)

// SampleRate is the PCM rate for MIDI synthesis and analysis.
const SampleRate = 44100

// releaseTail keeps synthesis running past the last MIDI event so note
// releases are not cut off.
const releaseTail = 2 * time.Second

var (
	// Ebiten allows one audio context per process.
	globalAudioContext *eaudio.Context
	audioContextMutex  sync.Mutex
)

func audioContext() *eaudio.Context {
	audioContextMutex.Lock()
	defer audioContextMutex.Unlock()

	if globalAudioContext == nil {
		globalAudioContext = eaudio.NewContext(SampleRate)
	}
	return globalAudioContext
}

// Synth produces one stereo block of float32 samples per call.
// *meltysynth.MidiFileSequencer implements it.
type Synth interface {
	Render(left, right []float32)
}

// Stream synthesizes MIDI audio and taps everything the renderer needs
// off the synthesis clock: PCM goes to the analyzer, and each extracted
// MIDI event is pushed onto the ring when playback reaches its timestamp.
// It implements io.Reader (16-bit little-endian interleaved stereo) so an
// ebiten audio player can drive it; headless callers drive it with Pump.
type Stream struct {
	mu       sync.Mutex
	synth    Synth
	analyzer *audio.Analyzer
	ring     *midi.Ring

	events []midi.Event
	next   int
	drops  int

	rate     int
	samples  int64
	total    int64
	finished bool

	left, right []float32
	pcm         []int16
}

// NewStream wires a synth to the analyzer and ring. events must be in
// time order (midi.ExtractEvents returns them that way); length is the
// file's playing time, with the last event's timestamp as fallback when
// it is unknown.
func NewStream(synth Synth, events []midi.Event, length time.Duration, an *audio.Analyzer, ring *midi.Ring, rate int) *Stream {
	if rate <= 0 {
		rate = SampleRate
	}
	if length <= 0 && len(events) > 0 {
		length = events[len(events)-1].At
	}
	return &Stream{
		synth:    synth,
		analyzer: an,
		ring:     ring,
		events:   events,
		rate:     rate,
		total:    int64((length + releaseTail).Seconds() * float64(rate)),
	}
}

// Read implements io.Reader for the audio player. One frame is 4 bytes:
// left int16, right int16, little-endian.
func (s *Stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return 0, io.EOF
	}
	n := len(p) / 4
	if n == 0 {
		return 0, nil
	}

	if cap(s.left) < n {
		s.left = make([]float32, n)
		s.right = make([]float32, n)
		s.pcm = make([]int16, 2*n)
	}
	left, right := s.left[:n], s.right[:n]
	s.synth.Render(left, right)

	pcm := s.pcm[:2*n]
	for i := 0; i < n; i++ {
		l := clamp16(left[i])
		r := clamp16(right[i])
		binary.LittleEndian.PutUint16(p[i*4:], uint16(l))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(r))
		pcm[i*2] = l
		pcm[i*2+1] = r
	}
	if s.analyzer != nil {
		s.analyzer.PushPCM(pcm)
	}

	s.samples += int64(n)
	elapsed := time.Duration(s.samples) * time.Second / time.Duration(s.rate)
	for s.next < len(s.events) && s.events[s.next].At <= elapsed {
		if !s.ring.Push(s.events[s.next]) {
			s.drops++
		}
		s.next++
	}

	if s.samples >= s.total {
		s.finished = true
	}
	return n * 4, nil
}

// Pump synthesizes n samples through the tap without an audio device.
// It reports false once the stream has finished.
func (s *Stream) Pump(n int) bool {
	if n <= 0 {
		return !s.Finished()
	}
	buf := make([]byte, n*4)
	_, err := s.Read(buf)
	return err == nil && !s.Finished()
}

// Finished reports whether playback has run past the last event plus the
// release tail.
func (s *Stream) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Position returns how much audio has been synthesized.
func (s *Stream) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.samples) * time.Second / time.Duration(s.rate)
}

// Drops returns how many events the ring rejected.
func (s *Stream) Drops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drops
}

func clamp16(v float32) int16 {
	x := v * 32767
	if x > 32767 {
		return 32767
	}
	if x < -32768 {
		return -32768
	}
	return int16(x)
}

// Player owns SoundFont-based MIDI playback for one engine. Windowed
// mode routes the stream through the process audio context; headless
// mode opens the stream and pumps it manually.
type Player struct {
	mu        sync.Mutex
	log       *slog.Logger
	engine    *Engine
	soundFont *meltysynth.SoundFont
	stream    *Stream
	player    *eaudio.Player
}

// NewPlayer creates a Player feeding e's analyzer and ring.
func NewPlayer(e *Engine, log *slog.Logger) *Player {
	if log == nil {
		log = slog.Default()
	}
	return &Player{log: log, engine: e}
}

// LoadSoundFont loads a SoundFont (.sf2) file for MIDI synthesis.
func (p *Player) LoadSoundFont(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load soundfont %s: %w", path, err)
	}
	sf, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to parse soundfont %s: %w", path, err)
	}

	p.mu.Lock()
	p.soundFont = sf
	p.mu.Unlock()
	p.log.Info("soundfont loaded", "path", path)
	return nil
}

// OpenStream prepares synthesis of one Standard MIDI File without
// starting audible playback. Headless callers pump the result themselves.
func (p *Player) OpenStream(path string) (*Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.soundFont == nil {
		return nil, fmt.Errorf("no soundfont loaded - call LoadSoundFont first")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load MIDI file %s: %w", path, err)
	}
	midiFile, err := meltysynth.NewMidiFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI file %s: %w", path, err)
	}
	events, err := midi.ExtractEvents(data)
	if err != nil {
		return nil, fmt.Errorf("failed to extract MIDI events from %s: %w", path, err)
	}

	settings := meltysynth.NewSynthesizerSettings(SampleRate)
	synthesizer, err := meltysynth.NewSynthesizer(p.soundFont, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}
	sequencer := meltysynth.NewMidiFileSequencer(synthesizer)
	sequencer.Play(midiFile, false)

	stream := NewStream(sequencer, events, midiFile.GetLength(),
		p.engine.Analyzer(), p.engine.Ring(), SampleRate)
	p.stream = stream
	p.log.Info("midi opened", "path", path, "events", len(events))
	return stream, nil
}

// Play starts audible playback of a Standard MIDI File. It returns as
// soon as the audio player is running.
func (p *Player) Play(path string) error {
	stream, err := p.OpenStream(path)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player != nil {
		p.player.Close()
		p.player = nil
	}
	player, err := audioContext().NewPlayer(stream)
	if err != nil {
		return fmt.Errorf("failed to create audio player: %w", err)
	}
	p.player = player
	player.Play()
	p.log.Info("midi playback started", "path", path)
	return nil
}

// Stop halts audible playback.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player != nil {
		p.player.Close()
		p.player = nil
	}
}

// IsPlaying reports whether audible playback is running.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == nil || p.stream == nil {
		return false
	}
	if p.stream.Finished() {
		return false
	}
	return p.player.IsPlaying()
}

// IsFinished reports whether the opened stream has played to the end.
func (p *Player) IsFinished() bool {
	p.mu.Lock()
	stream := p.stream
	p.mu.Unlock()
	return stream != nil && stream.Finished()
}
