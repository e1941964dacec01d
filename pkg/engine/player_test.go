package engine

import (
	"io"
	"testing"
	"time"

	"github.com/veskel/phosphene/pkg/audio"
	"github.com/veskel/phosphene/pkg/midi"
)

// constSynth fills every block with fixed values so conversions are
// checkable without a SoundFont.
type constSynth struct{ l, r float32 }

func (s constSynth) Render(left, right []float32) {
	for i := range left {
		left[i] = s.l
		right[i] = s.r
	}
}

func TestStreamInterleaving(t *testing.T) {
	st := NewStream(constSynth{0.5, -0.5}, nil, 100*time.Millisecond, nil, midi.NewRing(8), 1000)

	p := make([]byte, 16)
	n, err := st.Read(p)
	if err != nil || n != 16 {
		t.Fatalf("Read: expected=(16, nil), got=(%d, %v)", n, err)
	}

	// 0.5 * 32767 truncates to 16383 = 0x3FFF; -0.5 to -16383 = 0xC001.
	want := []byte{0xFF, 0x3F, 0x01, 0xC0}
	for i := 0; i < 4; i++ {
		for b := 0; b < 4; b++ {
			if p[i*4+b] != want[b] {
				t.Fatalf("frame %d byte %d: expected=%02x, got=%02x", i, b, want[b], p[i*4+b])
			}
		}
	}
}

func TestStreamEventDelivery(t *testing.T) {
	events := []midi.Event{
		{At: 10 * time.Millisecond, Kind: midi.KindNoteOn, Data1: 60, Data2: 100},
		{At: 20 * time.Millisecond, Kind: midi.KindNoteOn, Data1: 64, Data2: 90},
		{At: time.Second, Kind: midi.KindNoteOff, Data1: 60},
	}
	ring := midi.NewRing(8)
	st := NewStream(constSynth{}, events, 0, nil, ring, 1000)

	// 15 samples at 1 kHz = 15ms: only the first event is due.
	st.Read(make([]byte, 15*4))
	ev, ok := ring.Pop()
	if !ok || ev.Data1 != 60 || ev.Kind != midi.KindNoteOn {
		t.Fatalf("expected note-on 60, got=(%+v, %v)", ev, ok)
	}
	if _, ok := ring.Pop(); ok {
		t.Fatalf("second event delivered early")
	}

	st.Read(make([]byte, 10*4)) // now at 25ms
	ev, ok = ring.Pop()
	if !ok || ev.Data1 != 64 {
		t.Fatalf("expected note-on 64, got=(%+v, %v)", ev, ok)
	}

	// Length fell back to the last event (1s); the release tail runs the
	// stream to 3s = 3000 samples total.
	if !st.Pump(2974) {
		t.Fatalf("stream finished one sample early")
	}
	if st.Pump(1) {
		t.Fatalf("stream should be finished at the release tail")
	}
	if !st.Finished() {
		t.Fatalf("Finished should report true")
	}
	ev, ok = ring.Pop()
	if !ok || ev.Kind != midi.KindNoteOff {
		t.Fatalf("expected the 1s note-off during pump, got=(%+v, %v)", ev, ok)
	}

	if _, err := st.Read(make([]byte, 4)); err != io.EOF {
		t.Fatalf("Read after finish: expected=io.EOF, got=%v", err)
	}
	if got := st.Position(); got != 3*time.Second {
		t.Errorf("position: expected=3s, got=%v", got)
	}
}

func TestStreamDropsWhenRingFull(t *testing.T) {
	events := make([]midi.Event, 70)
	for i := range events {
		events[i] = midi.Event{Kind: midi.KindNoteOn, Data1: uint8(i), Data2: 1}
	}
	ring := midi.NewRing(1) // rounds up to the 64-slot floor
	st := NewStream(constSynth{}, events, time.Second, nil, ring, 1000)

	st.Read(make([]byte, 4))
	if got := st.Drops(); got != 6 {
		t.Errorf("drops: expected=6, got=%d", got)
	}
	if got := ring.Len(); got != 64 {
		t.Errorf("ring len: expected=64, got=%d", got)
	}
}

func TestStreamFeedsAnalyzer(t *testing.T) {
	an := audio.NewAnalyzer(1000)
	st := NewStream(constSynth{0.5, -0.5}, nil, time.Second, an, midi.NewRing(8), 1000)

	st.Pump(600)
	f := an.Snapshot()
	if got := f.Waveform[0][0]; got != 63 {
		t.Errorf("left waveform: expected=63, got=%d", got)
	}
	if got := f.Waveform[1][0]; got != -63 {
		t.Errorf("right waveform: expected=-63, got=%d", got)
	}
}

func TestClamp16(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{0.5, 16383},
		{1, 32767},
		{1.5, 32767},
		{-1, -32767},
		{-2, -32768},
	}
	for i, tt := range tests {
		if got := clamp16(tt.in); got != tt.want {
			t.Errorf("tests[%d] - clamp16(%v) expected=%d, got=%d", i, tt.in, tt.want, got)
		}
	}
}
