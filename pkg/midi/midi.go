// Package midi carries MIDI events from a producer (a file sequencer or a
// live input driver) to the render loop, and folds them into the per-frame
// snapshot the scripting engine reads.
package midi

import "time"

// Event kinds. Running a note-on with velocity 0 through State.Apply is
// equivalent to a note-off, matching wire convention.
const (
	KindNoteOff uint8 = iota
	KindNoteOn
	KindControlChange
	KindPitchBend
)

// Event is one discrete MIDI event. At is the event's position relative
// to the start of its stream.
type Event struct {
	At      time.Duration
	Kind    uint8
	Channel uint8
	Data1   uint8
	Data2   uint8
}

// State is the once-per-frame snapshot scripts read through the reserved
// midi_* names. CC and NoteVel hold raw 7-bit values; normalization
// happens at the script boundary. Active lists the sounding note numbers
// in press order.
type State struct {
	CC        [128]uint8
	NoteVel   [128]uint8
	Active    []uint8
	PitchBend float64 // 14-bit bend mapped to [-1, 1), 0 at center
	NoteCount int
	AnyNoteOn bool
}

// Apply folds one event into the snapshot.
func (s *State) Apply(ev Event) {
	switch ev.Kind {
	case KindNoteOn:
		if ev.Data2 == 0 {
			s.noteOff(ev.Data1)
			break
		}
		s.noteOn(ev.Data1, ev.Data2)
	case KindNoteOff:
		s.noteOff(ev.Data1)
	case KindControlChange:
		if ev.Data1 < 128 {
			s.CC[ev.Data1] = ev.Data2
		}
	case KindPitchBend:
		value := int(ev.Data2)<<7 | int(ev.Data1)
		s.PitchBend = float64(value-8192) / 8192
	}
}

func (s *State) noteOn(note, vel uint8) {
	if note >= 128 {
		return
	}
	s.NoteVel[note] = vel
	for _, n := range s.Active {
		if n == note {
			return
		}
	}
	s.Active = append(s.Active, note)
	s.NoteCount = len(s.Active)
	s.AnyNoteOn = true
}

func (s *State) noteOff(note uint8) {
	if note >= 128 {
		return
	}
	s.NoteVel[note] = 0
	for i, n := range s.Active {
		if n == note {
			s.Active = append(s.Active[:i], s.Active[i+1:]...)
			break
		}
	}
	s.NoteCount = len(s.Active)
	s.AnyNoteOn = s.NoteCount > 0
}

// Drain pops every queued event from r into the snapshot. It is the
// consumer side of the ring and must be called from one goroutine only,
// once per frame.
func (s *State) Drain(r *Ring) {
	for {
		ev, ok := r.Pop()
		if !ok {
			return
		}
		s.Apply(ev)
	}
}
