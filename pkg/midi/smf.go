package midi

import (
	"fmt"
	"sort"
	"time"
)

// tempoChange is a Set Tempo meta event with its absolute position
// precomputed once all tracks are merged.
type tempoChange struct {
	tick          int
	microsPerBeat int
	at            time.Duration
}

type tickedEvent struct {
	tick int
	ev   Event
}

// ExtractEvents pulls the channel events a visual script can react to
// (note on/off, control change, pitch bend) out of a Standard MIDI File
// and stamps each with its absolute playback time, honoring every tempo
// change in the file. Events across tracks are merged into one list in
// time order. Program changes, aftertouch, sysex and other meta events
// are skipped.
func ExtractEvents(data []byte) ([]Event, error) {
	if len(data) < 14 {
		return nil, fmt.Errorf("MIDI data too short")
	}
	if string(data[0:4]) != "MThd" {
		return nil, fmt.Errorf("invalid MIDI header")
	}

	// Time division (bytes 12-13). SMPTE division is rare in the wild;
	// fall back to the conventional 480 PPQ rather than failing.
	timeDivision := int(data[12])<<8 | int(data[13])
	ppq := 480
	if timeDivision&0x8000 == 0 && timeDivision > 0 {
		ppq = timeDivision
	}

	var tempos []tempoChange
	var events []tickedEvent

	offset := 14
	for offset < len(data) {
		if offset+8 > len(data) {
			break
		}
		chunkType := string(data[offset : offset+4])
		chunkLen := int(data[offset+4])<<24 | int(data[offset+5])<<16 |
			int(data[offset+6])<<8 | int(data[offset+7])
		offset += 8
		if chunkType != "MTrk" {
			offset += chunkLen
			continue
		}
		trackEnd := offset + chunkLen
		if trackEnd > len(data) {
			trackEnd = len(data)
		}

		currentTick := 0
		pos := offset
		lastStatus := byte(0)

		for pos < trackEnd {
			delta, n := readVarInt(data[pos:])
			if n == 0 {
				break
			}
			pos += n
			currentTick += delta
			if pos >= trackEnd {
				break
			}

			status := data[pos]
			if status < 0x80 {
				// Running status: the byte is data for the previous
				// channel message.
				status = lastStatus
				if status == 0 {
					break
				}
			} else {
				pos++
				if status >= 0x80 && status < 0xF0 {
					lastStatus = status
				}
			}

			switch {
			case status == 0xFF:
				lastStatus = 0
				if pos >= trackEnd {
					break
				}
				metaType := data[pos]
				pos++
				length, n := readVarInt(data[pos:])
				pos += n
				if metaType == 0x51 && length == 3 && pos+3 <= trackEnd {
					tempos = append(tempos, tempoChange{
						tick:          currentTick,
						microsPerBeat: int(data[pos])<<16 | int(data[pos+1])<<8 | int(data[pos+2]),
					})
				}
				pos += length

			case status == 0xF0 || status == 0xF7:
				lastStatus = 0
				length, n := readVarInt(data[pos:])
				pos += n + length

			case status >= 0xC0 && status < 0xE0:
				// Program change / channel pressure: one data byte.
				pos++

			default:
				if pos+2 > trackEnd {
					pos = trackEnd
					break
				}
				d1, d2 := data[pos], data[pos+1]
				pos += 2
				channel := status & 0x0F
				switch status & 0xF0 {
				case 0x80:
					events = append(events, tickedEvent{currentTick, Event{
						Kind: KindNoteOff, Channel: channel, Data1: d1, Data2: d2,
					}})
				case 0x90:
					events = append(events, tickedEvent{currentTick, Event{
						Kind: KindNoteOn, Channel: channel, Data1: d1, Data2: d2,
					}})
				case 0xB0:
					events = append(events, tickedEvent{currentTick, Event{
						Kind: KindControlChange, Channel: channel, Data1: d1, Data2: d2,
					}})
				case 0xE0:
					events = append(events, tickedEvent{currentTick, Event{
						Kind: KindPitchBend, Channel: channel, Data1: d1, Data2: d2,
					}})
				}
			}
		}

		offset = trackEnd
	}

	if len(tempos) == 0 {
		tempos = []tempoChange{{tick: 0, microsPerBeat: 500000}} // 120 BPM
	}
	sort.SliceStable(tempos, func(i, j int) bool { return tempos[i].tick < tempos[j].tick })
	if tempos[0].tick > 0 {
		tempos = append([]tempoChange{{tick: 0, microsPerBeat: 500000}}, tempos...)
	}
	for i := 1; i < len(tempos); i++ {
		prev := tempos[i-1]
		tempos[i].at = prev.at + ticksToDuration(tempos[i].tick-prev.tick, ppq, prev.microsPerBeat)
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].tick < events[j].tick })

	out := make([]Event, 0, len(events))
	seg := 0
	for _, te := range events {
		for seg+1 < len(tempos) && tempos[seg+1].tick <= te.tick {
			seg++
		}
		ev := te.ev
		ev.At = tempos[seg].at + ticksToDuration(te.tick-tempos[seg].tick, ppq, tempos[seg].microsPerBeat)
		out = append(out, ev)
	}
	return out, nil
}

func ticksToDuration(ticks, ppq, microsPerBeat int) time.Duration {
	return time.Duration(float64(ticks) / float64(ppq) * float64(microsPerBeat) * float64(time.Microsecond))
}

// readVarInt reads a variable-length integer from MIDI data.
func readVarInt(data []byte) (int, int) {
	value := 0
	bytesRead := 0

	for i := 0; i < len(data) && i < 4; i++ {
		b := data[i]
		bytesRead++
		value = (value << 7) | int(b&0x7F)
		if b&0x80 == 0 {
			break
		}
	}

	return value, bytesRead
}
