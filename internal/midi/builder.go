package midi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/mixmentor/mixmentor-api/internal/models"
)

const (
	// TicksPerBeat is the SMF division (pulses per quarter note)
	TicksPerBeat = 480

	defaultTrackName = "Track"

	noteOnStatus  = 0x90
	noteOffStatus = 0x80

	metaPrefix        = 0xFF
	metaTrackName     = 0x03
	metaEndOfTrack    = 0x2F
	metaSetTempo      = 0x51
	metaTimeSignature = 0x58
)

// event is a single timed track event, held in absolute ticks until the
// track is serialized with delta times. order breaks ties at equal ticks:
// offs (0) precede ons (1), except a zero-length note's own off (2).
type event struct {
	tick  int
	order int
	on    bool
	pitch int
	vel   int
}

// Build renders a composition into a complete type-1 Standard MIDI File.
// Tempo and time signature go on the first track only; every track gets a
// name event and a final end-of-track marker.
func Build(c *models.Composition) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid composition: %w", err)
	}

	var out bytes.Buffer
	writeHeader(&out, len(c.Tracks))

	for i, track := range c.Tracks {
		var body bytes.Buffer

		if i == 0 {
			writeTempo(&body, c.TempoOrDefault())
			writeTimeSignature(&body, c.TimeSignatureOrDefault())
		}

		name := track.Instrument
		if name == "" {
			name = defaultTrackName
		}
		writeTrackName(&body, name)

		writeNotes(&body, track.Notes)
		writeEndOfTrack(&body)

		writeChunk(&out, "MTrk", body.Bytes())
	}

	return out.Bytes(), nil
}

func writeHeader(out *bytes.Buffer, ntracks int) {
	var body bytes.Buffer
	binary.Write(&body, binary.BigEndian, uint16(1)) // format 1
	binary.Write(&body, binary.BigEndian, uint16(ntracks))
	binary.Write(&body, binary.BigEndian, uint16(TicksPerBeat))
	writeChunk(out, "MThd", body.Bytes())
}

func writeChunk(out *bytes.Buffer, id string, body []byte) {
	out.WriteString(id)
	binary.Write(out, binary.BigEndian, uint32(len(body)))
	out.Write(body)
}

// writeTempo emits a set-tempo meta event at tick 0.
// Tempo is stored as microseconds per quarter note.
func writeTempo(out *bytes.Buffer, bpm int) {
	usPerBeat := 60_000_000 / bpm
	writeVarLen(out, 0)
	out.Write([]byte{metaPrefix, metaSetTempo, 0x03})
	out.Write([]byte{
		byte(usPerBeat >> 16),
		byte(usPerBeat >> 8),
		byte(usPerBeat),
	})
}

// writeTimeSignature emits a time-signature meta event at tick 0. The
// denominator is encoded as a power of two; clock fields use the MIDI
// defaults (24 clocks per click, 8 thirty-seconds per quarter).
func writeTimeSignature(out *bytes.Buffer, sig []int) {
	numerator := sig[0]
	denomPow := int(math.Log2(float64(sig[1])))
	writeVarLen(out, 0)
	out.Write([]byte{
		metaPrefix, metaTimeSignature, 0x04,
		byte(numerator), byte(denomPow), 24, 8,
	})
}

func writeTrackName(out *bytes.Buffer, name string) {
	writeVarLen(out, 0)
	out.Write([]byte{metaPrefix, metaTrackName})
	writeVarLen(out, len(name))
	out.WriteString(name)
}

func writeEndOfTrack(out *bytes.Buffer) {
	writeVarLen(out, 0)
	out.Write([]byte{metaPrefix, metaEndOfTrack, 0x00})
}

// writeNotes converts notes to on/off events in absolute ticks, orders them,
// and serializes with delta times. At equal ticks, note-offs sort before
// note-ons so back-to-back repeated notes never collapse into one.
func writeNotes(out *bytes.Buffer, notes []models.Note) {
	events := make([]event, 0, len(notes)*2)
	for _, n := range notes {
		start := n.StartTimeOrDefault()
		startTick := int(math.Round(start * TicksPerBeat))
		endTick := int(math.Round((start + n.DurationOrDefault()) * TicksPerBeat))
		offOrder := 0
		if endTick == startTick {
			offOrder = 2
		}
		events = append(events,
			event{tick: startTick, order: 1, on: true, pitch: n.PitchOrDefault(), vel: n.VelocityOrDefault()},
			event{tick: endTick, order: offOrder, on: false, pitch: n.PitchOrDefault()},
		)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].order < events[j].order
	})

	prevTick := 0
	for _, ev := range events {
		writeVarLen(out, ev.tick-prevTick)
		prevTick = ev.tick
		if ev.on {
			out.Write([]byte{noteOnStatus, byte(ev.pitch), byte(ev.vel)})
		} else {
			out.Write([]byte{noteOffStatus, byte(ev.pitch), 0x00})
		}
	}
}

// writeVarLen encodes a non-negative value as an SMF variable-length quantity.
func writeVarLen(out *bytes.Buffer, v int) {
	if v < 0 {
		v = 0
	}
	buf := []byte{byte(v & 0x7F)}
	v >>= 7
	for v > 0 {
		buf = append([]byte{byte(v&0x7F) | 0x80}, buf...)
		v >>= 7
	}
	out.Write(buf)
}
