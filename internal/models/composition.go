package models

import "fmt"

// Default values applied to omitted composition fields
const (
	DefaultTempo    = 120
	DefaultPitch    = 60
	DefaultVelocity = 100
	DefaultStart    = 0.0
	DefaultDuration = 1.0
)

// Composition is the structured music payload a model emits inside a
// MIDI_DATA block. All fields are optional in the wire form; accessors
// apply the documented defaults.
type Composition struct {
	Tempo         int     `json:"tempo,omitempty"`
	TimeSignature []int   `json:"time_signature,omitempty"`
	Tracks        []Track `json:"tracks"`
}

// Track is a named voice with its note list
type Track struct {
	Instrument string `json:"instrument,omitempty"`
	Notes      []Note `json:"notes"`
}

// Note uses pointer fields so that an absent value and a zero value are
// distinguishable (a start_time of 0 is meaningful).
type Note struct {
	Pitch     *int     `json:"pitch,omitempty"`
	Velocity  *int     `json:"velocity,omitempty"`
	StartTime *float64 `json:"start_time,omitempty"`
	Duration  *float64 `json:"duration,omitempty"`
}

// TempoOrDefault returns the tempo in BPM
func (c *Composition) TempoOrDefault() int {
	if c.Tempo > 0 {
		return c.Tempo
	}
	return DefaultTempo
}

// TimeSignatureOrDefault returns [numerator, denominator]
func (c *Composition) TimeSignatureOrDefault() []int {
	if len(c.TimeSignature) >= 2 {
		return c.TimeSignature
	}
	return []int{4, 4}
}

// PitchOrDefault returns the MIDI note number
func (n *Note) PitchOrDefault() int {
	if n.Pitch != nil {
		return *n.Pitch
	}
	return DefaultPitch
}

// VelocityOrDefault returns the note-on velocity
func (n *Note) VelocityOrDefault() int {
	if n.Velocity != nil {
		return *n.Velocity
	}
	return DefaultVelocity
}

// StartTimeOrDefault returns the note start in beats
func (n *Note) StartTimeOrDefault() float64 {
	if n.StartTime != nil {
		return *n.StartTime
	}
	return DefaultStart
}

// DurationOrDefault returns the note length in beats
func (n *Note) DurationOrDefault() float64 {
	if n.Duration != nil {
		return *n.Duration
	}
	return DefaultDuration
}

// Validate checks ranges before any binary encoding happens
func (c *Composition) Validate() error {
	if c.Tempo < 0 {
		return fmt.Errorf("tempo must be positive, got %d", c.Tempo)
	}
	if len(c.TimeSignature) == 1 {
		return fmt.Errorf("time_signature needs numerator and denominator, got %v", c.TimeSignature)
	}
	if len(c.TimeSignature) >= 2 {
		if c.TimeSignature[0] <= 0 || c.TimeSignature[1] <= 0 {
			return fmt.Errorf("time_signature values must be positive, got %v", c.TimeSignature)
		}
	}
	for ti, track := range c.Tracks {
		for ni, note := range track.Notes {
			p := note.PitchOrDefault()
			if p < 0 || p > 127 {
				return fmt.Errorf("track %d note %d: pitch %d out of range 0-127", ti, ni, p)
			}
			v := note.VelocityOrDefault()
			if v < 0 || v > 127 {
				return fmt.Errorf("track %d note %d: velocity %d out of range 0-127", ti, ni, v)
			}
			if note.StartTimeOrDefault() < 0 {
				return fmt.Errorf("track %d note %d: negative start_time", ti, ni)
			}
			if note.DurationOrDefault() < 0 {
				return fmt.Errorf("track %d note %d: negative duration", ti, ni)
			}
		}
	}
	return nil
}
