package midi

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/mixmentor/mixmentor-api/internal/models"
)

// Placeholder substituted for a successfully parsed MIDI_DATA block
const Placeholder = "\n🎹 **[MIDI File Generated]**\n"

var midiBlockRe = regexp.MustCompile(`(?s)<MIDI_DATA>(.*?)</MIDI_DATA>`)

// ExtractResult is the outcome of scanning a model reply for a MIDI block.
// Text is always safe to show the user; Artifact is non-nil only when a
// block was present and parsed cleanly. ParseErr records a malformed block
// without failing the chat turn.
type ExtractResult struct {
	Text     string
	Artifact []byte
	ParseErr error
}

// HasArtifact reports whether a MIDI file was produced
func (r ExtractResult) HasArtifact() bool {
	return len(r.Artifact) > 0
}

// ExtractAndBuild scans replyText for the first MIDI_DATA block. With no
// block the text passes through unchanged. A malformed block leaves the
// text untouched and records the error. A valid block is replaced by the
// placeholder and the rendered MIDI bytes are attached.
func ExtractAndBuild(replyText string) ExtractResult {
	m := midiBlockRe.FindStringSubmatchIndex(replyText)
	if m == nil {
		return ExtractResult{Text: replyText}
	}

	payload := strings.TrimSpace(replyText[m[2]:m[3]])

	var comp models.Composition
	if err := json.Unmarshal([]byte(payload), &comp); err != nil {
		log.Printf("⚠️ Malformed MIDI block, keeping reply as-is: %v", err)
		return ExtractResult{Text: replyText, ParseErr: fmt.Errorf("parse MIDI block: %w", err)}
	}

	data, err := Build(&comp)
	if err != nil {
		log.Printf("⚠️ MIDI block failed validation, keeping reply as-is: %v", err)
		return ExtractResult{Text: replyText, ParseErr: fmt.Errorf("build MIDI file: %w", err)}
	}

	cleaned := replyText[:m[0]] + Placeholder + replyText[m[1]:]
	log.Printf("🎹 Extracted MIDI block (%d bytes, %d tracks)", len(data), len(comp.Tracks))
	return ExtractResult{Text: cleaned, Artifact: data}
}
