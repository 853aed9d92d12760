package prompt

import (
	"strings"
	"testing"
)

func TestNewPromptLoader(t *testing.T) {
	loader := NewPromptLoader()
	if loader == nil {
		t.Fatal("NewPromptLoader() returned nil")
	}
}

func TestGetSystemPromptEngineer(t *testing.T) {
	loader := NewPromptLoader()
	content := loader.GetSystemPrompt(ModeEngineer)

	if content == "" {
		t.Error("GetSystemPrompt(engineer) returned empty string")
	}

	if !strings.Contains(content, "Audio Engineer") {
		t.Error("engineer prompt does not contain expected content")
	}

	// Ensure no excessive whitespace
	if strings.HasPrefix(content, "\n") {
		t.Error("engineer prompt has leading newlines")
	}
}

func TestGetSystemPromptProducer(t *testing.T) {
	loader := NewPromptLoader()
	content := loader.GetSystemPrompt(ModeProducer)

	if !strings.Contains(content, "Music Producer") {
		t.Error("producer prompt does not contain expected content")
	}

	// The producer mode carries the structured output protocol
	if !strings.Contains(content, "MIDI OUTPUT PROTOCOL") {
		t.Error("producer prompt is missing the MIDI output protocol")
	}
	if !strings.Contains(content, "<MIDI_DATA>") {
		t.Error("producer prompt is missing the MIDI_DATA tag example")
	}
}

func TestGetSystemPromptUnknownModeFallsBack(t *testing.T) {
	loader := NewPromptLoader()

	for _, mode := range []string{"", "dj", "ENGINEER"} {
		content := loader.GetSystemPrompt(mode)
		if content != loader.GetSystemPrompt(ModeEngineer) {
			t.Errorf("mode %q did not fall back to the engineer prompt", mode)
		}
	}
}
