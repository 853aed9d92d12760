package prompt

import (
	"strings"

	"github.com/mixmentor/mixmentor-api/pkg/embedded"
)

// Chat modes selecting a system prompt
const (
	ModeEngineer = "engineer"
	ModeProducer = "producer"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetSystemPrompt loads the system prompt for a chat mode. Unknown modes
// fall back to the engineer prompt.
func (l *Loader) GetSystemPrompt(mode string) string {
	switch mode {
	case ModeProducer:
		return strings.TrimSpace(string(embedded.ProducerPromptTxt))
	default:
		return strings.TrimSpace(string(embedded.EngineerPromptTxt))
	}
}
