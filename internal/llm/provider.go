package llm

import "context"

// AudioPayload is a raw audio clip plus its MIME type
type AudioPayload struct {
	Data     []byte
	MIMEType string
}

// SessionRequest carries everything needed to open a chat session around an
// audio clip. SpectrogramPNG is optional; adapters that cannot transmit an
// image simply skip it.
type SessionRequest struct {
	Audio          AudioPayload
	SpectrogramPNG []byte
	UserPrompt     string
	Model          string
	SystemPrompt   string
	Temperature    float64
	ThinkingBudget int
}

// TokenUsage is the per-turn token accounting reported by a provider
type TokenUsage struct {
	Input  int
	Output int
	Total  int
}

// ChatResult is one completed model turn
type ChatResult struct {
	Handle string
	Reply  string
	Model  string
	Usage  TokenUsage
}

// ChatProvider is the capability each model vendor adapter implements.
// StartSession returns an opaque handle the caller presents on every
// follow-up; how much state hides behind the handle is the adapter's
// business (Gemini keeps a live server-side chat, OpenAI replays history).
type ChatProvider interface {
	Name() string
	StartSession(ctx context.Context, req SessionRequest) (*ChatResult, error)
	ContinueSession(ctx context.Context, handle, message string) (*ChatResult, error)
}
