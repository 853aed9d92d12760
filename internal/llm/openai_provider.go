package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider adapts the Chat Completions API. The API is stateless, so
// the adapter keeps each session's full message history locally and resends
// it on every follow-up, audio included.
type OpenAIProvider struct {
	apiKey string

	clientOnce sync.Once
	client     openai.Client

	mu       sync.RWMutex
	sessions map[string]*openaiSession
}

// openaiSession holds the replayed history for one conversation. The
// per-session mutex serializes concurrent follow-ups on the same session
// so the history never interleaves.
type openaiSession struct {
	mu          sync.Mutex
	model       string
	temperature float64
	messages    []openai.ChatCompletionMessageParamUnion
}

// NewOpenAIProvider creates the adapter. An empty apiKey is allowed; the
// configuration error surfaces on first use instead.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:   apiKey,
		sessions: make(map[string]*openaiSession),
	}
}

// Name returns the provider identifier
func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) ensureClient() (openai.Client, error) {
	if p.apiKey == "" {
		return openai.Client{}, &ConfigurationError{Provider: p.Name(), Missing: "OPENAI_API_KEY"}
	}
	p.clientOnce.Do(func() {
		p.client = openai.NewClient(option.WithAPIKey(p.apiKey))
	})
	return p.client, nil
}

// audioFormat maps a MIME type to the input_audio format field
func audioFormat(mimeType string) string {
	if mimeType == "audio/mpeg" {
		return "mp3"
	}
	return "wav"
}

// StartSession builds the opening user message with the clip inlined as
// base64 input_audio, sends it, and seeds the session history.
// Spectrogram images are not transmitted: the audio-capable chat models
// reject mixed image+audio input, so the model listens instead.
func (p *OpenAIProvider) StartSession(ctx context.Context, req SessionRequest) (*ChatResult, error) {
	span := sentry.StartSpan(ctx, "openai.start_session")
	span.SetTag("model", req.Model)
	defer span.Finish()

	client, err := p.ensureClient()
	if err != nil {
		return nil, err
	}

	log.Printf("🎵 OpenAI: starting session (model: %s, audio: %d bytes, %s)",
		req.Model, len(req.Audio.Data), req.Audio.MIMEType)
	if len(req.SpectrogramPNG) > 0 {
		log.Printf("⚠️ OpenAI: spectrogram attached but not transmitted (audio-only input)")
	}

	userParts := []openai.ChatCompletionContentPartUnionParam{
		{
			OfInputAudio: &openai.ChatCompletionContentPartInputAudioParam{
				InputAudio: openai.ChatCompletionContentPartInputAudioInputAudioParam{
					Data:   base64.StdEncoding.EncodeToString(req.Audio.Data),
					Format: audioFormat(req.Audio.MIMEType),
				},
			},
		},
		{
			OfText: &openai.ChatCompletionContentPartTextParam{Text: req.UserPrompt},
		},
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(req.SystemPrompt),
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfArrayOfContentParts: userParts,
				},
			},
		},
	}

	reply, usage, err := p.complete(ctx, client, req.Model, req.Temperature, messages)
	if err != nil {
		log.Printf("❌ OpenAI: first turn failed: %v", err)
		return nil, err
	}

	handle := uuid.NewString()
	p.mu.Lock()
	p.sessions[handle] = &openaiSession{
		model:       req.Model,
		temperature: req.Temperature,
		messages:    append(messages, openai.AssistantMessage(reply)),
	}
	p.mu.Unlock()

	log.Printf("✅ OpenAI: session %s started (%d tokens)", handle, usage.Total)
	return &ChatResult{Handle: handle, Reply: reply, Model: req.Model, Usage: usage}, nil
}

// ContinueSession appends the message to the stored history, replays the
// whole conversation, and records the assistant's answer.
func (p *OpenAIProvider) ContinueSession(ctx context.Context, handle, message string) (*ChatResult, error) {
	span := sentry.StartSpan(ctx, "openai.continue_session")
	defer span.Finish()

	client, err := p.ensureClient()
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	sess, ok := p.sessions[handle]
	p.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	messages := append(sess.messages, openai.UserMessage(message))
	reply, usage, err := p.complete(ctx, client, sess.model, sess.temperature, messages)
	if err != nil {
		log.Printf("❌ OpenAI: follow-up failed for %s: %v", handle, err)
		return nil, err
	}

	sess.messages = append(messages, openai.AssistantMessage(reply))
	log.Printf("✅ OpenAI: follow-up on %s (history: %d messages, %d tokens)",
		handle, len(sess.messages), usage.Total)
	return &ChatResult{Handle: handle, Reply: reply, Model: sess.model, Usage: usage}, nil
}

func (p *OpenAIProvider) complete(
	ctx context.Context,
	client openai.Client,
	model string,
	temperature float64,
	messages []openai.ChatCompletionMessageParamUnion,
) (string, TokenUsage, error) {
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    messages,
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", TokenUsage{}, upstream(p.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return "", TokenUsage{}, upstream(p.Name(), fmt.Errorf("empty completion for model %s", model))
	}
	usage := TokenUsage{
		Input:  int(resp.Usage.PromptTokens),
		Output: int(resp.Usage.CompletionTokens),
		Total:  int(resp.Usage.TotalTokens),
	}
	return resp.Choices[0].Message.Content, usage, nil
}
