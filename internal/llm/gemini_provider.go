package llm

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

// GeminiProvider adapts the Gemini API. Sessions map to live server-side
// chat objects, so follow-ups send only the new message and the audio stays
// uploaded on Google's side via the Files API.
type GeminiProvider struct {
	apiKey string

	clientOnce sync.Once
	client     *genai.Client
	clientErr  error

	mu       sync.RWMutex
	sessions map[string]*geminiSession
}

// geminiSession pairs the live chat with the model it was opened on
type geminiSession struct {
	chat  *genai.Chat
	model string
}

// NewGeminiProvider creates the adapter. An empty apiKey is allowed; the
// configuration error surfaces on first use instead.
func NewGeminiProvider(apiKey string) *GeminiProvider {
	return &GeminiProvider{
		apiKey:   apiKey,
		sessions: make(map[string]*geminiSession),
	}
}

// Name returns the provider identifier
func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) ensureClient(ctx context.Context) (*genai.Client, error) {
	if p.apiKey == "" {
		return nil, &ConfigurationError{Provider: p.Name(), Missing: "GEMINI_API_KEY"}
	}
	p.clientOnce.Do(func() {
		p.client, p.clientErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if p.clientErr != nil {
			p.clientErr = fmt.Errorf("failed to create Gemini client: %w", p.clientErr)
		}
	})
	return p.client, p.clientErr
}

// StartSession uploads the clip, opens a chat with the spectrogram and
// prompt attached, and returns the first reply.
func (p *GeminiProvider) StartSession(ctx context.Context, req SessionRequest) (*ChatResult, error) {
	span := sentry.StartSpan(ctx, "gemini.start_session")
	span.SetTag("model", req.Model)
	defer span.Finish()

	client, err := p.ensureClient(ctx)
	if err != nil {
		return nil, err
	}

	log.Printf("🎵 Gemini: starting session (model: %s, audio: %d bytes, %s)",
		req.Model, len(req.Audio.Data), req.Audio.MIMEType)

	uploadSpan := sentry.StartSpan(span.Context(), "gemini.upload_audio")
	file, err := client.Files.Upload(ctx, bytes.NewReader(req.Audio.Data), &genai.UploadFileConfig{
		MIMEType: req.Audio.MIMEType,
	})
	uploadSpan.Finish()
	if err != nil {
		log.Printf("❌ Gemini: audio upload failed: %v", err)
		return nil, upstream(p.Name(), fmt.Errorf("upload audio: %w", err))
	}
	log.Printf("✅ Gemini: audio uploaded (%s)", file.URI)

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		},
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.ThinkingBudget > 0 {
		config.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(int32(req.ThinkingBudget)),
		}
	}

	chat, err := client.Chats.Create(ctx, req.Model, config, nil)
	if err != nil {
		return nil, upstream(p.Name(), fmt.Errorf("create chat: %w", err))
	}

	parts := []genai.Part{
		{FileData: &genai.FileData{FileURI: file.URI, MIMEType: file.MIMEType}},
	}
	if len(req.SpectrogramPNG) > 0 {
		parts = append(parts, genai.Part{
			InlineData: &genai.Blob{Data: req.SpectrogramPNG, MIMEType: "image/png"},
		})
	}
	parts = append(parts, genai.Part{Text: req.UserPrompt})

	sendSpan := sentry.StartSpan(span.Context(), "gemini.send_message")
	resp, err := chat.SendMessage(ctx, parts...)
	sendSpan.Finish()
	if err != nil {
		log.Printf("❌ Gemini: first turn failed: %v", err)
		return nil, upstream(p.Name(), err)
	}

	handle := uuid.NewString()
	p.mu.Lock()
	p.sessions[handle] = &geminiSession{chat: chat, model: req.Model}
	p.mu.Unlock()

	result := p.result(handle, req.Model, resp)
	log.Printf("✅ Gemini: session %s started (%d tokens)", handle, result.Usage.Total)
	return result, nil
}

// ContinueSession sends one follow-up message on an existing chat
func (p *GeminiProvider) ContinueSession(ctx context.Context, handle, message string) (*ChatResult, error) {
	span := sentry.StartSpan(ctx, "gemini.continue_session")
	defer span.Finish()

	p.mu.RLock()
	sess, ok := p.sessions[handle]
	p.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	resp, err := sess.chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		log.Printf("❌ Gemini: follow-up failed for %s: %v", handle, err)
		return nil, upstream(p.Name(), err)
	}

	result := p.result(handle, sess.model, resp)
	log.Printf("✅ Gemini: follow-up on %s (%d tokens)", handle, result.Usage.Total)
	return result, nil
}

func (p *GeminiProvider) result(handle, model string, resp *genai.GenerateContentResponse) *ChatResult {
	result := &ChatResult{
		Handle: handle,
		Reply:  resp.Text(),
		Model:  model,
	}
	if resp.UsageMetadata != nil {
		result.Usage = TokenUsage{
			Input:  int(resp.UsageMetadata.PromptTokenCount),
			Output: int(resp.UsageMetadata.CandidatesTokenCount),
			Total:  int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return result
}
