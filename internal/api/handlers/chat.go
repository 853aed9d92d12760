package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mixmentor/mixmentor-api/internal/artifacts"
	"github.com/mixmentor/mixmentor-api/internal/audio"
	"github.com/mixmentor/mixmentor-api/internal/llm"
	"github.com/mixmentor/mixmentor-api/internal/logger"
	"github.com/mixmentor/mixmentor-api/internal/metrics"
	"github.com/mixmentor/mixmentor-api/internal/midi"
	"github.com/mixmentor/mixmentor-api/internal/observability"
	"github.com/mixmentor/mixmentor-api/internal/prompt"
	"github.com/mixmentor/mixmentor-api/internal/session"
)

const (
	// Upstream model calls get a hard deadline; a hung provider should
	// not pin a request handler forever
	providerCallTimeout = 5 * time.Minute

	defaultTemperature = 0.2
	maxUploadBytes     = 50 << 20
)

// ChatHandler serves the audio-analysis chat endpoints
type ChatHandler struct {
	sessions  *session.Router
	processor audio.Processor
	prompts   *prompt.Loader
	artifacts artifacts.Store
	cw        *metrics.Client
	sentry    *metrics.SentryMetrics
}

// NewChatHandler wires the chat endpoints to their collaborators
func NewChatHandler(
	sessions *session.Router,
	processor audio.Processor,
	artifactStore artifacts.Store,
	cw *metrics.Client,
) *ChatHandler {
	return &ChatHandler{
		sessions:  sessions,
		processor: processor,
		prompts:   prompt.NewPromptLoader(),
		artifacts: artifactStore,
		cw:        cw,
		sentry:    metrics.NewSentryMetrics(),
	}
}

// Analyze trims the uploaded clip, renders its spectrogram, and starts a
// chat session with the selected model.
// POST /api/analyze (multipart: file, startSec, endSec, prompt, modelId,
// temperature, thinkingBudget, mode)
func (h *ChatHandler) Analyze(c *gin.Context) {
	clip, ext, ok := h.readUpload(c)
	if !ok {
		return
	}

	var form struct {
		StartSec       float64 `form:"startSec"`
		EndSec         float64 `form:"endSec"`
		Prompt         string  `form:"prompt" binding:"required"`
		ModelID        string  `form:"modelId" binding:"required"`
		Temperature    float64 `form:"temperature"`
		ThinkingBudget int     `form:"thinkingBudget"`
		Mode           string  `form:"mode"`
	}
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if form.Temperature == 0 {
		form.Temperature = defaultTemperature
	}

	wav, png, ok := h.prepareAudio(c, clip, ext, form.StartSec, form.EndSec)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), providerCallTimeout)
	defer cancel()

	trace := observability.GetClient().StartTrace(ctx, "analyze", map[string]interface{}{
		"model": form.ModelID,
		"mode":  form.Mode,
	})
	defer trace.Finish()
	gen := trace.Generation("start_session", nil)
	gen.Input(form.Prompt)

	start := time.Now()
	sessionID, result, err := h.sessions.Start(ctx, llm.SessionRequest{
		Audio:          llm.AudioPayload{Data: wav, MIMEType: "audio/wav"},
		SpectrogramPNG: png,
		UserPrompt:     form.Prompt,
		Model:          form.ModelID,
		SystemPrompt:   h.prompts.GetSystemPrompt(form.Mode),
		Temperature:    form.Temperature,
		ThinkingBudget: form.ThinkingBudget,
	})
	h.cw.RecordChatTurnDuration(time.Since(start), err == nil)
	if err != nil {
		gen.SetLevel("ERROR")
		gen.Finish()
		h.respondProviderError(c, err)
		return
	}

	c.Set("session_id", sessionID)
	h.recordTurn(c, result, time.Since(start), gen)
	h.cw.RecordChatSession(h.providerFor(form.ModelID))

	advice, midiFile := h.postProcessReply(c, result.Reply)

	resp := gin.H{
		"sessionId":            sessionID,
		"advice":               advice,
		"spectrogramPngBase64": base64.StdEncoding.EncodeToString(png),
	}
	if midiFile != "" {
		resp["midiFile"] = midiFile
	}
	c.JSON(http.StatusOK, resp)
}

// Chat sends a follow-up message on an existing session.
// POST /api/chat (form: sessionId, message)
func (h *ChatHandler) Chat(c *gin.Context) {
	var form struct {
		SessionID string `form:"sessionId" binding:"required"`
		Message   string `form:"message" binding:"required"`
	}
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Set("session_id", form.SessionID)

	ctx, cancel := context.WithTimeout(c.Request.Context(), providerCallTimeout)
	defer cancel()

	trace := observability.GetClient().StartTrace(ctx, "chat", map[string]interface{}{
		"session_id": form.SessionID,
	})
	defer trace.Finish()
	gen := trace.Generation("follow_up", nil)
	gen.Input(form.Message)

	start := time.Now()
	result, err := h.sessions.Continue(ctx, form.SessionID, form.Message)
	h.cw.RecordChatTurnDuration(time.Since(start), err == nil)
	if err != nil {
		gen.SetLevel("ERROR")
		gen.Finish()
		h.respondProviderError(c, err)
		return
	}

	h.recordTurn(c, result, time.Since(start), gen)
	h.cw.RecordChatFollowUp(h.providerForSession(form.SessionID))

	reply, midiFile := h.postProcessReply(c, result.Reply)

	resp := gin.H{"reply": reply}
	if midiFile != "" {
		resp["midiFile"] = midiFile
	}
	c.JSON(http.StatusOK, resp)
}

// readUpload pulls the multipart audio file, bounded by maxUploadBytes
func (h *ChatHandler) readUpload(c *gin.Context) ([]byte, string, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing audio file"})
		return nil, "", false
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "audio file too large"})
		return nil, "", false
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable audio file"})
		return nil, "", false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable audio file"})
		return nil, "", false
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext == "" {
		ext = ".wav"
	}

	logger.Info("Audio uploaded", logger.Fields{
		"request_id": c.GetString("request_id"),
		"filename":   fileHeader.Filename,
		"mime_type":  audio.MIMETypeForFilename(fileHeader.Filename),
		"size_bytes": len(data),
	})
	return data, ext, true
}

// prepareAudio trims the clip to the window and renders the spectrogram
func (h *ChatHandler) prepareAudio(c *gin.Context, clip []byte, ext string, startSec, endSec float64) ([]byte, []byte, bool) {
	wav, err := h.processor.Trim(c.Request.Context(), clip, ext, startSec, endSec)
	if err != nil {
		logger.Error("Audio trim failed", err, logger.WithContext(c))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not process audio clip"})
		return nil, nil, false
	}

	png, err := h.processor.SpectrogramPNG(c.Request.Context(), wav)
	if err != nil {
		logger.Error("Spectrogram render failed", err, logger.WithContext(c))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not render spectrogram"})
		return nil, nil, false
	}
	return wav, png, true
}

// postProcessReply extracts any MIDI block from the reply and persists the
// artifact. Extraction failures never fail the turn.
func (h *ChatHandler) postProcessReply(c *gin.Context, reply string) (string, string) {
	res := midi.ExtractAndBuild(reply)
	if res.ParseErr != nil {
		logger.Warn("Malformed MIDI block in reply", logger.WithContext(c))
	}
	if !res.HasArtifact() {
		return res.Text, ""
	}

	name, err := h.artifacts.Save(res.Artifact)
	if err != nil {
		logger.Error("Failed to save MIDI artifact", err, logger.WithContext(c))
		return res.Text, ""
	}

	h.cw.RecordMIDIGenerated()
	return res.Text, name
}

// recordTurn pushes token usage into logs, metrics, and tracing
func (h *ChatHandler) recordTurn(c *gin.Context, result *llm.ChatResult, duration time.Duration, gen *observability.Generation) {
	usage := result.Usage
	provider := h.providerFor(result.Model)
	logger.LogChatTurn(c.Request.Context(), result.Model, duration,
		usage.Input, usage.Output, usage.Total, logger.WithContext(c))
	h.cw.RecordTokenUsage(provider, result.Model,
		usage.Total, usage.Input, usage.Output)
	h.sentry.RecordTokenUsage(c.Request.Context(), provider, result.Model,
		usage.Total, usage.Input, usage.Output)
	h.sentry.RecordChatTurnDuration(c.Request.Context(), duration, true)

	gen.Output(result.Reply)
	gen.LogChatTurn(result.Model, usage.Input, usage.Output, usage.Total)
	gen.Finish()
}

func (h *ChatHandler) providerFor(modelID string) string {
	return h.sessions.ProviderNameForModel(modelID)
}

func (h *ChatHandler) providerForSession(sessionID string) string {
	return h.sessions.ProviderName(sessionID)
}

// respondProviderError maps the provider error taxonomy to HTTP statuses
func (h *ChatHandler) respondProviderError(c *gin.Context, err error) {
	var cfgErr *llm.ConfigurationError
	var upErr *llm.UpstreamError

	switch {
	case errors.As(err, &cfgErr):
		logger.Warn("Provider not configured", logger.Fields{
			"provider": cfgErr.Provider,
			"missing":  cfgErr.Missing,
		})
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": cfgErr.Error(),
		})
	case errors.Is(err, llm.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "session not found",
		})
	case errors.As(err, &upErr):
		logger.Error("Provider call failed", err, logger.WithContext(c))
		status := http.StatusBadGateway
		if upErr.Reason == "timeout" {
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, gin.H{
			"error":  "upstream model call failed",
			"reason": upErr.Reason,
		})
	default:
		logger.Error("Chat request failed", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "internal error",
		})
	}
}
