package main

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"github.com/mixmentor/mixmentor-api/internal/api"
	"github.com/mixmentor/mixmentor-api/internal/artifacts"
	"github.com/mixmentor/mixmentor-api/internal/audio"
	"github.com/mixmentor/mixmentor-api/internal/config"
	"github.com/mixmentor/mixmentor-api/internal/llm"
	"github.com/mixmentor/mixmentor-api/internal/metrics"
	"github.com/mixmentor/mixmentor-api/internal/observability"
	"github.com/mixmentor/mixmentor-api/internal/session"
)

const sentryFlushTimeout = 2 * time.Second

func main() {
	// Load .env file if present (local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: 1.0,
			BeforeSend:       filterSensitiveData,
		})
		if err != nil {
			log.Printf("⚠️  Sentry initialization failed: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.Environment)
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  SENTRY_DSN not set, error tracking disabled")
	}

	ctx := context.Background()

	// CloudWatch metrics (production only)
	cw, err := metrics.NewClient(ctx, cfg.Environment)
	if err != nil {
		log.Printf("⚠️  CloudWatch metrics unavailable: %v", err)
	}

	// Langfuse LLM tracing (optional)
	observability.InitializeLangfuse(ctx, cfg)

	// Providers: gpt-* goes to OpenAI, everything else to Gemini.
	// Missing API keys surface as 503s on first use, not startup crashes.
	gemini := llm.NewGeminiProvider(cfg.GeminiAPIKey)
	openai := llm.NewOpenAIProvider(cfg.OpenAIAPIKey)

	registry := llm.NewRegistry(gemini)
	registry.Register("gpt-", openai)
	registry.Register("gemini-", gemini)

	sessions := session.NewRouter(registry, session.NewMemoryStore())

	processor := audio.NewFFmpegProcessor(cfg.FFmpegPath)

	artifactStore, err := artifacts.NewFilesystemStore(cfg.MIDIOutputDir)
	if err != nil {
		log.Fatalf("❌ Cannot create MIDI output dir %s: %v", cfg.MIDIOutputDir, err)
	}

	router := api.SetupRouter(cfg, sessions, processor, artifactStore, cw)

	log.Printf("🚀 mixmentor-api listening on :%s (environment: %s)", cfg.Port, cfg.Environment)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}

// filterSensitiveData strips auth material from Sentry events
func filterSensitiveData(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event.Request != nil {
		delete(event.Request.Headers, "Authorization")
		delete(event.Request.Headers, "Cookie")
		delete(event.Request.Headers, "X-Api-Key")
	}
	return event
}
