package config

import "os"

// Config holds the application configuration
// Note: This is a stateless configuration - no database or auth secrets needed
type Config struct {
	// Environment
	Environment string
	Port        string

	// LLM API Keys
	OpenAIAPIKey string // OpenAI API key for GPT audio models
	GeminiAPIKey string // Google Gemini API key

	// Audio pipeline
	FFmpegPath    string // ffmpeg binary, empty means $PATH lookup
	MIDIOutputDir string // where generated .mid files land

	// HTTP
	CORSAllowedOrigins string // comma-separated extra origins

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse
}

func Load() *Config {
	return &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		Port:               getEnv("PORT", "8080"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		FFmpegPath:         getEnv("FFMPEG_PATH", ""),
		MIDIOutputDir:      getEnv("MIDI_OUTPUT_DIR", "static/midi"),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
		LangfusePublicKey:  getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey:  getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:       getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:    getEnv("LANGFUSE_ENABLED", "false") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// IsProduction reports whether production-only integrations should run
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
