package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mixmentor/mixmentor-api/internal/api/handlers"
	"github.com/mixmentor/mixmentor-api/internal/api/middleware"
	"github.com/mixmentor/mixmentor-api/internal/artifacts"
	"github.com/mixmentor/mixmentor-api/internal/audio"
	"github.com/mixmentor/mixmentor-api/internal/config"
	"github.com/mixmentor/mixmentor-api/internal/metrics"
	"github.com/mixmentor/mixmentor-api/internal/session"
)

// SetupRouter builds the gin engine with middleware and routes
func SetupRouter(
	cfg *config.Config,
	sessions *session.Router,
	processor audio.Processor,
	artifactStore *artifacts.FilesystemStore,
	cw *metrics.Client,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.SentryMiddleware())
	router.Use(middleware.RequestTracking())
	router.Use(middleware.RecoverWithSentry())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Generated MIDI artifacts are fetched as static files
	router.Static("/static/midi", artifactStore.Dir())

	chat := handlers.NewChatHandler(sessions, processor, artifactStore, cw)

	router.GET("/health", handlers.HealthCheck)

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/spectrogram", chat.Spectrogram)
		apiGroup.POST("/analyze", chat.Analyze)
		apiGroup.POST("/chat", chat.Chat)
	}

	return router
}
