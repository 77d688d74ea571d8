package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/danhartono/amara/server/domain/entities"
	"github.com/danhartono/amara/server/domain/repositories"
	"github.com/danhartono/amara/server/internal/knowledge"
	"github.com/danhartono/amara/server/usecase"
)

const probeTimeout = 5 * time.Second

// Dependencies carries everything the HTTP layer needs. TTS is nil when
// the provider credential is absent; the chat service handles that case
// itself, the voices and health endpoints report it.
type Dependencies struct {
	Chat          *usecase.ChatService
	TTS           repositories.SpeechSynthesizer
	Base          *knowledge.Base
	LLMConfigured bool
	TTSConfigured bool
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, deps Dependencies, logger *zap.Logger) {
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Amara avatar server is running!")
	})

	e.GET("/voices", func(c echo.Context) error {
		return listVoices(c, deps, logger)
	})

	e.GET("/health", func(c echo.Context) error {
		return health(c, deps, logger)
	})

	e.POST("/chat", func(c echo.Context) error {
		return chat(c, deps, logger)
	})
}

// listVoices proxies the TTS provider's voice list
func listVoices(c echo.Context, deps Dependencies, logger *zap.Logger) error {
	if deps.TTS == nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "text-to-speech provider is not configured",
		})
	}

	voices, err := deps.TTS.Voices(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list voices", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, VoicesResponse{Voices: voices})
}

// health reports credential presence, knowledge base state and a live
// connectivity probe against the TTS provider
func health(c echo.Context, deps Dependencies, logger *zap.Logger) error {
	reachable := false
	if deps.TTS != nil {
		probeCtx, cancel := context.WithTimeout(c.Request().Context(), probeTimeout)
		defer cancel()

		if _, err := deps.TTS.Voices(probeCtx); err == nil {
			reachable = true
		} else {
			logger.Warn("TTS connectivity probe failed", zap.Error(err))
		}
	}

	return c.JSON(http.StatusOK, HealthResponse{
		LLMKeyPresent:       deps.LLMConfigured,
		TTSKeyPresent:       deps.TTSConfigured,
		KnowledgeBaseLoaded: deps.Base.Loaded(),
		TTSReachable:        reachable,
		Timestamp:           time.Now().UTC().Format(time.RFC3339),
	})
}

// chat runs one turn of the pipeline
func chat(c echo.Context, deps Dependencies, logger *zap.Logger) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind chat request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request format"})
	}

	messages, err := deps.Chat.Chat(c.Request().Context(), req.Message)
	if err != nil {
		logger.Error("Chat turn failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ChatResponse{
			Messages: []entities.ReplyMessage{usecase.ErrorMessage()},
		})
	}

	return c.JSON(http.StatusOK, ChatResponse{Messages: messages})
}
