package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/danhartono/amara/server/adapters/llm"
	"github.com/danhartono/amara/server/adapters/tts"
	"github.com/danhartono/amara/server/domain/repositories"
	"github.com/danhartono/amara/server/internal/api"
	"github.com/danhartono/amara/server/internal/knowledge"
	"github.com/danhartono/amara/server/usecase"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Ensure the transient audio directory exists
	audioDir := os.Getenv("AUDIO_DIR")
	if audioDir == "" {
		audioDir = "audios"
	}
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		logger.Fatal("Failed to create audio directory",
			zap.String("dir", audioDir),
			zap.Error(err))
	}

	// Load the knowledge base once; it is read-only afterwards
	knowledgePath := os.Getenv("KNOWLEDGE_BASE_PATH")
	if knowledgePath == "" {
		knowledgePath = "knowledge_base.txt"
	}
	base := knowledge.Load(knowledgePath, logger)

	// Initialize adapters; a nil adapter marks its credential as missing
	// and the pipeline degrades instead of crashing
	languageModel := buildLanguageModel(logger)
	synthesizer := buildSynthesizer(logger)

	// Initialize usecase services
	chatService := usecase.NewChatService(languageModel, synthesizer, base, audioDir, logger)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize API routes
	api.InitRoutes(e, api.Dependencies{
		Chat:          chatService,
		TTS:           synthesizer,
		Base:          base,
		LLMConfigured: languageModel != nil,
		TTSConfigured: synthesizer != nil,
	}, logger)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Avatar chat server started",
		zap.String("port", port),
		zap.Bool("llmConfigured", languageModel != nil),
		zap.Bool("ttsConfigured", synthesizer != nil),
		zap.Bool("knowledgeBaseLoaded", base.Loaded()))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// buildLanguageModel constructs the provider selected by LLM_PROVIDER
// (openai by default, gemini as alternate). Returns nil when the
// provider's credential is absent.
func buildLanguageModel(logger *zap.Logger) repositories.LanguageModel {
	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = "openai"
	}

	switch provider {
	case "gemini":
		model, err := llm.NewGeminiLLM(llm.NewGeminiConfigFromEnv(), logger)
		if err != nil {
			logger.Warn("Gemini LLM unavailable", zap.Error(err))
			return nil
		}
		return model
	default:
		model, err := llm.NewOpenAILLM(llm.NewOpenAIConfigFromEnv(), logger)
		if err != nil {
			logger.Warn("OpenAI LLM unavailable", zap.Error(err))
			return nil
		}
		return model
	}
}

// buildSynthesizer constructs the ElevenLabs adapter, or nil when the
// API key is absent.
func buildSynthesizer(logger *zap.Logger) repositories.SpeechSynthesizer {
	synthesizer, err := tts.NewElevenLabsTTS(tts.NewElevenLabsConfigFromEnv(), logger)
	if err != nil {
		logger.Warn("ElevenLabs TTS unavailable", zap.Error(err))
		return nil
	}
	return synthesizer
}
