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

	"github.com/jonathanlyon/critical-dream-theory-sub000/adapters/audiostore"
	"github.com/jonathanlyon/critical-dream-theory-sub000/adapters/image"
	"github.com/jonathanlyon/critical-dream-theory-sub000/adapters/llm"
	adaptermongo "github.com/jonathanlyon/critical-dream-theory-sub000/adapters/mongo"
	"github.com/jonathanlyon/critical-dream-theory-sub000/adapters/prosody"
	"github.com/jonathanlyon/critical-dream-theory-sub000/adapters/stt"
	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/repositories"
	"github.com/jonathanlyon/critical-dream-theory-sub000/internal/api"
	"github.com/jonathanlyon/critical-dream-theory-sub000/internal/auth"
	"github.com/jonathanlyon/critical-dream-theory-sub000/internal/events"
	"github.com/jonathanlyon/critical-dream-theory-sub000/internal/websocket"
	"github.com/jonathanlyon/critical-dream-theory-sub000/usecase"
)

func main() {
	godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	mongoClient, err := adaptermongo.NewClient(adaptermongo.NewConfigFromEnv(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	dreamRepo := adaptermongo.NewDreamRepository(mongoClient.Database)

	audioStore, err := audiostore.NewLocalStore(audiostore.NewLocalConfigFromEnv(), logger)
	if err != nil {
		logger.Fatal("Failed to initialize audio store", zap.Error(err))
	}

	// External adapters fall back to mocks when credentials are absent so
	// the server stays runnable in local development.
	var speechToText repositories.SpeechToText
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" {
		speechToText = stt.NewGoogleSpeechToText(logger)
	} else {
		logger.Warn("GOOGLE_APPLICATION_CREDENTIALS not set, using mock speech-to-text")
		speechToText = stt.NewMockSpeechToText(logger)
	}

	var analysisModel repositories.AnalysisModel
	if os.Getenv("GEMINI_API_KEY") != "" {
		analysisModel, err = llm.NewGeminiModel(llm.NewGeminiConfigFromEnv(), logger)
		if err != nil {
			logger.Fatal("Failed to initialize Gemini model", zap.Error(err))
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set, using mock analysis model")
		analysisModel = llm.NewMockAnalysisModel()
	}

	var imageGenerator repositories.ImageGenerator
	if os.Getenv("OPENAI_API_KEY") != "" {
		imageGenerator, err = image.NewOpenAIImageGenerator(image.NewOpenAIImageConfigFromEnv(), logger)
		if err != nil {
			logger.Fatal("Failed to initialize image generator", zap.Error(err))
		}
	} else {
		logger.Warn("OPENAI_API_KEY not set, using mock image generator")
		imageGenerator = image.NewMockImageGenerator()
	}

	// The Hume client skips itself when no API key is configured.
	prosodyAnalyzer := prosody.NewHumeClient(prosody.NewHumeConfigFromEnv(), logger)

	tokens, err := auth.NewTokenServiceFromEnv()
	if err != nil {
		logger.Fatal("Failed to initialize token service", zap.Error(err))
	}

	bus := events.NewBus(logger)

	dreamService := usecase.NewDreamService(
		speechToText,
		prosodyAnalyzer,
		usecase.NewAnalysisService(analysisModel, logger),
		usecase.NewImageService(imageGenerator, logger),
		dreamRepo,
		audioStore,
		bus,
		logger,
	)

	streamer := websocket.NewProgressStreamer(bus, logger)

	// Initialize API routes
	api.InitRoutes(e, dreamService, streamer, tokens, logger)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	if err := mongoClient.Close(shutdownCtx); err != nil {
		logger.Warn("Failed to close MongoDB client", zap.Error(err))
	}

	logger.Info("Server exited")
}
