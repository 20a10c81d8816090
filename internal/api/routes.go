package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jonathanlyon/critical-dream-theory-sub000/internal/auth"
	"github.com/jonathanlyon/critical-dream-theory-sub000/internal/websocket"
	"github.com/jonathanlyon/critical-dream-theory-sub000/usecase"
)

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, dreams *usecase.DreamService, streamer *websocket.ProgressStreamer, tokens *auth.TokenService, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "dream-theory-server",
		})
	})

	handler := NewHandler(dreams, logger)
	authRequired := requireUser(tokens, logger)

	// API v1 routes
	v1 := e.Group("/api/v1", authRequired)

	v1.POST("/dreams", handler.createDream)
	v1.GET("/dreams", handler.listDreams)
	v1.GET("/dreams/:id", handler.getDream)
	v1.PATCH("/dreams/:id", handler.updateDream)
	v1.POST("/dreams/:id/archive", handler.archiveDream)
	v1.DELETE("/dreams/:id", handler.deleteDream)

	// WebSocket endpoint with JWT validation
	e.GET("/ws/dreams", func(c echo.Context) error {
		return streamWithAuth(streamer, tokens, c, logger)
	})
}

// streamWithAuth validates the caller before upgrading to a websocket. The
// token may arrive in the Authorization header or, for browser clients that
// cannot set headers on websocket dials, the token query parameter.
func streamWithAuth(streamer *websocket.ProgressStreamer, tokens *auth.TokenService, c echo.Context, logger *zap.Logger) error {
	token := bearerToken(c)
	if token == "" {
		token = c.QueryParam("token")
	}
	if token == "" {
		logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required",
		})
	}

	claims, err := tokens.ValidateToken(token)
	if err != nil {
		logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	return streamer.HandleConnection(c, claims.UserID)
}
