package api

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jonathanlyon/critical-dream-theory-sub000/domain"
	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/repositories"
	"github.com/jonathanlyon/critical-dream-theory-sub000/usecase"
)

// Handler wires the dream service into the HTTP surface.
type Handler struct {
	dreams *usecase.DreamService
	logger *zap.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(dreams *usecase.DreamService, logger *zap.Logger) *Handler {
	return &Handler{dreams: dreams, logger: logger}
}

// createDream accepts a multipart recording upload and runs the full
// processing pipeline before responding.
func (h *Handler) createDream(c echo.Context) error {
	file, err := c.FormFile("audio")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_audio",
			Message: "An audio file is required in the 'audio' field",
		})
	}

	duration := 0
	if raw := c.FormValue("durationSeconds"); raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil || duration < 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_duration",
				Message: "durationSeconds must be a non-negative integer",
			})
		}
	}
	language := c.FormValue("language")

	src, err := file.Open()
	if err != nil {
		h.logger.Error("Failed to open upload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "unreadable_audio",
			Message: "The uploaded audio could not be read",
		})
	}
	defer src.Close()

	result, err := h.dreams.ProcessUpload(
		c.Request().Context(),
		userID(c),
		src,
		filepath.Ext(file.Filename),
		duration,
		language,
	)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) listDreams(c echo.Context) error {
	dreams, err := h.dreams.ListDreams(c.Request().Context(), userID(c))
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dreams)
}

func (h *Handler) getDream(c echo.Context) error {
	dream, err := h.dreams.GetDream(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dream)
}

func (h *Handler) updateDream(c echo.Context) error {
	var req UpdateDreamRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	dream, err := h.dreams.UpdateDream(c.Request().Context(), userID(c), c.Param("id"), repositories.DreamUpdate{
		Title:      req.Title,
		IsArchived: req.IsArchived,
		IsPrivate:  req.IsPrivate,
	})
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dream)
}

func (h *Handler) archiveDream(c echo.Context) error {
	dream, err := h.dreams.ArchiveDream(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dream)
}

func (h *Handler) deleteDream(c echo.Context) error {
	if err := h.dreams.DeleteDream(c.Request().Context(), userID(c), c.Param("id")); err != nil {
		return h.errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) errorResponse(c echo.Context, err error) error {
	status, code := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.Error(err))
	}
	return c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
}

// statusForError maps domain error kinds onto HTTP statuses.
func statusForError(err error) (int, string) {
	switch domain.KindOf(err) {
	case domain.KindInput:
		return http.StatusBadRequest, "invalid_request"
	case domain.KindNotFound:
		return http.StatusNotFound, "not_found"
	case domain.KindForbidden:
		return http.StatusForbidden, "forbidden"
	case domain.KindUpstream, domain.KindParse:
		return http.StatusBadGateway, "upstream_failure"
	case domain.KindTimeout:
		return http.StatusGatewayTimeout, "upstream_timeout"
	case domain.KindPersistence:
		return http.StatusInternalServerError, "persistence_failure"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
