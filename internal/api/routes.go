package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/sikap/domain"
	"github.com/satriahrh/sikap/internal/audio"
	"github.com/satriahrh/sikap/internal/auth"
	"github.com/satriahrh/sikap/internal/websocket"
	"github.com/satriahrh/sikap/usecase"
)

const defaultMaxUploadSize = 32 << 20

// Handler serves the HTTP API
type Handler struct {
	interviews    *usecase.InterviewService
	reports       *usecase.ReportService
	hub           *websocket.Hub
	issuer        *auth.Issuer
	maxUploadSize int64
	logger        *zap.Logger
}

// NewHandler creates the API handler. maxUploadSize <= 0 uses a 32MB limit.
func NewHandler(
	interviews *usecase.InterviewService,
	reports *usecase.ReportService,
	hub *websocket.Hub,
	issuer *auth.Issuer,
	maxUploadSize int64,
	logger *zap.Logger,
) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxUploadSize
	}
	return &Handler{
		interviews:    interviews,
		reports:       reports,
		hub:           hub,
		issuer:        issuer,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, h *Handler) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "sikap",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")
	v1.POST("/sessions", h.createSession)
	v1.POST("/analyze", h.analyze)

	// WebSocket endpoint with JWT validation
	e.GET("/ws", h.websocketWithAuth)
}

// createSession starts an interview and issues its token
func (h *Handler) createSession(c echo.Context) error {
	ctx := c.Request().Context()

	interview, err := h.interviews.Start(ctx, uuid.New().String())
	if err != nil {
		h.logger.Error("Failed to start interview", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to start interview",
		})
	}

	token, expiresAt, err := h.issuer.IssueCandidateToken(interview.ID)
	if err != nil {
		h.logger.Error("Failed to generate session token",
			zap.String("session_id", interview.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate session token",
		})
	}

	return c.JSON(http.StatusCreated, SessionResponse{
		SessionID: interview.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// analyze runs the analysis pipeline on one uploaded answer
func (h *Handler) analyze(c echo.Context) error {
	question := c.FormValue("question")
	if question == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "question is required",
		})
	}

	segments := 0
	if raw := c.FormValue("segments"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_segments",
				Message: "segments must be a positive integer",
			})
		}
		segments = n
	}

	data, err := h.readUpload(c)
	if err != nil {
		h.logger.Warn("Failed to read upload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_file",
			Message: err.Error(),
		})
	}

	track, err := audio.Decode(data)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_audio",
			Message: err.Error(),
		})
	}

	ctx := c.Request().Context()
	var report *usecase.Report
	if segments > 0 {
		report, err = h.reports.GenerateSegments(ctx, question, track, segments)
	} else {
		report, err = h.reports.Generate(ctx, question, track)
	}
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSegmentCount) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_segments",
				Message: err.Error(),
			})
		}
		h.logger.Error("Analysis failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "analysis_failed",
			Message: "Failed to analyze answer",
		})
	}

	return c.JSON(http.StatusOK, report)
}

func (h *Handler) readUpload(c echo.Context) ([]byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, errors.New("file is required")
	}
	if header.Size > h.maxUploadSize {
		return nil, errors.New("file is too large")
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(io.LimitReader(file, h.maxUploadSize))
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func (h *Handler) websocketWithAuth(c echo.Context) error {
	token := bearerToken(c.Request().Header.Get("Authorization"))
	if token == "" {
		token = c.QueryParam("token")
	}

	if token == "" {
		h.logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required in Authorization header or token query parameter",
		})
	}

	claims, err := h.issuer.Validate(token)
	if err != nil {
		h.logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	interview, err := h.interviews.Get(c.Request().Context(), claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrInterviewNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "session_not_found",
				Message: "Interview session does not exist or has expired",
			})
		}
		h.logger.Error("Failed to load interview", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load interview",
		})
	}
	if !interview.IsActive() {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "session_stopped",
			Message: "Interview session has been stopped",
		})
	}

	h.logger.Info("WebSocket connection authenticated", zap.String("session_id", interview.ID))

	return websocket.HandleWebSocketWithAuth(h.hub, c, interview.ID, h.logger)
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}
