package counter

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Handler serves the counter API.
type Handler struct {
	store   *Store
	limiter *Limiter
	logger  *zap.Logger
}

// NewHandler creates a Handler. Increments are limited to 30 per IP per
// minute.
func NewHandler(store *Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:   store,
		limiter: NewLimiter(30, time.Minute),
		logger:  logger,
	}
}

// RegisterRoutes mounts the counter API on e. The endpoints are meant to
// be called cross-origin from static front ends, so they allow any origin.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/counter", middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))
	g.POST("/increment", h.Increment)
	g.GET("", h.Current)
}

// Increment handles POST /api/counter/increment.
func (h *Handler) Increment(c echo.Context) error {
	if !h.limiter.Allow(c.RealIP()) {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Too many requests"})
	}
	n, err := h.store.Increment(c.Request().Context())
	if err != nil {
		h.logger.Error("counter increment failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update view count"})
	}
	return c.JSON(http.StatusOK, Response{Count: n, Message: "View count updated successfully"})
}

// Current handles GET /api/counter without incrementing.
func (h *Handler) Current(c echo.Context) error {
	n, err := h.store.Count(c.Request().Context(), SiteCounter)
	if err != nil {
		h.logger.Error("counter read failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to read view count"})
	}
	return c.JSON(http.StatusOK, Response{Count: n})
}

// Close releases the handler's background resources.
func (h *Handler) Close() {
	h.limiter.Stop()
}
