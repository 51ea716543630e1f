// Package api implements the HTTP surface: asset listing, annotations,
// thumbnails, and the range-addressable streaming service.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	gocache "github.com/patrickmn/go-cache"

	"github.com/JAEarly/GardenEye/internal/conf"
	"github.com/JAEarly/GardenEye/internal/datastore"
	"github.com/JAEarly/GardenEye/internal/errors"
	"github.com/JAEarly/GardenEye/internal/logging"
	"github.com/JAEarly/GardenEye/internal/observability"
)

// objectsCacheTTL bounds how stale the aggregated object names on the
// listing endpoint may be.
const objectsCacheTTL = 1 * time.Minute

// Controller handles the API requests. All collaborators are injected at
// construction.
type Controller struct {
	Settings *conf.Settings
	Store    datastore.Interface
	Group    *echo.Group
	metrics  *observability.Metrics
	cache    *gocache.Cache
	logger   *slog.Logger
}

// ErrorResponse is the JSON error body shared by all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// New creates the API controller and registers its routes on the given
// echo instance under /api/v1.
func New(e *echo.Echo, settings *conf.Settings, store datastore.Interface, metrics *observability.Metrics) *Controller {
	c := &Controller{
		Settings: settings,
		Store:    store,
		Group:    e.Group("/api/v1"),
		metrics:  metrics,
		cache:    gocache.New(objectsCacheTTL, 5*time.Minute),
		logger:   logging.ForService("api"),
	}
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	c.Group.GET("/videos", c.ListVideos)
	c.Group.GET("/videos/:id/annotations", c.GetAnnotations)
	c.Group.GET("/videos/:id/thumbnail", c.ServeThumbnail)
	c.Group.GET("/videos/:id/stream", c.StreamVideo)
	c.Group.GET("/stream", c.StreamByPath)
}

// HandleError logs the error and writes a JSON error response. A status of
// 0 derives the status from the error's category.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	if code == 0 {
		code = statusForError(err)
	}
	c.logger.Error("request failed",
		"path", ctx.Request().URL.Path,
		"status", code,
		"error", err)
	return ctx.JSON(code, ErrorResponse{Error: message})
}

// statusForError maps the error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	switch errors.CategoryOf(err) {
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryInvalidRange:
		return http.StatusRequestedRangeNotSatisfiable
	case errors.CategoryForbidden:
		return http.StatusForbidden
	case errors.CategoryValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
