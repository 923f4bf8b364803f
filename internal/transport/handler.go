package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go-restaurant-grid/internal/config"
	apperrors "go-restaurant-grid/internal/errors"
	"go-restaurant-grid/internal/logger"
	"go-restaurant-grid/internal/observer"
	"go-restaurant-grid/internal/publish"
	"go-restaurant-grid/internal/service"
	"go-restaurant-grid/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	runIDHeader    = "X-Run-ID"
	locationHeader = "X-Grid-Location"
)

func NewHandler(svc service.GridService, publisher *publish.Multi, metrics http.Handler, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		runID(),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.POST("/records", buildRecords(svc, cfg))
	r.POST("/grid", generateGrid(svc, publisher, cfg))
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	return r
}

func buildRecords(svc service.GridService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		req, ok := bindGridRequest(c, cfg)
		if !ok {
			return
		}

		records, err := svc.Build(ctx, req.Lines)
		if err != nil {
			respondError(c, statusFor(err), "failed to resolve restaurants", err)
			return
		}

		summary := service.Summarize(records)
		logger.WithFields(logrus.Fields{
			"run_id":             observer.RunIDFromContext(ctx),
			"lines":              len(req.Lines),
			"matched":            summary.Matched,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Records resolved")

		c.JSON(http.StatusOK, models.RecordsResponse{
			RunID:   observer.RunIDFromContext(ctx),
			Records: records,
			Summary: summary,
		})
	}
}

func generateGrid(svc service.GridService, publisher *publish.Multi, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		req, ok := bindGridRequest(c, cfg)
		if !ok {
			return
		}

		grid, err := svc.Generate(ctx, req.Lines)
		if err != nil {
			respondError(c, statusFor(err), "failed to generate grid", err)
			return
		}

		id := observer.RunIDFromContext(ctx)
		if publisher != nil && publisher.Len() > 0 {
			results, err := publisher.Publish(ctx, publish.ObjectKey(cfg.S3.Prefix, id), grid.PNG)
			if err != nil {
				logger.WithError(err).WithField("run_id", id).Warn("Grid publish failed for some sinks")
			}
			for _, res := range results {
				if res.Location != "" {
					c.Header(locationHeader, res.Location)
					break
				}
			}
		}

		logger.WithFields(logrus.Fields{
			"run_id":             id,
			"rows":               len(grid.Records),
			"png_bytes":          len(grid.PNG),
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Grid request completed successfully")

		c.Header("Content-Length", strconv.Itoa(len(grid.PNG)))
		c.Data(http.StatusOK, publish.ContentType, grid.PNG)
	}
}

func bindGridRequest(c *gin.Context, cfg *config.Config) (models.GridRequest, bool) {
	var req models.GridRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "request body too large", err)
			return req, false
		}
		logger.WithError(err).WithFields(logrus.Fields{
			"ip": c.ClientIP(),
		}).Error("Invalid request format")
		respondError(c, http.StatusBadRequest, "invalid request format", err)
		return req, false
	}

	if len(req.Lines) > cfg.MaxLinesPerRequest {
		err := apperrors.NewValidationError(
			fmt.Sprintf("at most %d lines per request (got %d)", cfg.MaxLinesPerRequest, len(req.Lines)), nil)
		respondError(c, err.StatusCode, "too many lines", err)
		return req, false
	}
	return req, true
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// runID tags each request with a run identifier, taken from the X-Run-ID
// header when the caller supplies a valid UUID.
func runID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(runIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(observer.WithRunID(c.Request.Context(), id))
		c.Header(runIDHeader, id)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, statusFor(err.Err), "request processing failed", err)
		}
	}
}

func statusFor(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
		"run_id":      observer.RunIDFromContext(c.Request.Context()),
	}).Error("Request failed")

	resp := models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Details = appErr.Details
	}
	c.AbortWithStatusJSON(code, resp)
}
