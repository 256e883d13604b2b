package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/service"
)

const requestTimeout = 5 * time.Second

func routeLog(route string) *zap.Logger {
	return zap.L().With(zap.String("route", route))
}

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		routeLog(route).Error("panic recovered", zap.Any("panic", r))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	routeLog(route).Warn("returning error", zap.Int("status", status), zap.String("error", message))
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondServiceError maps a service error onto its status code. Reason
// errors carry their own message; anything uncategorised is a 500 and its
// text is only logged.
func respondServiceError(c *gin.Context, route string, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		routeLog(route).Info("validation failed", zap.Strings("details", verr.Details))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": verr.Details,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		routeLog(route).Error("request failed", zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}
	if status == http.StatusServiceUnavailable {
		respondWithError(c, status, route, "database unavailable")
		return
	}
	respondWithError(c, status, route, reasonMessage(err))
}

// reasonMessage drops the category prefix from a wrapped reason error, so
// "not found: order not found" is reported as "order not found".
func reasonMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

func respondValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": details,
		})
		return
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body", "details": err.Error()})
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func parseObjectID(c *gin.Context, route, name, raw string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, route, "invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

// optionalObjectID parses a query parameter that may be absent.
func optionalObjectID(c *gin.Context, route, name string) (*primitive.ObjectID, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, ok := parseObjectID(c, route, name, raw)
	if !ok {
		return nil, false
	}
	return &id, true
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}
