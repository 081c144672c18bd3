package apitest

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/piholedash/errors"
	"github.com/kbukum/piholedash/logger"
)

const headerRequestID = "X-Request-ID"

// recovery answers 500 with a detail body when a handler panics.
func recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("Panic recovered", logger.Fields(
					logger.FieldError, fmt.Sprintf("%v", err),
					"stack", string(debug.Stack()),
					logger.FieldPath, c.Request.URL.Path,
					logger.FieldMethod, c.Request.Method,
				))
				c.AbortWithStatusJSON(http.StatusInternalServerError, errors.DetailResponse{Detail: "Internal Server Error"})
			}
		}()
		c.Next()
	}
}

// echoRequestID copies the caller's request id onto the response.
func echoRequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader(headerRequestID); id != "" {
			c.Set(logger.FieldRequestID, id)
			c.Header(headerRequestID, id)
		}
		c.Next()
	}
}

// requestLogger logs every request with its status and duration.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path = path + "?" + q
		}
		fields := logger.Fields(
			logger.FieldMethod, c.Request.Method,
			logger.FieldPath, path,
			logger.FieldStatus, c.Writer.Status(),
			logger.FieldDuration, time.Since(start).Milliseconds(),
		)
		if id := c.GetString(logger.FieldRequestID); id != "" {
			fields[logger.FieldRequestID] = id
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("Request completed", fields)
		case status >= 400:
			log.Warn("Request completed", fields)
		default:
			log.Debug("Request completed", fields)
		}
	}
}

// abort answers with the backend's {"detail": ...} error body.
func abort(c *gin.Context, err *errors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
}
