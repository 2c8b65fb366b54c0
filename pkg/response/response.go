package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ucplatform-backend/pkg/errors"
)

// The console frontend expects a flat envelope: {"success": true, ...} on
// success and {"error": "<message>"} with a 4xx/5xx status on failure.

// Success sends a successful response merging extra fields into the envelope
func Success(c *gin.Context, extra gin.H) {
	body := gin.H{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Created sends a 201 response with the success envelope
func Created(c *gin.Context, extra gin.H) {
	body := gin.H{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusCreated, body)
}

// Error sends an error response with the given status
func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}

// FromError maps an application error onto the envelope, preserving the
// status code carried by AppError
func FromError(c *gin.Context, err error) {
	appErr := errors.GetAppError(err)
	c.JSON(appErr.StatusCode, gin.H{"error": appErr.Message})
}

// ValidationError sends a validation error response (400)
func ValidationError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized sends unauthorized error (401)
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// Forbidden sends forbidden error (403)
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message)
}

// NotFound sends not found error (404)
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// Conflict sends conflict error (409)
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

// InternalError sends internal server error (500)
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}
