package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"datamanageapi/pkg/logger"
	"datamanageapi/services"
)

// ErrorResponse logs the error and writes it with the HTTP status matching
// the domain error class.
func ErrorResponse(c *gin.Context, err error) {
	logger.Errorf("API Error: %v", err)

	if verr, ok := services.AsValidationError(err); ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "validation failed",
			"issues": verr.Issues,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// BadRequestResponse writes a 400 for malformed or invalid request bodies.
func BadRequestResponse(c *gin.Context, err error) {
	logger.Warnf("Bad request: %v", err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
