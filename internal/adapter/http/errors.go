package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/intekaih/toystore-app-sub001/internal/entity"
	"github.com/intekaih/toystore-app-sub001/internal/usecase"
)

// fail maps domain error kinds to HTTP statuses with an actionable
// message; unknown errors stay opaque 500s.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrSignature):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrStaleCart),
		errors.Is(err, domain.ErrInvalidStateTransition),
		errors.Is(err, usecase.ErrDuplicate):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
