package httputil

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/tier-engine/internal/domain"
	"github.com/hxuan190/tier-engine/internal/services/solver"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func Error(c *gin.Context, status int, err string) {
	c.JSON(status, Response{
		Success: false,
		Error:   err,
	})
}

func BadRequest(c *gin.Context, err string) {
	Error(c, http.StatusBadRequest, err)
}

func NotFound(c *gin.Context, err string) {
	Error(c, http.StatusNotFound, err)
}

func Unprocessable(c *gin.Context, err string) {
	Error(c, http.StatusUnprocessableEntity, err)
}

func InternalError(c *gin.Context, err string) {
	Error(c, http.StatusInternalServerError, err)
}

// DomainError maps the engine's typed failures onto HTTP statuses: invalid
// input is the caller's fault, an unabsorbable order is unprocessable, and
// solver non-convergence is ours.
func DomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrInsufficientLiquidity):
		Unprocessable(c, err.Error())
	case errors.Is(err, solver.ErrNonConvergence):
		InternalError(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}
