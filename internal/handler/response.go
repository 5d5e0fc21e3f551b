package handler

import (
	"fmt"
	"net/http"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, err error, exposeDetails bool) {
	c.JSON(apperrors.ErrorResponse(err, exposeDetails))
}

// NotFound answers requests that matched no route
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, constants.BuildErrorResponse(
		fmt.Sprintf("Route not found: %s %s", c.Request.Method, c.Request.URL.Path), nil))
}
