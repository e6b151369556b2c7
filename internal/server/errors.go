package server

import (
	"errors"
	"fmt"
	"meal-storefront/internal/apperr"
	"meal-storefront/internal/dto"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// errorHandler renders every failure as {"error": code, "message": msg}.
// Unclassified errors are reported as internal without their text.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := dto.ErrorResponse{Error: "internal_error", Message: "internal server error"}

	var he *echo.HTTPError
	if appErr, ok := apperr.As(err); ok {
		status = appErr.Status()
		body = dto.ErrorResponse{Error: appErr.Code, Message: appErr.Message}
	} else if errors.As(err, &he) {
		status = he.Code
		body = dto.ErrorResponse{Error: statusCode(he.Code), Message: fmt.Sprint(he.Message)}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.log.ErrorContext(c.Request().Context(), "write error response", "error", err)
	}
}

// statusCode turns 429 into "too_many_requests".
func statusCode(status int) string {
	return strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
}
