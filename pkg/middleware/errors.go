package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"CampusPortal/internal/apperr"
)

type errorBody struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:   http.StatusBadRequest,
	apperr.KindUnauthorized: http.StatusUnauthorized,
	apperr.KindForbidden:    http.StatusForbidden,
	apperr.KindNotFound:     http.StatusNotFound,
	apperr.KindConflict:     http.StatusConflict,
}

// NewHTTPErrorHandler renders every error as {"message": ...}. Anything that
// is not an application error or an echo.HTTPError is logged and reported
// as a 500.
func NewHTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	logger = logger.Named("http")
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := errorBody{Message: "Internal server error"}
		if ae, ok := apperr.As(err); ok && ae.Kind != apperr.KindInternal {
			status = statusByKind[ae.Kind]
			body = errorBody{Message: ae.Message, Fields: ae.Fields}
		} else if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			if status < http.StatusInternalServerError {
				if msg, ok := he.Message.(string); ok {
					body.Message = msg
				} else {
					body.Message = http.StatusText(status)
				}
			}
		}

		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("route", c.Path()),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.Error(err),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error("writing error response", zap.Error(err))
		}
	}
}
