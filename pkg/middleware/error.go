package middleware

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/cuevaio/cpp-insumos/pkg/validation"
)

// opaqueMessage is the only detail a caller sees for unexpected failures.
const opaqueMessage = "Something went wrong, man"

// ErrorResponse is the error envelope of both failure shapes: a field error
// map for validation failures, a bare string otherwise.
type ErrorResponse struct {
	Error any `json:"error"`
}

// Error renders every handler error into the API's two error shapes.
// Validation errors surface as a 400 with the per-field message map; client
// errors from binding or routing keep their status with a single message;
// everything else is logged and answered with an opaque 500.
func Error(logger ectologger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		ctx := c.Request().Context()
		if c.Response().Committed {
			return
		}

		var verrs validation.Errors
		if errors.As(err, &verrs) {
			_ = c.JSON(http.StatusBadRequest, ErrorResponse{Error: verrs})
			return
		}

		if he, ok := err.(*echo.HTTPError); ok && he.Code < http.StatusInternalServerError {
			message := http.StatusText(he.Code)
			if msg, ok := he.Message.(string); ok {
				message = msg
			}
			_ = c.JSON(he.Code, ErrorResponse{Error: validation.NewErrors("request", message)})
			return
		}

		if httperror.IsHTTPError(err) {
			if code := httperror.GetStatusCode(err); code < http.StatusInternalServerError {
				httperr := httperror.ToHTTPError(err)
				_ = c.JSON(code, ErrorResponse{Error: validation.NewErrors("request", httperr.Error())})
				return
			}
		}

		logger.WithContext(ctx).WithError(err).Error("api is returning an unexpected error")
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{Error: opaqueMessage})
	}
}
