package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"meditrip-api/internal/apperr"
)

// errorBody is the wire shape of every error response.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeErr maps a typed core error to its transport status. Forbidden
// responses carry only "unauthorized" so the id space leaks nothing about
// other users' resources.
func writeErr(c echo.Context, err error) error {
	var e *apperr.Error
	if !errors.As(err, &e) {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, errorBody{Kind: "internal", Message: "internal error"})
	}

	status := http.StatusInternalServerError
	msg := e.Msg
	switch e.Kind {
	case apperr.Validation:
		status = http.StatusBadRequest
	case apperr.Forbidden:
		status = http.StatusForbidden
		msg = "unauthorized"
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.InvalidTransition, apperr.SlotConflict:
		status = http.StatusConflict
	case apperr.Upstream:
		status = http.StatusBadGateway
	case apperr.Internal:
		msg = "internal error"
	}
	return c.JSON(status, errorBody{Kind: e.Kind.String(), Message: msg})
}
