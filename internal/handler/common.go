package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/advocate-booking/internal/model"
	"github.com/iliyamo/advocate-booking/internal/monitoring"
	"github.com/iliyamo/advocate-booking/internal/repository"
	"github.com/iliyamo/advocate-booking/internal/service"
)

const requestTimeout = 5 * time.Second

// errUnauthenticated is returned by actor when the token's account no
// longer exists.
var errUnauthenticated = errors.New("unauthenticated")

// getUserID extracts the authenticated account id placed in the context
// by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errUnauthenticated
}

// actor loads the account behind the request's access token.
func actor(ctx context.Context, c echo.Context, ids Identity) (model.Account, error) {
	id, err := getUserID(c)
	if err != nil || id == 0 {
		return model.Account{}, errUnauthenticated
	}
	a, err := ids.Account(ctx, id)
	if errors.Is(err, service.ErrNotFound) {
		return model.Account{}, errUnauthenticated
	}
	return a, err
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// writeError maps a service error onto its HTTP status and a JSON body.
// Unknown errors become 500, are logged and reported to Sentry.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	var (
		status int
		msg    string
	)
	switch {
	case errors.Is(err, errUnauthenticated):
		status, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrBadCredential):
		status, msg = http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, service.ErrForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, repository.ErrEmailExists):
		status, msg = http.StatusConflict, "email already registered"
	case errors.Is(err, repository.ErrBarNumberExists):
		status, msg = http.StatusConflict, "bar number already registered"
	case errors.Is(err, service.ErrDuplicateKey), errors.Is(err, service.ErrAlreadyReviewed):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrNotCompleted),
		errors.Is(err, service.ErrAdvocateInactive), errors.Is(err, service.ErrPaymentInvalid):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusGatewayTimeout, "timeout"
	default:
		log.Error("request failed", zap.String("route", c.Path()), zap.Error(err))
		monitoring.CaptureError(err, map[string]interface{}{"route": c.Path(), "method": c.Request().Method})
		status, msg = http.StatusInternalServerError, "internal error"
	}
	return c.JSON(status, echo.Map{"error": msg})
}
