// Package handler defines the HTTP handlers. Handlers translate repository
// errors into status codes; authorization decisions live in the policy and
// the repositories.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-zone-service/internal/middleware"
	"github.com/iliyamo/parking-zone-service/internal/repository"
)

// getUserID extracts the authenticated user id placed by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	if v, ok := c.Get(middleware.ContextUserID).(uint64); ok && v > 0 {
		return v, nil
	}
	return 0, errors.New("invalid user_id in context")
}

// writeRepoError maps repository failures onto HTTP responses. Each error
// kind stays distinguishable to the caller: role failures are 403, rows not
// in the expected state 404/409, bad input 400, partial cascades 500 with a
// retryable hint.
func writeRepoError(c echo.Context, err error) error {
	var verr *repository.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Error(), "field": verr.Field})
	}
	var perr *repository.PartialCascadeError
	if errors.As(err, &perr) {
		// Logged by the caller for reconciliation; re-invoking converges.
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":     "cascade partially applied",
			"retryable": true,
		})
	}
	switch {
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrDuplicateApplication):
		return c.JSON(http.StatusConflict, echo.Map{"error": "pending application already exists"})
	case errors.Is(err, repository.ErrAlreadyProcessed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "application already processed"})
	case errors.Is(err, repository.ErrSlotsOutOfRange):
		return c.JSON(http.StatusConflict, echo.Map{"error": "available slots out of range"})
	case errors.Is(err, repository.ErrProfileNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
	case errors.Is(err, repository.ErrApplicationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "application not found"})
	case errors.Is(err, repository.ErrLocationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
	case errors.Is(err, repository.ErrZoneNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "zone not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
