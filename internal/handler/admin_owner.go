package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-zone-service/internal/queue"
	"github.com/iliyamo/parking-zone-service/internal/repository"
)

// OwnerRemover executes the ownership cascade. Implemented by
// *repository.OwnershipRepo.
type OwnerRemover interface {
	RemoveOwner(ctx context.Context, actorID, ownerID uint64) (repository.CascadeResult, error)
}

// AdminOwnerHandler serves DELETE /v1/admin/owners/:id, the removal of an
// owner's locations and zones together with the role revert.
type AdminOwnerHandler struct {
	Owners OwnerRemover
	Events ZoneEventPublisher
	Log    *zap.Logger
}

func NewAdminOwnerHandler(owners OwnerRemover, events ZoneEventPublisher, log *zap.Logger) *AdminOwnerHandler {
	if owners == nil {
		panic("nil store passed to NewAdminOwnerHandler")
	}
	return &AdminOwnerHandler{Owners: owners, Events: events, Log: log}
}

// RemoveOwner removes everything an owner holds and reverts their role to
// 'user'. Re-invoking on an already-removed owner is a clean no-op with
// zero counts, so a caller that saw an ambiguous failure just retries.
func (h *AdminOwnerHandler) RemoveOwner(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ownerID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	result, err := h.Owners.RemoveOwner(ctx, actorID, ownerID)
	if err != nil {
		var perr *repository.PartialCascadeError
		if errors.As(err, &perr) && h.Log != nil {
			h.Log.Error("owner cascade partially applied; re-invoke to converge",
				zap.Uint64("owner_id", perr.OwnerID),
				zap.String("step", perr.Step),
				zap.Error(perr))
		}
		return writeRepoError(c, err)
	}

	// Snapshots for the removed locations are recomputed to empty.
	for _, locationID := range result.LocationIDs {
		h.publishChange(c, locationID)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *AdminOwnerHandler) publishChange(c echo.Context, locationID uint64) {
	if h.Events == nil {
		return
	}
	ev := queue.ZoneChangedEvent{
		LocationID: locationID,
		Action:     queue.ActionOwnerRemoved,
		OccurredAt: time.Now().UTC(),
	}
	if err := h.Events.PublishZoneChanged(c.Request().Context(), ev); err != nil && h.Log != nil {
		h.Log.Warn("publish zone change failed", zap.Uint64("location_id", locationID), zap.Error(err))
	}
}
