package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-zone-service/internal/queue"
	"github.com/iliyamo/parking-zone-service/internal/repository"
)

// LocationHandler serves the owner-facing location CRUD. Super admins pass
// the same endpoints and reach foreign rows through manage_all_locations.
type LocationHandler struct {
	Locations *repository.LocationRepo
	Events    ZoneEventPublisher
	Log       *zap.Logger
}

func NewLocationHandler(locations *repository.LocationRepo, events ZoneEventPublisher, log *zap.Logger) *LocationHandler {
	if locations == nil {
		panic("nil repository passed to NewLocationHandler")
	}
	return &LocationHandler{Locations: locations, Events: events, Log: log}
}

type locationReq struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

// validateCoords enforces presence: a missing coordinate binds to the valid
// value 0, so pointers distinguish "absent" from "zero".
func (r locationReq) validateCoords(c echo.Context) (float64, float64, bool) {
	if r.Lat == nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lat: required", "field": "lat"})
		return 0, 0, false
	}
	if r.Lng == nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lng: required", "field": "lng"})
		return 0, 0, false
	}
	return *r.Lat, *r.Lng, true
}

// Create handles POST /v1/owner/locations.
func (h *LocationHandler) Create(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req locationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	lat, lng, ok := req.validateCoords(c)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	loc := &repository.Location{Name: req.Name, Address: req.Address, Lat: lat, Lng: lng}
	if err := h.Locations.Create(ctx, actorID, loc); err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, loc)
}

// ListMine handles GET /v1/owner/locations.
func (h *LocationHandler) ListMine(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	locs, err := h.Locations.ListByOwner(ctx, actorID)
	if err != nil {
		return writeRepoError(c, err)
	}
	if locs == nil {
		locs = []*repository.Location{}
	}
	return c.JSON(http.StatusOK, locs)
}

// Update handles PUT /v1/owner/locations/:id.
func (h *LocationHandler) Update(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req locationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	lat, lng, ok := req.validateCoords(c)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Locations.Update(ctx, actorID, id, req.Name, req.Address, lat, lng); err != nil {
		return writeRepoError(c, err)
	}
	loc, err := h.Locations.GetByID(ctx, id)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, loc)
}

// Delete handles DELETE /v1/owner/locations/:id. Zones under the location
// are removed in the same transaction; a change notification for the
// location follows so the availability snapshot is dropped to zero.
func (h *LocationHandler) Delete(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Locations.Delete(ctx, actorID, id); err != nil {
		return writeRepoError(c, err)
	}
	h.publishChange(c, id)
	return c.NoContent(http.StatusNoContent)
}

func (h *LocationHandler) publishChange(c echo.Context, locationID uint64) {
	if h.Events == nil {
		return
	}
	ev := queue.ZoneChangedEvent{
		LocationID: locationID,
		Action:     queue.ActionDeleted,
		OccurredAt: time.Now().UTC(),
	}
	if err := h.Events.PublishZoneChanged(c.Request().Context(), ev); err != nil && h.Log != nil {
		h.Log.Warn("publish zone change failed", zap.Uint64("location_id", locationID), zap.Error(err))
	}
}
