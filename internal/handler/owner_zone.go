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

// ZoneStore is the slice of the zone repository the handlers need.
// *repository.ZoneRepo implements it.
type ZoneStore interface {
	Create(ctx context.Context, actorID uint64, z *repository.Zone) error
	Update(ctx context.Context, actorID uint64, z *repository.Zone) error
	AdjustAvailability(ctx context.Context, actorID, zoneID uint64, delta int32) (*repository.Zone, error)
	Delete(ctx context.Context, actorID, zoneID uint64) (*repository.Zone, error)
}

// ZoneEventPublisher publishes change notifications after committed zone
// mutations. Implemented by *queue_publisher.Publisher.
type ZoneEventPublisher interface {
	PublishZoneChanged(ctx context.Context, ev queue.ZoneChangedEvent) error
}

// ZoneHandler serves owner-facing zone CRUD and availability adjustments.
type ZoneHandler struct {
	Zones  ZoneStore
	Events ZoneEventPublisher
	Log    *zap.Logger
}

func NewZoneHandler(zones ZoneStore, events ZoneEventPublisher, log *zap.Logger) *ZoneHandler {
	if zones == nil {
		panic("nil store passed to NewZoneHandler")
	}
	return &ZoneHandler{Zones: zones, Events: events, Log: log}
}

type zoneReq struct {
	Name             string   `json:"name"`
	TotalSlots       uint32   `json:"total_slots"`
	AvailableSlots   *uint32  `json:"available_slots"`
	CostPerHourCents uint32   `json:"cost_per_hour_cents"`
	Lat              *float64 `json:"lat"`
	Lng              *float64 `json:"lng"`
}

// toZone validates field presence and builds the repository model. lat/lng
// are mandatory; a zone that cannot be placed on the map is rejected before
// anything reaches storage. Omitted available_slots defaults to total_slots
// (a new zone starts empty of cars).
func (r zoneReq) toZone() (*repository.Zone, error) {
	if r.Lat == nil {
		return nil, repository.NewValidationError("lat", "required")
	}
	if r.Lng == nil {
		return nil, repository.NewValidationError("lng", "required")
	}
	available := r.TotalSlots
	if r.AvailableSlots != nil {
		available = *r.AvailableSlots
	}
	z := &repository.Zone{
		Name:             r.Name,
		TotalSlots:       r.TotalSlots,
		AvailableSlots:   available,
		CostPerHourCents: r.CostPerHourCents,
		Lat:              *r.Lat,
		Lng:              *r.Lng,
	}
	if err := repository.ValidateZone(z); err != nil {
		return nil, err
	}
	return z, nil
}

// Create handles POST /v1/owner/locations/:id/zones.
func (h *ZoneHandler) Create(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	locationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req zoneReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	z, err := req.toZone()
	if err != nil {
		return writeRepoError(c, err)
	}
	z.LocationID = locationID

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Zones.Create(ctx, actorID, z); err != nil {
		return writeRepoError(c, err)
	}
	h.publishChange(c, z.LocationID, z.ID, queue.ActionCreated)
	return c.JSON(http.StatusCreated, z)
}

// Update handles PUT /v1/owner/zones/:id.
func (h *ZoneHandler) Update(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req zoneReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	z, err := req.toZone()
	if err != nil {
		return writeRepoError(c, err)
	}
	z.ID = id

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Zones.Update(ctx, actorID, z); err != nil {
		return writeRepoError(c, err)
	}
	h.publishChange(c, z.LocationID, z.ID, queue.ActionUpdated)
	return c.JSON(http.StatusOK, z)
}

type adjustAvailabilityReq struct {
	Delta int32 `json:"delta"`
}

// AdjustAvailability handles PATCH /v1/owner/zones/:id/availability. The
// store rejects adjustments that would leave [0, total_slots]; the stored
// value is unchanged in that case.
func (h *ZoneHandler) AdjustAvailability(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req adjustAvailabilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Delta == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "delta must be non-zero"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	z, err := h.Zones.AdjustAvailability(ctx, actorID, id, req.Delta)
	if err != nil {
		return writeRepoError(c, err)
	}
	h.publishChange(c, z.LocationID, z.ID, queue.ActionAvailability)
	return c.JSON(http.StatusOK, z)
}

// Delete handles DELETE /v1/owner/zones/:id.
func (h *ZoneHandler) Delete(c echo.Context) error {
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

	z, err := h.Zones.Delete(ctx, actorID, id)
	if err != nil {
		return writeRepoError(c, err)
	}
	h.publishChange(c, z.LocationID, z.ID, queue.ActionDeleted)
	return c.NoContent(http.StatusNoContent)
}

func (h *ZoneHandler) publishChange(c echo.Context, locationID, zoneID uint64, action string) {
	if h.Events == nil {
		return
	}
	ev := queue.ZoneChangedEvent{
		LocationID: locationID,
		ZoneID:     zoneID,
		Action:     action,
		OccurredAt: time.Now().UTC(),
	}
	if err := h.Events.PublishZoneChanged(c.Request().Context(), ev); err != nil && h.Log != nil {
		h.Log.Warn("publish zone change failed",
			zap.Uint64("location_id", locationID), zap.Uint64("zone_id", zoneID), zap.Error(err))
	}
}
