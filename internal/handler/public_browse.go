package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-zone-service/internal/availability"
	"github.com/iliyamo/parking-zone-service/internal/repository"
)

// PublicHandler serves the unauthenticated browse surface consumed by the
// map view: locations, their zones, and derived availability.
type PublicHandler struct {
	Locations *repository.LocationRepo
	Zones     *repository.ZoneRepo
	Snapshots *availability.SnapshotStore // nil when Redis is unavailable
}

func NewPublicHandler(locations *repository.LocationRepo, zones *repository.ZoneRepo, snapshots *availability.SnapshotStore) *PublicHandler {
	if locations == nil || zones == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Locations: locations, Zones: zones, Snapshots: snapshots}
}

// publicLocation hides owner and timestamp fields from guests.
type publicLocation struct {
	ID      uint64  `json:"id"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// ListLocations handles GET /v1/locations.
func (h *PublicHandler) ListLocations(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	locs, err := h.Locations.ListAll(ctx)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]publicLocation, 0, len(locs))
	for _, l := range locs {
		out = append(out, publicLocation{ID: l.ID, Name: l.Name, Address: l.Address, Lat: l.Lat, Lng: l.Lng})
	}
	return c.JSON(http.StatusOK, out)
}

// ListZones handles GET /v1/locations/:id/zones.
func (h *PublicHandler) ListZones(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Locations.GetByID(ctx, id); err != nil {
		return writeRepoError(c, err)
	}
	zones, err := h.Zones.ListByLocation(ctx, id)
	if err != nil {
		return writeRepoError(c, err)
	}
	if zones == nil {
		zones = []repository.Zone{}
	}
	return c.JSON(http.StatusOK, zones)
}

// GetAvailability handles GET /v1/locations/:id/availability. The snapshot
// maintained by the zone-change consumer is preferred; on a miss (or
// without Redis) the stats are recomputed from the current zone set.
func (h *PublicHandler) GetAvailability(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Locations.GetByID(ctx, id); err != nil {
		return writeRepoError(c, err)
	}

	if h.Snapshots != nil {
		stats, err := h.Snapshots.Load(ctx, id)
		if err == nil {
			return c.JSON(http.StatusOK, stats)
		}
		if !errors.Is(err, availability.ErrNoSnapshot) {
			c.Logger().Warnf("availability snapshot read failed for location %d: %v", id, err)
		}
	}

	zones, err := h.Zones.ListByLocation(ctx, id)
	if err != nil {
		return writeRepoError(c, err)
	}
	slots := make([]availability.ZoneSlots, 0, len(zones))
	for _, z := range zones {
		slots = append(slots, z.Slots())
	}
	return c.JSON(http.StatusOK, availability.Compute(slots))
}
