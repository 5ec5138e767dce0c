package repository

// Zone persistence. ValidateZone is the record-level validation boundary:
// every insert or update passes through it before touching storage, and
// availability adjustments are additionally guarded by a conditional UPDATE
// so concurrent writers cannot push available_slots outside
// [0, total_slots].

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/parking-zone-service/internal/auth"
	"github.com/iliyamo/parking-zone-service/internal/availability"
)

// Zone mirrors the 'parking_zones' table. Coordinates are mandatory: a
// zone without lat/lng cannot be placed on the map and the schema rejects
// it, so the input is rejected here first and no partial row is written.
type Zone struct {
	ID               uint64    `json:"id"`
	LocationID       uint64    `json:"location_id"`
	Name             string    `json:"name"`
	TotalSlots       uint32    `json:"total_slots"`
	AvailableSlots   uint32    `json:"available_slots"`
	CostPerHourCents uint32    `json:"cost_per_hour_cents"`
	Lat              float64   `json:"lat"`
	Lng              float64   `json:"lng"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Slots converts a zone to the aggregation input type.
func (z Zone) Slots() availability.ZoneSlots {
	return availability.ZoneSlots{TotalSlots: z.TotalSlots, AvailableSlots: z.AvailableSlots}
}

// ValidateZone rejects malformed zone fields before any write reaches
// storage. Callers that bind optional JSON fields must additionally check
// presence of lat/lng, since a missing coordinate binds to the valid value 0.
func ValidateZone(z *Zone) error {
	if strings.TrimSpace(z.Name) == "" {
		return NewValidationError("name", "required")
	}
	if z.TotalSlots == 0 {
		return NewValidationError("total_slots", "must be greater than zero")
	}
	if z.AvailableSlots > z.TotalSlots {
		return NewValidationError("available_slots", "must not exceed total_slots")
	}
	if z.Lat < -90 || z.Lat > 90 {
		return NewValidationError("lat", "must be within [-90, 90]")
	}
	if z.Lng < -180 || z.Lng > 180 {
		return NewValidationError("lng", "must be within [-180, 180]")
	}
	return nil
}

type ZoneRepo struct{ DB *sql.DB }

func NewZoneRepo(db *sql.DB) *ZoneRepo { return &ZoneRepo{DB: db} }

// ownsLocation reports whether the actor may mutate zones under the given
// location: either the location belongs to the actor or the actor's stored
// role grants manage_all_locations.
func (r *ZoneRepo) ownsLocation(ctx context.Context, actorID, locationID uint64, role auth.Role) error {
	var ownerID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT owner_id FROM parking_locations WHERE id = ?", locationID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrLocationNotFound
	}
	if err != nil {
		return err
	}
	if ownerID != actorID && !auth.Can(role, auth.CapManageAllLocations) {
		return ErrForbidden
	}
	return nil
}

// Create validates and inserts a zone under a location the actor controls.
func (r *ZoneRepo) Create(ctx context.Context, actorID uint64, z *Zone) error {
	if err := ValidateZone(z); err != nil {
		return err
	}
	role, err := requireCapability(ctx, r.DB, actorID, auth.CapManageOwnLocations)
	if err != nil {
		return err
	}
	if err := r.ownsLocation(ctx, actorID, z.LocationID, role); err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO parking_zones (location_id, name, total_slots, available_slots, cost_per_hour_cents, lat, lng)
		 VALUES (?,?,?,?,?,?,?)`,
		z.LocationID, strings.TrimSpace(z.Name), z.TotalSlots, z.AvailableSlots,
		z.CostPerHourCents, z.Lat, z.Lng)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	z.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM parking_zones WHERE id = ?", z.ID).
		Scan(&z.CreatedAt, &z.UpdatedAt)
}

// GetByID fetches one zone.
func (r *ZoneRepo) GetByID(ctx context.Context, id uint64) (*Zone, error) {
	const q = `SELECT id, location_id, name, total_slots, available_slots, cost_per_hour_cents, lat, lng, created_at, updated_at
	           FROM parking_zones WHERE id = ?`
	var z Zone
	err := r.DB.QueryRowContext(ctx, q, id).Scan(&z.ID, &z.LocationID, &z.Name,
		&z.TotalSlots, &z.AvailableSlots, &z.CostPerHourCents, &z.Lat, &z.Lng,
		&z.CreatedAt, &z.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrZoneNotFound
	}
	if err != nil {
		return nil, err
	}
	return &z, nil
}

// ListByLocation returns all zones under a location ordered by id. Used by
// the public browse endpoints and by the availability recompute.
func (r *ZoneRepo) ListByLocation(ctx context.Context, locationID uint64) ([]Zone, error) {
	const q = `SELECT id, location_id, name, total_slots, available_slots, cost_per_hour_cents, lat, lng, created_at, updated_at
	           FROM parking_zones WHERE location_id = ? ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, q, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Zone
	for rows.Next() {
		var z Zone
		if err := rows.Scan(&z.ID, &z.LocationID, &z.Name, &z.TotalSlots, &z.AvailableSlots,
			&z.CostPerHourCents, &z.Lat, &z.Lng, &z.CreatedAt, &z.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites a zone's fields after validation. The zone keeps its
// location; moving zones between locations is not supported.
func (r *ZoneRepo) Update(ctx context.Context, actorID uint64, z *Zone) error {
	if err := ValidateZone(z); err != nil {
		return err
	}
	role, err := requireCapability(ctx, r.DB, actorID, auth.CapManageOwnLocations)
	if err != nil {
		return err
	}
	current, err := r.GetByID(ctx, z.ID)
	if err != nil {
		return err
	}
	if err := r.ownsLocation(ctx, actorID, current.LocationID, role); err != nil {
		return err
	}
	z.LocationID = current.LocationID

	_, err = r.DB.ExecContext(ctx,
		`UPDATE parking_zones
		 SET name = ?, total_slots = ?, available_slots = ?, cost_per_hour_cents = ?, lat = ?, lng = ?
		 WHERE id = ?`,
		strings.TrimSpace(z.Name), z.TotalSlots, z.AvailableSlots, z.CostPerHourCents,
		z.Lat, z.Lng, z.ID)
	return err
}

// AdjustAvailability shifts available_slots by delta (positive when a car
// leaves, negative when one parks). The bounds check is part of the UPDATE,
// so an adjustment that would leave [0, total_slots] affects zero rows and
// the stored value is untouched; concurrent adjustments serialize at the
// row. Returns the updated zone.
func (r *ZoneRepo) AdjustAvailability(ctx context.Context, actorID, zoneID uint64, delta int32) (*Zone, error) {
	role, err := requireCapability(ctx, r.DB, actorID, auth.CapManageOwnLocations)
	if err != nil {
		return nil, err
	}
	current, err := r.GetByID(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	if err := r.ownsLocation(ctx, actorID, current.LocationID, role); err != nil {
		return nil, err
	}

	res, err := r.DB.ExecContext(ctx,
		`UPDATE parking_zones
		 SET available_slots = available_slots + ?
		 WHERE id = ? AND CAST(available_slots AS SIGNED) + ? BETWEEN 0 AND total_slots`,
		delta, zoneID, delta)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrSlotsOutOfRange
	}
	return r.GetByID(ctx, zoneID)
}

// Delete removes one zone.
func (r *ZoneRepo) Delete(ctx context.Context, actorID, zoneID uint64) (*Zone, error) {
	role, err := requireCapability(ctx, r.DB, actorID, auth.CapManageOwnLocations)
	if err != nil {
		return nil, err
	}
	z, err := r.GetByID(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	if err := r.ownsLocation(ctx, actorID, z.LocationID, role); err != nil {
		return nil, err
	}
	if _, err := r.DB.ExecContext(ctx, "DELETE FROM parking_zones WHERE id = ?", zoneID); err != nil {
		return nil, err
	}
	return z, nil
}
