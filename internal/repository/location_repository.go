package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/parking-zone-service/internal/auth"
)

// Location mirrors the 'parking_locations' table. Every location has
// exactly one owner; zones hang off locations.
type Location struct {
	ID        uint64    `json:"id"`
	OwnerID   uint64    `json:"owner_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LocationRepo struct{ DB *sql.DB }

func NewLocationRepo(db *sql.DB) *LocationRepo { return &LocationRepo{DB: db} }

// ValidateLocation rejects malformed location input before any write.
func ValidateLocation(name string, lat, lng float64) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("name", "required")
	}
	if lat < -90 || lat > 90 {
		return NewValidationError("lat", "must be within [-90, 90]")
	}
	if lng < -180 || lng > 180 {
		return NewValidationError("lng", "must be within [-180, 180]")
	}
	return nil
}

// Create inserts a location owned by actorID. The actor's stored role must
// grant manage_own_locations; a plain user cannot create locations no
// matter what their token claims.
func (r *LocationRepo) Create(ctx context.Context, actorID uint64, loc *Location) error {
	if err := ValidateLocation(loc.Name, loc.Lat, loc.Lng); err != nil {
		return err
	}
	if _, err := requireCapability(ctx, r.DB, actorID, auth.CapManageOwnLocations); err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO parking_locations (owner_id, name, address, lat, lng) VALUES (?,?,?,?,?)",
		actorID, strings.TrimSpace(loc.Name), loc.Address, loc.Lat, loc.Lng)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	loc.ID = uint64(id)
	loc.OwnerID = actorID
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM parking_locations WHERE id = ?", loc.ID).
		Scan(&loc.CreatedAt, &loc.UpdatedAt)
}

// GetByID fetches a location regardless of owner.
func (r *LocationRepo) GetByID(ctx context.Context, id uint64) (*Location, error) {
	const q = "SELECT id, owner_id, name, address, lat, lng, created_at, updated_at FROM parking_locations WHERE id = ?"
	var loc Location
	err := r.DB.QueryRowContext(ctx, q, id).Scan(&loc.ID, &loc.OwnerID, &loc.Name,
		&loc.Address, &loc.Lat, &loc.Lng, &loc.CreatedAt, &loc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLocationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// ListByOwner returns all locations for one owner ordered by id.
func (r *LocationRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*Location, error) {
	const q = `SELECT id, owner_id, name, address, lat, lng, created_at, updated_at
	           FROM parking_locations WHERE owner_id = ? ORDER BY id`
	return r.list(ctx, q, ownerID)
}

// ListAll returns every location for the public map view.
func (r *LocationRepo) ListAll(ctx context.Context) ([]*Location, error) {
	const q = `SELECT id, owner_id, name, address, lat, lng, created_at, updated_at
	           FROM parking_locations ORDER BY id`
	return r.list(ctx, q)
}

func (r *LocationRepo) list(ctx context.Context, q string, args ...any) ([]*Location, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Location
	for rows.Next() {
		loc := new(Location)
		if err := rows.Scan(&loc.ID, &loc.OwnerID, &loc.Name, &loc.Address,
			&loc.Lat, &loc.Lng, &loc.CreatedAt, &loc.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the mutable fields of a location. Owners may update only
// their own rows; super admins may update any (manage_all_locations). The
// ownership condition is part of the UPDATE itself so there is no window
// between check and write.
func (r *LocationRepo) Update(ctx context.Context, actorID, id uint64, name, address string, lat, lng float64) error {
	if err := ValidateLocation(name, lat, lng); err != nil {
		return err
	}
	role, err := requireCapability(ctx, r.DB, actorID, auth.CapManageOwnLocations)
	if err != nil {
		return err
	}

	q := `UPDATE parking_locations SET name = ?, address = ?, lat = ?, lng = ? WHERE id = ?`
	args := []any{strings.TrimSpace(name), address, lat, lng, id}
	if !auth.Can(role, auth.CapManageAllLocations) {
		q += " AND owner_id = ?"
		args = append(args, actorID)
	}
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Zero affected rows means the row is missing, foreign, or the
		// update changed nothing (MySQL reports 0 for identical values).
		loc, gerr := r.GetByID(ctx, id)
		if gerr != nil {
			return gerr
		}
		if loc.OwnerID != actorID && !auth.Can(role, auth.CapManageAllLocations) {
			return ErrForbidden
		}
	}
	return nil
}

// Delete removes a location and its zones. Owners may delete only their own
// rows; super admins may delete any. Zones are removed in the same
// transaction so no reader observes a zone without its parent.
func (r *LocationRepo) Delete(ctx context.Context, actorID, id uint64) error {
	role, err := requireCapability(ctx, r.DB, actorID, auth.CapManageOwnLocations)
	if err != nil {
		return err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var ownerID uint64
	if err = tx.QueryRowContext(ctx,
		"SELECT owner_id FROM parking_locations WHERE id = ?", id).Scan(&ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrLocationNotFound
		}
		return err
	}
	if ownerID != actorID && !auth.Can(role, auth.CapManageAllLocations) {
		err = ErrForbidden
		return err
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM parking_zones WHERE location_id = ?", id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM parking_locations WHERE id = ?", id); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}
