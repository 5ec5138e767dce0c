package repository

// Ownership cascade removal. Zone deletion, location deletion and the role
// revert execute as one transaction so no reader can observe an owner whose
// locations are gone but whose role still says location_owner, or the
// reverse. The operation is idempotent: re-invoking it for a profile that
// is already a plain user deletes nothing and succeeds, so a caller that
// saw an ambiguous failure simply retries.

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/parking-zone-service/internal/auth"
)

// CascadeResult reports what an owner removal actually deleted.
type CascadeResult struct {
	LocationsRemoved int64    `json:"locations_removed"`
	ZonesRemoved     int64    `json:"zones_removed"`
	LocationIDs      []uint64 `json:"-"` // affected locations, for change notifications
}

type OwnershipRepo struct{ DB *sql.DB }

func NewOwnershipRepo(db *sql.DB) *OwnershipRepo { return &OwnershipRepo{DB: db} }

// RemoveOwner deletes every zone and location belonging to ownerID and
// reverts the profile's role to 'user'. The profile row itself is never
// deleted; accounts persist across ownership changes. Only a super_admin
// may invoke it; the role check reads the actor's profile inside the same
// transaction.
func (r *OwnershipRepo) RemoveOwner(ctx context.Context, actorID, ownerID uint64) (CascadeResult, error) {
	var result CascadeResult

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return result, err
	}

	res, step, err := removeOwnerTx(ctx, tx, actorID, ownerID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			// The store could not undo work already done in this
			// transaction. Surface it distinctly: the caller must
			// re-invoke the cascade (it converges) or reconcile by hand.
			return result, &PartialCascadeError{OwnerID: ownerID, Step: step, Err: err, Rollback: rbErr}
		}
		return result, err
	}
	if err := tx.Commit(); err != nil {
		return result, err
	}
	return res, nil
}

func removeOwnerTx(ctx context.Context, tx *sql.Tx, actorID, ownerID uint64) (CascadeResult, string, error) {
	var result CascadeResult

	if _, err := requireCapability(ctx, tx, actorID, auth.CapRemoveOwners); err != nil {
		return result, "authorize", err
	}

	// The target must exist; removing a profile that was never an owner is
	// a valid no-op, removing a nonexistent one is not.
	if _, err := roleByID(ctx, tx, ownerID); err != nil {
		return result, "load owner", err
	}

	// Lock the owner's location set for the duration of the cascade so a
	// concurrent location insert cannot slip between the two deletes.
	rows, err := tx.QueryContext(ctx,
		"SELECT id FROM parking_locations WHERE owner_id = ? FOR UPDATE", ownerID)
	if err != nil {
		return result, "list locations", err
	}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return result, "list locations", err
		}
		result.LocationIDs = append(result.LocationIDs, id)
	}
	if err := rows.Close(); err != nil {
		return result, "list locations", err
	}

	res, err := tx.ExecContext(ctx,
		`DELETE z FROM parking_zones z
		 JOIN parking_locations l ON l.id = z.location_id
		 WHERE l.owner_id = ?`, ownerID)
	if err != nil {
		return result, "delete zones", err
	}
	if result.ZonesRemoved, err = res.RowsAffected(); err != nil {
		return result, "delete zones", err
	}

	res, err = tx.ExecContext(ctx,
		"DELETE FROM parking_locations WHERE owner_id = ?", ownerID)
	if err != nil {
		return result, "delete locations", err
	}
	if result.LocationsRemoved, err = res.RowsAffected(); err != nil {
		return result, "delete locations", err
	}

	// Conditional revert keeps the operation idempotent and never touches a
	// super_admin row.
	if _, err = tx.ExecContext(ctx,
		"UPDATE profiles SET role = ? WHERE id = ? AND role = ?",
		auth.RoleUser, ownerID, auth.RoleLocationOwner); err != nil {
		return result, "revert role", err
	}
	return result, "", nil
}
