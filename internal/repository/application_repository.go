package repository

// Owner application workflow. An application is created once per request
// cycle, decided at most once, and never physically deleted. The decision
// is a conditional update restricted to status='pending' executed in the
// same transaction as the role escalation, so the two concurrency hazards
// that matter here (double submission and double decision) are both
// resolved by the storage engine rather than by client-side checks.

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/parking-zone-service/internal/auth"
)

// Application statuses. pending is the only non-terminal state.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Application mirrors the 'owner_applications' table.
type Application struct {
	ID           uint64     `json:"id"`
	UserID       uint64     `json:"user_id"`
	Status       string     `json:"status"`
	ContactName  string     `json:"contact_name"`
	ContactPhone string     `json:"contact_phone"`
	CompanyName  string     `json:"company_name"`
	AdminNotes   *string    `json:"admin_notes,omitempty"`
	ReviewedBy   *uint64    `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ApplicationContact is the contact information supplied on submission.
type ApplicationContact struct {
	Name    string
	Phone   string
	Company string
}

type ApplicationRepo struct{ DB *sql.DB }

func NewApplicationRepo(db *sql.DB) *ApplicationRepo { return &ApplicationRepo{DB: db} }

// Submit creates a pending application for userID. Only profiles with role
// 'user' may apply; owners and admins have nothing to apply for. The
// at-most-one-pending rule is enforced by the unique index over the
// generated pending_user_id column: a duplicate INSERT loses with MySQL
// error 1062 and is reported as ErrDuplicateApplication, so two concurrent
// submissions can never both create a pending row.
func (r *ApplicationRepo) Submit(ctx context.Context, userID uint64, contact ApplicationContact) (uint64, error) {
	role, err := roleByID(ctx, r.DB, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return 0, ErrForbidden
		}
		return 0, err
	}
	if role != auth.RoleUser {
		return 0, ErrForbidden
	}

	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO owner_applications (user_id, status, contact_name, contact_phone, company_name)
		 VALUES (?,?,?,?,?)`,
		userID, StatusPending, contact.Name, contact.Phone, contact.Company)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrDuplicateApplication
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Decide resolves a pending application. The whole transition is one
// transaction:
//
//  1. the reviewer's stored role is checked inside the transaction
//     (super_admin required; the route guard alone is not trusted);
//  2. the application row is updated only where status is still 'pending';
//     zero affected rows means the application was already decided or never
//     existed, reported as ErrAlreadyProcessed;
//  3. on approval the applicant's role is escalated in the same
//     transaction.
//
// A failure anywhere rolls the transaction back, so a role can never be
// upgraded while the application still reads pending, nor the reverse.
func (r *ApplicationRepo) Decide(ctx context.Context, applicationID, reviewerID uint64, approve bool, notes string) (Application, error) {
	var app Application

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return app, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = requireCapability(ctx, tx, reviewerID, auth.CapReviewApplications); err != nil {
		return app, err
	}

	status := StatusRejected
	if approve {
		status = StatusApproved
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE owner_applications
		 SET status = ?, reviewed_by = ?, reviewed_at = UTC_TIMESTAMP(), admin_notes = ?
		 WHERE id = ? AND status = ?`,
		status, reviewerID, notes, applicationID, StatusPending)
	if err != nil {
		return app, err
	}
	if n, aerr := res.RowsAffected(); aerr != nil {
		err = aerr
		return app, err
	} else if n == 0 {
		err = ErrAlreadyProcessed
		return app, err
	}

	if app, err = scanApplication(tx.QueryRowContext(ctx, selectApplication+" WHERE id = ?", applicationID)); err != nil {
		return app, err
	}

	if approve {
		if _, err = tx.ExecContext(ctx,
			"UPDATE profiles SET role = ? WHERE id = ?",
			auth.RoleLocationOwner, app.UserID); err != nil {
			return app, err
		}
	}

	if err = tx.Commit(); err != nil {
		return app, err
	}
	return app, nil
}

const selectApplication = `SELECT id, user_id, status, contact_name, contact_phone, company_name,
	admin_notes, reviewed_by, reviewed_at, created_at, updated_at FROM owner_applications`

type rowScanner interface{ Scan(dest ...any) error }

func scanApplication(row rowScanner) (Application, error) {
	var (
		app        Application
		notes      sql.NullString
		reviewedBy sql.NullInt64
		reviewedAt sql.NullTime
	)
	err := row.Scan(&app.ID, &app.UserID, &app.Status, &app.ContactName, &app.ContactPhone,
		&app.CompanyName, &notes, &reviewedBy, &reviewedAt, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return app, ErrApplicationNotFound
		}
		return app, err
	}
	if notes.Valid {
		app.AdminNotes = &notes.String
	}
	if reviewedBy.Valid {
		v := uint64(reviewedBy.Int64)
		app.ReviewedBy = &v
	}
	if reviewedAt.Valid {
		app.ReviewedAt = &reviewedAt.Time
	}
	return app, nil
}

// GetByID fetches one application.
func (r *ApplicationRepo) GetByID(ctx context.Context, id uint64) (Application, error) {
	return scanApplication(r.DB.QueryRowContext(ctx, selectApplication+" WHERE id = ?", id))
}

// ListByUser returns all applications submitted by a user, newest first.
func (r *ApplicationRepo) ListByUser(ctx context.Context, userID uint64) ([]Application, error) {
	rows, err := r.DB.QueryContext(ctx, selectApplication+" WHERE user_id = ? ORDER BY id DESC", userID)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

// ListByStatus returns applications in a given status for the review queue,
// oldest first so admins work through submissions in order. An empty status
// returns everything.
func (r *ApplicationRepo) ListByStatus(ctx context.Context, status string) ([]Application, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = r.DB.QueryContext(ctx, selectApplication+" ORDER BY id")
	} else {
		rows, err = r.DB.QueryContext(ctx, selectApplication+" WHERE status = ? ORDER BY id", status)
	}
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

func collectApplications(rows *sql.Rows) ([]Application, error) {
	defer rows.Close()
	var out []Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
