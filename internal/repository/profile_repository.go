package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/parking-zone-service/internal/auth"
	"github.com/iliyamo/parking-zone-service/internal/utils"
)

// Profile mirrors the 'profiles' table. One row per identity; the account
// persists across ownership changes and only the role field is mutated by
// the application workflow and the ownership cascade.
type Profile struct {
	ID           uint64
	Email        string
	PasswordHash string
	FullName     string
	Phone        string
	Role         auth.Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// Create inserts a profile with role 'user' and returns its ID. Roles are
// never self-selected at registration; escalation happens only through the
// owner application workflow.
func (r *ProfileRepo) Create(ctx context.Context, email, password, fullName, phone string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO profiles (email, password_hash, full_name, phone, role) VALUES (?,?,?,?,?)",
		email, hash, fullName, phone, auth.RoleUser)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a profile by normalized email.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var p Profile
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,full_name,phone,role,is_active,created_at,updated_at FROM profiles WHERE email=? LIMIT 1",
		email).Scan(&p.ID, &p.Email, &p.PasswordHash, &p.FullName, &p.Phone, &p.Role, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrProfileNotFound
	}
	return p, err
}

// GetByID fetches a profile by id.
func (r *ProfileRepo) GetByID(ctx context.Context, id uint64) (Profile, error) {
	var p Profile
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,full_name,phone,role,is_active,created_at,updated_at FROM profiles WHERE id=? LIMIT 1",
		id).Scan(&p.ID, &p.Email, &p.PasswordHash, &p.FullName, &p.Phone, &p.Role, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrProfileNotFound
	}
	return p, err
}

// RoleByID returns the stored role of an active profile. Mutating
// repositories call this (or its tx variant) to re-check the actor's role
// at the data-access boundary instead of trusting the JWT claim alone.
func (r *ProfileRepo) RoleByID(ctx context.Context, id uint64) (auth.Role, error) {
	return roleByID(ctx, r.DB, id)
}

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func roleByID(ctx context.Context, q queryRower, id uint64) (auth.Role, error) {
	var role auth.Role
	err := q.QueryRowContext(ctx,
		"SELECT role FROM profiles WHERE id=? AND is_active=1 LIMIT 1", id).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrProfileNotFound
	}
	return role, err
}

// requireCapability loads the actor's stored role and evaluates the policy.
// Shared by every mutating repository entry point.
func requireCapability(ctx context.Context, q queryRower, actorID uint64, cap auth.Capability) (auth.Role, error) {
	role, err := roleByID(ctx, q, actorID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return "", ErrForbidden
		}
		return "", err
	}
	if !auth.Can(role, cap) {
		return role, ErrForbidden
	}
	return role, nil
}
