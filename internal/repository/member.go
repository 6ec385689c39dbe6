package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/minjae/membership/internal/domain"
)

// pgUniqueViolation is the SQLSTATE for a unique constraint violation.
const pgUniqueViolation = "23505"

// MemberRepository handles member data access operations.
type MemberRepository struct {
	db *sqlx.DB
}

// NewMemberRepository creates a new MemberRepository.
func NewMemberRepository(db *sqlx.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// FindByID retrieves a member by their ID.
func (r *MemberRepository) FindByID(ctx context.Context, id int64) (*domain.Member, error) {
	var member domain.Member
	err := r.db.GetContext(ctx, &member,
		`SELECT id, email, username, password, created_at, updated_at
		 FROM members WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find member by id %d: %w", id, err)
	}
	return &member, nil
}

// FindByEmail retrieves a member by their canonical email. The lookup is an
// exact match under the store's collation; no case folding is applied.
func (r *MemberRepository) FindByEmail(ctx context.Context, email string) (*domain.Member, error) {
	var member domain.Member
	err := r.db.GetContext(ctx, &member,
		`SELECT id, email, username, password, created_at, updated_at
		 FROM members WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find member by email %s: %w", email, err)
	}
	return &member, nil
}

// Create inserts a new member and returns the stored row. A unique violation
// on the email key surfaces as domain.ErrConflict so callers can recover from
// concurrent provisioning of the same identity.
func (r *MemberRepository) Create(ctx context.Context, member domain.Member) (*domain.Member, error) {
	var result domain.Member
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO members (email, username, password)
		 VALUES ($1, $2, $3)
		 RETURNING id, email, username, password, created_at, updated_at`,
		member.Email, member.Username, member.Password,
	).StructScan(&result)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, fmt.Errorf("%w: member %s already exists", domain.ErrConflict, member.Email)
		}
		return nil, fmt.Errorf("create member: %w", err)
	}
	return &result, nil
}

// UpdateUsername changes a member's display name. The profile-modify flow is
// the only mutation of an existing member this service performs.
func (r *MemberRepository) UpdateUsername(ctx context.Context, id int64, username string) (*domain.Member, error) {
	var result domain.Member
	err := r.db.QueryRowxContext(ctx,
		`UPDATE members SET username = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, email, username, password, created_at, updated_at`,
		id, username,
	).StructScan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update member %d username: %w", id, err)
	}
	return &result, nil
}
