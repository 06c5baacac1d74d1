package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/rental-auth/internal/logger"
	"github.com/sbilibin2017/rental-auth/internal/models"
)

// ErrDuplicateEmail is returned by Save when the email is already taken.
var ErrDuplicateEmail = errors.New("email already exists")

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// TxGetter returns the transaction bound to ctx, or nil.
type TxGetter func(ctx context.Context) *sqlx.Tx

func executor(ctx context.Context, db *sqlx.DB, txGetter TxGetter) sqlx.ExtContext {
	if txGetter != nil {
		if tx := txGetter(ctx); tx != nil {
			return tx
		}
	}
	return db
}

func oneLine(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

// UserReadRepository handles user lookups.
type UserReadRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewUserReadRepository(db *sqlx.DB, txGetter TxGetter) *UserReadRepository {
	return &UserReadRepository{db: db, txGetter: txGetter}
}

// ExistsByEmail reports whether a user with email exists.
func (r *UserReadRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &exists, query, email)

	logger.Log.Infow(
		"query", oneLine(query),
		"args", []any{email},
		"result", exists,
		"error", err,
	)

	if err != nil {
		return false, fmt.Errorf("exists by email: %w", err)
	}
	return exists, nil
}

// GetByEmail returns the user with email, or nil if there is none.
func (r *UserReadRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return r.getOne(ctx, query, email)
}

// GetByID returns the user with id, or nil if there is none.
func (r *UserReadRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	const query = `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

// List returns every user ordered by id.
func (r *UserReadRepository) List(ctx context.Context) ([]models.User, error) {
	const query = `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM users
		ORDER BY id
	`

	var users []models.User
	err := sqlx.SelectContext(ctx, executor(ctx, r.db, r.txGetter), &users, query)

	logger.Log.Infow(
		"query", oneLine(query),
		"count", len(users),
		"error", err,
	)

	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserReadRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &user, query, arg)

	// The row is not logged: it carries the password hash.
	logger.Log.Infow(
		"query", oneLine(query),
		"args", []any{arg},
		"found", err == nil,
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// UserWriteRepository handles user inserts.
type UserWriteRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewUserWriteRepository(db *sqlx.DB, txGetter TxGetter) *UserWriteRepository {
	return &UserWriteRepository{db: db, txGetter: txGetter}
}

// Save inserts user and returns it with the id assigned by the database.
// The users.email unique constraint is authoritative: a violation yields ErrDuplicateEmail.
func (r *UserWriteRepository) Save(ctx context.Context, user *models.User) (*models.User, error) {
	const query = `
		INSERT INTO users (email, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &id, query,
		user.Email, user.Name, user.PasswordHash, user.CreatedAt, user.UpdatedAt)

	logger.Log.Infow(
		"query", oneLine(query),
		"args", []any{user.Email, user.Name, user.CreatedAt, user.UpdatedAt},
		"result", id,
		"error", err,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	saved := *user
	saved.ID = id
	return &saved, nil
}
