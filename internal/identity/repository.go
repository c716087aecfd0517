package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// Repository persists users and their phones.
type Repository interface {
	// FindByEmail returns the user holding email, preferring an active
	// record, or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (User, error)
	// Save inserts or updates the user together with its phone list.
	Save(ctx context.Context, user User) (User, error)
}

// DB is the subset of pgxpool.Pool used by PostgresRepository.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository builds a Postgres-backed user directory.
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindByEmail fetches a user and its phones by email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT id::text, COALESCE(name, ''), email, password_hash, COALESCE(token, ''),
        created_at, last_login, is_active
        FROM users WHERE email = $1
        ORDER BY is_active DESC, created_at DESC
        LIMIT 1`, email)

	var (
		user      User
		createdAt time.Time
		lastLogin time.Time
	)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Token,
		&createdAt, &lastLogin, &user.IsActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("find user by email: %w", err)
	}
	user.CreatedAt = createdAt.UTC()
	user.LastLoginAt = lastLogin.UTC()

	phones, err := r.phones(ctx, user.ID)
	if err != nil {
		return User{}, err
	}
	user.Phones = phones
	return user, nil
}

func (r *PostgresRepository) phones(ctx context.Context, userID string) ([]Phone, error) {
	rows, err := r.db.Query(ctx, `SELECT number, city_code, country_code
        FROM phones WHERE user_id = $1 ORDER BY position`, userID)
	if err != nil {
		return nil, fmt.Errorf("list phones: %w", err)
	}
	defer rows.Close()

	var phones []Phone
	for rows.Next() {
		var p Phone
		if err := rows.Scan(&p.Number, &p.CityCode, &p.CountryCode); err != nil {
			return nil, fmt.Errorf("scan phone: %w", err)
		}
		phones = append(phones, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list phones: %w", err)
	}
	return phones, nil
}

// Save upserts the user row and replaces its phones in one transaction.
// A violated email uniqueness constraint is reported as ErrDuplicateEmail.
func (r *PostgresRepository) Save(ctx context.Context, user User) (User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return User{}, fmt.Errorf("begin save user: %w", err)
	}

	createdAt, err := saveUser(ctx, tx, user)
	if err != nil {
		_ = tx.Rollback(ctx)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrDuplicateEmail
		}
		return User{}, fmt.Errorf("save user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return User{}, fmt.Errorf("commit save user: %w", err)
	}

	user.CreatedAt = createdAt.UTC()
	return user, nil
}

func saveUser(ctx context.Context, tx pgx.Tx, user User) (time.Time, error) {
	var name *string
	if user.Name != "" {
		name = &user.Name
	}

	var createdAt time.Time
	err := tx.QueryRow(ctx, `INSERT INTO users (id, name, email, password_hash, token, created_at, last_login, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            email = EXCLUDED.email,
            password_hash = EXCLUDED.password_hash,
            token = EXCLUDED.token,
            last_login = EXCLUDED.last_login,
            is_active = EXCLUDED.is_active
        RETURNING created_at`,
		user.ID, name, user.Email, user.PasswordHash, user.Token,
		user.CreatedAt.UTC(), user.LastLoginAt.UTC(), user.IsActive).Scan(&createdAt)
	if err != nil {
		return time.Time{}, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM phones WHERE user_id = $1`, user.ID); err != nil {
		return time.Time{}, err
	}
	for i, p := range user.Phones {
		if _, err := tx.Exec(ctx, `INSERT INTO phones (user_id, position, number, city_code, country_code)
            VALUES ($1, $2, $3, $4, $5)`, user.ID, i, p.Number, p.CityCode, p.CountryCode); err != nil {
			return time.Time{}, err
		}
	}
	return createdAt, nil
}
