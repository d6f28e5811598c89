// Package repository provides PostgreSQL persistence for users, things and
// reviews.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/thingful/thingful/internal/common"
	"github.com/thingful/thingful/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// pgErrorCode returns the SQLSTATE of a lib/pq error, or "".
func pgErrorCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// PostgresUserRepository implements user persistence using a PostgreSQL database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given database connection.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// FindByUserName returns the user with the given user_name.
// It returns common.ErrNotFound if there is no such user.
func (r *PostgresUserRepository) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_name, full_name, COALESCE(nickname, ''), password, date_created
		FROM thingful_users WHERE user_name = $1
	`, userName).Scan(&u.ID, &u.UserName, &u.FullName, &u.Nickname, &u.Password, &u.DateCreated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("FindByUserName: %w", err)
	}
	return &u, nil
}

// UserNameExists checks whether a user with the specified user_name exists.
func (r *PostgresUserRepository) UserNameExists(ctx context.Context, userName string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM thingful_users WHERE user_name = $1)`,
		userName,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("UserNameExists: %w", err)
	}
	return exists, nil
}

// InsertUser stores a new user and returns it with the id and date_created
// assigned by the database. An empty nickname is stored as NULL.
// A duplicate user_name yields common.ErrDuplicateUser.
func (r *PostgresUserRepository) InsertUser(ctx context.Context, user models.NewUser) (*models.User, error) {
	stored := models.User{
		UserName: user.UserName,
		FullName: user.FullName,
		Nickname: user.Nickname,
		Password: user.Password,
	}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO thingful_users (user_name, full_name, nickname, password)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		RETURNING id, date_created
	`, user.UserName, user.FullName, user.Nickname, user.Password).Scan(&stored.ID, &stored.DateCreated)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, common.ErrDuplicateUser
		}
		return nil, fmt.Errorf("InsertUser: %w", err)
	}
	return &stored, nil
}
