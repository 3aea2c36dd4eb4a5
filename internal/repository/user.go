package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DeH-M/MachTrueke/internal/domain"
	appErrors "github.com/DeH-M/MachTrueke/pkg/errors"
	"github.com/DeH-M/MachTrueke/pkg/logger"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpdateAvatar(ctx context.Context, userID int64, avatarURL *string) error
}

type userRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewUserRepository(db *pgxpool.Pool, log logger.Logger) UserRepository {
	return &userRepository{db: db, log: log}
}

const userColumns = `id, username, name, email, hashed_password, campus_id, bio, avatar_url, is_active, created_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, name, email, hashed_password, campus_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		user.Username, user.FullName, user.Email, user.PasswordHash,
		user.CampusID, user.IsActive,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Constraint name tells us which of the unique columns collided.
			if strings.Contains(pgErr.ConstraintName, "username") {
				return appErrors.ErrUsernameTaken
			}
			return appErrors.ErrEmailTaken
		}
		r.log.Error("Failed to create user", "error", err, "email", user.Email)
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.scanUser(r.db.QueryRow(ctx, query, username))
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET username = $2, bio = $3, campus_id = $4
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query, user.ID, user.Username, user.Bio, user.CampusID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return appErrors.ErrUsernameTaken
		}
		r.log.Error("Failed to update profile", "error", err, "user_id", user.ID)
		return err
	}

	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	query := `UPDATE users SET hashed_password = $2 WHERE id = $1`

	_, err := r.db.Exec(ctx, query, userID, passwordHash)
	if err != nil {
		r.log.Error("Failed to update password", "error", err, "user_id", userID)
		return err
	}

	return nil
}

func (r *userRepository) UpdateAvatar(ctx context.Context, userID int64, avatarURL *string) error {
	query := `UPDATE users SET avatar_url = $2 WHERE id = $1`

	_, err := r.db.Exec(ctx, query, userID, avatarURL)
	if err != nil {
		r.log.Error("Failed to update avatar", "error", err, "user_id", userID)
		return err
	}

	return nil
}

func (r *userRepository) scanUser(row pgx.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.FullName, &user.Email, &user.PasswordHash,
		&user.CampusID, &user.Bio, &user.AvatarURL, &user.IsActive, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		r.log.Error("Failed to scan user", "error", err)
		return nil, err
	}
	return user, nil
}
