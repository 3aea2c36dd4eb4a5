package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DeH-M/MachTrueke/internal/domain"
	appErrors "github.com/DeH-M/MachTrueke/pkg/errors"
	"github.com/DeH-M/MachTrueke/pkg/logger"
)

type CampusRepository interface {
	List(ctx context.Context) ([]*domain.Campus, error)
	GetByID(ctx context.Context, id int64) (*domain.Campus, error)
}

type campusRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewCampusRepository(db *pgxpool.Pool, log logger.Logger) CampusRepository {
	return &campusRepository{db: db, log: log}
}

func (r *campusRepository) List(ctx context.Context) ([]*domain.Campus, error) {
	query := `
		SELECT id, code, name
		FROM campus
		ORDER BY code
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to list campuses", "error", err)
		return nil, err
	}
	defer rows.Close()

	var campuses []*domain.Campus
	for rows.Next() {
		campus := &domain.Campus{}
		if err := rows.Scan(&campus.ID, &campus.Code, &campus.Name); err != nil {
			r.log.Error("Failed to scan campus", "error", err)
			return nil, err
		}
		campuses = append(campuses, campus)
	}

	return campuses, rows.Err()
}

func (r *campusRepository) GetByID(ctx context.Context, id int64) (*domain.Campus, error) {
	query := `
		SELECT id, code, name
		FROM campus
		WHERE id = $1
	`

	campus := &domain.Campus{}
	err := r.db.QueryRow(ctx, query, id).Scan(&campus.ID, &campus.Code, &campus.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.ErrCampusNotFound
		}
		r.log.Error("Failed to get campus", "error", err, "campus_id", id)
		return nil, err
	}

	return campus, nil
}
