package service

import (
	"context"

	"github.com/DeH-M/MachTrueke/internal/domain"
	"github.com/DeH-M/MachTrueke/internal/repository"
	"github.com/DeH-M/MachTrueke/pkg/logger"
)

type CampusService interface {
	List(ctx context.Context) ([]*domain.Campus, error)
}

type campusService struct {
	campusRepo repository.CampusRepository
	log        logger.Logger
}

func NewCampusService(campusRepo repository.CampusRepository, log logger.Logger) CampusService {
	return &campusService{campusRepo: campusRepo, log: log}
}

func (s *campusService) List(ctx context.Context) ([]*domain.Campus, error) {
	return s.campusRepo.List(ctx)
}
