package service

import (
	"context"
	"time"

	"github.com/DeH-M/MachTrueke/internal/repository"
	"github.com/DeH-M/MachTrueke/pkg/logger"
)

type RateLimitService interface {
	CheckLimit(ctx context.Context, key string, limit int) (bool, error)
	Increment(ctx context.Context, key string, windowSeconds int) (int64, error)
}

type rateLimitService struct {
	rateLimitRepo repository.RateLimitRepository
	log           logger.Logger
}

func NewRateLimitService(rateLimitRepo repository.RateLimitRepository, log logger.Logger) RateLimitService {
	return &rateLimitService{
		rateLimitRepo: rateLimitRepo,
		log:           log,
	}
}

func (s *rateLimitService) CheckLimit(ctx context.Context, key string, limit int) (bool, error) {
	return s.rateLimitRepo.CheckLimit(ctx, "ratelimit:"+key, limit)
}

func (s *rateLimitService) Increment(ctx context.Context, key string, windowSeconds int) (int64, error) {
	return s.rateLimitRepo.Increment(ctx, "ratelimit:"+key, time.Duration(windowSeconds)*time.Second)
}
