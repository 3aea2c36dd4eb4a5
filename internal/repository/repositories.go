package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/DeH-M/MachTrueke/pkg/logger"
)

type Repositories struct {
	User      UserRepository
	Campus    CampusRepository
	Product   ProductRepository
	Chat      ChatRepository
	RateLimit RateLimitRepository
}

func NewRepositories(db *pgxpool.Pool, rdb *redis.Client, log logger.Logger) *Repositories {
	return &Repositories{
		User:      NewUserRepository(db, log),
		Campus:    NewCampusRepository(db, log),
		Product:   NewProductRepository(db, log),
		Chat:      NewChatRepository(db, log),
		RateLimit: NewRateLimitRepository(rdb, log),
	}
}
