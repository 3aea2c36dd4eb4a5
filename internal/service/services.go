package service

import (
	"github.com/DeH-M/MachTrueke/internal/config"
	"github.com/DeH-M/MachTrueke/internal/repository"
	"github.com/DeH-M/MachTrueke/pkg/logger"
)

type Services struct {
	Auth      AuthService
	User      UserService
	Campus    CampusService
	Product   ProductService
	Chat      ChatService
	Upload    UploadService
	RateLimit RateLimitService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, log logger.Logger) *Services {
	return &Services{
		Auth:      NewAuthService(repos.User, repos.Campus, cfg.JWT, cfg.Email, log),
		User:      NewUserService(repos.User, repos.Campus, log),
		Campus:    NewCampusService(repos.Campus, log),
		Product:   NewProductService(repos.Product, log),
		Chat:      NewChatService(repos.Chat, repos.Product, log),
		Upload:    NewUploadService(cfg.Upload, log),
		RateLimit: NewRateLimitService(repos.RateLimit, log),
	}
}
