package handler

import (
	"github.com/DeH-M/MachTrueke/internal/config"
	"github.com/DeH-M/MachTrueke/internal/service"
	"github.com/DeH-M/MachTrueke/pkg/logger"
)

type Handlers struct {
	Health  *HealthHandler
	Auth    *AuthHandler
	User    *UserHandler
	Campus  *CampusHandler
	Product *ProductHandler
	Chat    *ChatHandler
}

func NewHandlers(services *service.Services, cfg *config.Config, log logger.Logger) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(cfg),
		Auth:    NewAuthHandler(services.Auth, services.User, log),
		User:    NewUserHandler(services.User, services.Upload, log),
		Campus:  NewCampusHandler(services.Campus, log),
		Product: NewProductHandler(services.Product, services.Upload, log),
		Chat:    NewChatHandler(services.Chat, log),
	}
}
