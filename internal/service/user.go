package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/DeH-M/MachTrueke/internal/domain"
	"github.com/DeH-M/MachTrueke/internal/repository"
	appErrors "github.com/DeH-M/MachTrueke/pkg/errors"
	"github.com/DeH-M/MachTrueke/pkg/logger"
)

type UserService interface {
	GetMe(ctx context.Context, userID int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, input UpdateProfileInput) (*domain.User, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
	UpdateAvatar(ctx context.Context, userID int64, avatarURL *string) (*domain.User, error)
}

type UpdateProfileInput struct {
	Username *string
	Bio      *string
	// 0 clears the campus, any other value must reference an existing one.
	CampusID *int64
}

type userService struct {
	userRepo   repository.UserRepository
	campusRepo repository.CampusRepository
	log        logger.Logger
}

func NewUserService(userRepo repository.UserRepository, campusRepo repository.CampusRepository, log logger.Logger) UserService {
	return &userService{
		userRepo:   userRepo,
		campusRepo: campusRepo,
		log:        log,
	}
}

func (s *userService) GetMe(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int64, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*input.Username))
		if username == "" {
			return nil, errors.New("username cannot be empty")
		}
		if len(username) > 30 {
			return nil, errors.New("username is too long (max 30 characters)")
		}
		if username != user.Username {
			if existing, _ := s.userRepo.GetByUsername(ctx, username); existing != nil {
				return nil, appErrors.ErrUsernameTaken
			}
			user.Username = username
		}
	}

	if input.Bio != nil {
		user.Bio = input.Bio
	}

	if input.CampusID != nil {
		if *input.CampusID == 0 {
			user.CampusID = nil
		} else {
			if _, err := s.campusRepo.GetByID(ctx, *input.CampusID); err != nil {
				return nil, err
			}
			user.CampusID = input.CampusID
		}
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return errors.New("password must be at least 6 characters")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return appErrors.ErrInvalidCredentials
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error("Failed to hash password", "error", err)
		return appErrors.ErrInternalServer
	}

	return s.userRepo.UpdatePassword(ctx, userID, string(passwordHash))
}

func (s *userService) UpdateAvatar(ctx context.Context, userID int64, avatarURL *string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateAvatar(ctx, userID, avatarURL); err != nil {
		return nil, err
	}

	user.AvatarURL = avatarURL
	user.PasswordHash = ""
	return user, nil
}
