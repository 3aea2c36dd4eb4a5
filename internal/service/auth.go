package service

import (
	"context"
	"errors"
	"net"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/DeH-M/MachTrueke/internal/config"
	"github.com/DeH-M/MachTrueke/internal/domain"
	"github.com/DeH-M/MachTrueke/internal/repository"
	appErrors "github.com/DeH-M/MachTrueke/pkg/errors"
	"github.com/DeH-M/MachTrueke/pkg/jwt"
	"github.com/DeH-M/MachTrueke/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*TokenResponse, error)
	ValidateToken(ctx context.Context, tokenString string) (*domain.User, error)
}

type RegisterInput struct {
	Username string
	FullName string
	Email    string
	Password string
	CampusID *int64
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type authService struct {
	userRepo   repository.UserRepository
	campusRepo repository.CampusRepository
	jwtCfg     config.JWTConfig
	emailCfg   config.EmailConfig
	log        logger.Logger
}

func NewAuthService(userRepo repository.UserRepository, campusRepo repository.CampusRepository, jwtCfg config.JWTConfig, emailCfg config.EmailConfig, log logger.Logger) AuthService {
	return &authService{
		userRepo:   userRepo,
		campusRepo: campusRepo,
		jwtCfg:     jwtCfg,
		emailCfg:   emailCfg,
		log:        log,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	fullName := strings.TrimSpace(input.FullName)

	if username == "" {
		return nil, errors.New("username is required")
	}
	if len(username) > 30 {
		return nil, errors.New("username is too long (max 30 characters)")
	}
	if len(input.Password) < 6 {
		return nil, errors.New("password must be at least 6 characters")
	}

	email, err := s.validateEmail(input.Email)
	if err != nil {
		return nil, err
	}

	if input.CampusID != nil {
		if _, err := s.campusRepo.GetByID(ctx, *input.CampusID); err != nil {
			return nil, err
		}
	}

	// Pre-checks keep the common duplicate case out of the insert; the
	// DB unique constraints remain the backstop for races.
	if existing, _ := s.userRepo.GetByEmail(ctx, email); existing != nil {
		return nil, appErrors.ErrEmailTaken
	}
	if existing, _ := s.userRepo.GetByUsername(ctx, username); existing != nil {
		return nil, appErrors.ErrUsernameTaken
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error("Failed to hash password", "error", err)
		return nil, appErrors.ErrInternalServer
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(passwordHash),
		CampusID:     input.CampusID,
		IsActive:     true,
	}
	if fullName != "" {
		user.FullName = &fullName
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("User registered", "user_id", user.ID, "email", user.Email)

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	email, err := s.validateEmail(email)
	if err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Do not reveal whether the account exists.
		return nil, appErrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, appErrors.ErrInvalidCredentials
	}

	token, err := jwt.GenerateAccessToken(user.ID, user.Email, s.jwtCfg.Secret, s.jwtCfg.Issuer, s.jwtCfg.AccessTTL)
	if err != nil {
		s.log.Error("Failed to generate access token", "error", err, "user_id", user.ID)
		return nil, appErrors.ErrInternalServer
	}

	s.log.Info("User logged in", "user_id", user.ID)

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	}, nil
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := jwt.ValidateAccessToken(tokenString, s.jwtCfg.Secret)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.ErrUnauthorized
	}

	if !user.IsActive {
		return nil, appErrors.ErrUnauthorized
	}

	return user, nil
}

// validateEmail normalizes the address and enforces the campus domain
// allowlist, plus an MX lookup when deliverability checking is on.
func (s *authService) validateEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", errors.New("invalid email format")
	}

	at := strings.LastIndex(email, "@")
	domainPart := email[at+1:]

	allowed := false
	for _, d := range s.emailCfg.AllowedDomains {
		if domainPart == strings.ToLower(strings.TrimSpace(d)) {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", errors.New("only emails from: " + strings.Join(s.emailCfg.AllowedDomains, ", "))
	}

	if s.emailCfg.VerificationMode == "dns" {
		if mx, err := net.LookupMX(domainPart); err != nil || len(mx) == 0 {
			return "", errors.New("email domain has no valid MX records")
		}
	}

	return email, nil
}
