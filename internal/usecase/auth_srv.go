package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"car-rental/internal/data/entity"
	"car-rental/internal/data/repository"
	"car-rental/internal/dto/request"
	"car-rental/internal/dto/response"
	"car-rental/pkg/apperror"
	"car-rental/pkg/utils"

	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	Logout(ctx context.Context) error
}

type authService struct {
	repo   *repository.Repository
	tokens *utils.TokenIssuer
	now    Clock
	log    *zap.Logger
}

func NewAuthService(
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:   repo,
		tokens: utils.NewTokenIssuer(config.JWT, config.App.Name),
		now:    time.Now,
		log:    log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error) {
	// 1. Validate input
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register validation failed", zap.Any("errors", errs))
		return nil, validationFailed(errs)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	// 2. Email and username must be free
	existing, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if existing != nil {
		return nil, apperror.Conflict(apperror.CodeDuplicate, "email already registered")
	}

	existing, err = s.repo.User.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if existing != nil {
		return nil, apperror.Conflict(apperror.CodeDuplicate, "username already taken")
	}

	// 3. Hash password
	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("register: %w", err)
	}

	now := s.now()
	user := &entity.User{
		Base:         entity.NewBase(now),
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		Phone:        req.Phone,
		Role:         entity.RoleCustomer,
		IsActive:     true,
	}

	// 4. Save; a concurrent registration still hits the unique index
	if err := s.repo.User.Create(ctx, user); err != nil {
		logRejection(s.log, "Failed to create user", err, zap.String("email", email))
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info("User registered", zap.String("user_id", user.ID.String()))

	// 5. Log the new user in
	return s.issue(ctx, user)
}

// Login accepts an email or a username. Unknown users and wrong passwords
// get the same answer.
func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Login validation failed", zap.Any("errors", errs))
		return nil, validationFailed(errs)
	}

	identifier := strings.TrimSpace(req.Username)

	user, err := s.repo.User.FindByEmail(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if user == nil {
		if user, err = s.repo.User.FindByUsername(ctx, identifier); err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
	}

	if user == nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.log.Warn("Invalid login attempt", zap.String("identifier", identifier))
		return nil, apperror.Unauthorized("invalid credentials")
	}
	if !user.IsActive {
		s.log.Warn("Inactive user tried to login", zap.String("user_id", user.ID.String()))
		return nil, apperror.Unauthorized("account is deactivated")
	}

	resp, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in", zap.String("user_id", user.ID.String()))
	return resp, nil
}

// Logout revokes the session behind the current token.
func (s *authService) Logout(ctx context.Context) error {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return apperror.Unauthorized("authentication required")
	}

	if err := s.repo.Session.Revoke(ctx, token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	s.log.Info("User logged out")
	return nil
}

// issue stores a new session and signs a token pointing at it.
func (s *authService) issue(ctx context.Context, user *entity.User) (*response.AuthResponse, error) {
	now := s.now()
	session := entity.NewSession(user.ID, s.tokens.Expiry(), now)

	if err := s.repo.Session.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	signed, expiresAt, err := s.tokens.Issue(user.ID, string(user.Role), session.Token.String(), now)
	if err != nil {
		s.log.Error("Failed to sign token", zap.Error(err))
		return nil, fmt.Errorf("issue token: %w", err)
	}

	resp := response.AuthToResponse(user, signed, expiresAt)
	return &resp, nil
}
