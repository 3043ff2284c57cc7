package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"hesap/internal/core/apperror"
	"hesap/internal/core/id"
	"hesap/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts  int
	LockDuration      time.Duration
	PasswordMinLength int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:  5,
		LockDuration:      15 * time.Minute,
		PasswordMinLength: 8,
	}
}

// Service provides authentication.
type Service struct {
	userRepo   UserRepository
	jwtService *JWTService
	config     ServiceConfig
	now        func() time.Time
}

// NewService creates a new auth service.
func NewService(userRepo UserRepository, jwtService *JWTService, config ServiceConfig) *Service {
	return &Service{
		userRepo:   userRepo,
		jwtService: jwtService,
		config:     config,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateUserCommand describes a new user.
type CreateUserCommand struct {
	BranchID id.ID
	Email    string
	Password string
	FullName string
	Roles    []string
}

// CreateUser registers a user in a branch.
func (s *Service) CreateUser(ctx context.Context, cmd CreateUserCommand) (*User, error) {
	if id.IsNil(cmd.BranchID) {
		return nil, apperror.NewFieldValidation("branchId", "is required")
	}
	if NormalizeEmail(cmd.Email) == "" {
		return nil, apperror.NewFieldValidation("email", "is required")
	}
	if len(cmd.Password) < s.config.PasswordMinLength {
		return nil, apperror.NewFieldValidation("password",
			fmt.Sprintf("must be at least %d characters", s.config.PasswordMinLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := NewUser(cmd.BranchID, cmd.Email, string(hash))
	user.FullName = cmd.FullName
	user.Roles = cmd.Roles
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Info(ctx, "user created", "user_id", user.ID, "branch_id", user.BranchID)
	return user, nil
}

// Login authenticates user and returns an access token.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Token, *User, error) {
	now := s.now()

	user, err := s.userRepo.GetByEmail(ctx, NormalizeEmail(creds.Email))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if err := user.CanLogin(now); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		user.RecordFailedLogin(now, s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.userRepo.UpdateLoginState(ctx, user); err != nil {
			logger.Warn(ctx, "failed to record login failure", "user_id", user.ID, "error", err)
		}
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	token, err := s.jwtService.IssueToken(user.ID.String(), user.BranchID, user.Email, user.Roles)
	if err != nil {
		return nil, nil, fmt.Errorf("issue token: %w", err)
	}

	user.RecordSuccessfulLogin(now)
	if err := s.userRepo.UpdateLoginState(ctx, user); err != nil {
		logger.Warn(ctx, "failed to record login", "user_id", user.ID, "error", err)
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID, "branch_id", user.BranchID)
	return token, user, nil
}
