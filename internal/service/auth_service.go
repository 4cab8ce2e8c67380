package service

import (
	"context"
	"errors"
	"strings"

	"go-ecom-api/internal/apperror"
	"go-ecom-api/internal/model"
	"go-ecom-api/internal/policy"
	"go-ecom-api/internal/repository"
	"go-ecom-api/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*model.UserResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	ChangePassword(ctx context.Context, p policy.Principal, req *ChangePasswordRequest) error
	// ResetPassword sets a new password without the old one. Operator use only.
	ResetPassword(ctx context.Context, email, newPassword string) error
	// SeedAdmin creates the bootstrap administrator unless the email is taken.
	SeedAdmin(ctx context.Context, email, password string) (bool, error)
}

type RegisterRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=20"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=20"`
}

type LoginResponse struct {
	AccessToken string             `json:"access_token"`
	TokenType   string             `json:"token_type"`
	ExpiresIn   int64              `json:"expires_in"`
	User        model.UserResponse `json:"user"`
	Privileges  []string           `json:"privileges"` // Flat privileges array for easy checking
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*model.UserResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)

	// 1. Check if email already exists
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("Email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Database("failed to check email", err)
	}

	// 2. Build user with the default role
	user := &model.User{
		Email:       email,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Role:        model.RoleUser,
		IsActive:    true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}

	// 3. Save; a concurrent registration loses on the unique index
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("Email already registered")
		}
		return nil, apperror.Database("failed to create user", err)
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	// 1. Find user by email
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Unauthorized("%s", ErrInvalidCredentials)
	}
	if err != nil {
		return nil, apperror.Database("failed to load user", err)
	}

	// 2. Verify password
	if !user.CheckPassword(req.Password) {
		return nil, apperror.Unauthorized("%s", ErrInvalidCredentials)
	}

	// 3. Check if user is active
	if !user.IsActive {
		return nil, apperror.Unauthorized("%s", ErrUserInactive)
	}

	// 4. Generate JWT token
	token, err := s.tokens.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		User:        user.ToResponse(),
		Privileges:  policy.Actions(user.Role),
	}, nil
}

func (s *authService) ChangePassword(ctx context.Context, p policy.Principal, req *ChangePasswordRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	user, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		return lookupErr(err, "User")
	}
	if !user.CheckPassword(req.CurrentPassword) {
		return apperror.Validation("%s", ErrWrongPassword)
	}
	if err := user.SetPassword(req.NewPassword); err != nil {
		return errors.New("failed to hash new password")
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return apperror.Database("failed to update password", err)
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, email, newPassword string) error {
	if len(newPassword) < 8 {
		return apperror.Validation("password must be at least 8 characters")
	}
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return lookupErr(err, "User")
	}
	if err := user.SetPassword(newPassword); err != nil {
		return errors.New("failed to hash new password")
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return apperror.Database("failed to update password", err)
	}
	return nil
}

func (s *authService) SeedAdmin(ctx context.Context, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, apperror.Database("failed to check admin", err)
	}

	admin := &model.User{
		Email:    email,
		Name:     "Administrator",
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	if err := admin.SetPassword(password); err != nil {
		return false, errors.New("failed to hash password")
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, nil
		}
		return false, apperror.Database("failed to create admin", err)
	}
	return true, nil
}
