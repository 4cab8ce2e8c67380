package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go-ecom-api/internal/apperror"
	"go-ecom-api/internal/model"
	"go-ecom-api/internal/policy"
	"go-ecom-api/internal/repository"

	"github.com/google/uuid"
)

type UserService interface {
	GetProfile(ctx context.Context, p policy.Principal) (*model.UserResponse, error)
	UpdateProfile(ctx context.Context, p policy.Principal, req *UpdateProfileRequest) (*model.UserResponse, error)
	ListSellers(ctx context.Context, p policy.Principal) ([]model.UserResponse, error)
	ListUsers(ctx context.Context, p policy.Principal) ([]model.UserResponse, error)
	ChangeRole(ctx context.Context, p policy.Principal, id uuid.UUID, req *ChangeRoleRequest) (*model.UserResponse, error)
	RegistrationStats(ctx context.Context, p policy.Principal, now time.Time) (*RegistrationStats, error)
}

type UpdateProfileRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=20"`
}

type ChangeRoleRequest struct {
	Role model.Role `json:"role" validate:"required"`
}

// RegistrationStats compares sign-ups of the current and previous calendar
// year. PercentageChange is "N/A" when there were none last year.
type RegistrationStats struct {
	ThisYear         int64       `json:"this_year"`
	LastYear         int64       `json:"last_year"`
	PercentageChange interface{} `json:"percentage_change"`
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, p policy.Principal) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, lookupErr(err, "User")
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) UpdateProfile(ctx context.Context, p policy.Principal, req *UpdateProfileRequest) (*model.UserResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, lookupErr(err, "User")
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}
	user.UpdatedBy = actor(p)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperror.Database("failed to update profile", err)
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) list(ctx context.Context, p policy.Principal, roles ...model.Role) ([]model.UserResponse, error) {
	if err := policy.Authorize(p, policy.UserView, uuid.Nil); err != nil {
		return nil, err
	}
	users, err := s.userRepo.FindByRoles(ctx, roles...)
	if err != nil {
		return nil, apperror.Database("failed to list users", err)
	}
	out := make([]model.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToResponse())
	}
	return out, nil
}

func (s *userService) ListSellers(ctx context.Context, p policy.Principal) ([]model.UserResponse, error) {
	return s.list(ctx, p, model.RoleSeller)
}

// ListUsers returns every non-admin account.
func (s *userService) ListUsers(ctx context.Context, p policy.Principal) ([]model.UserResponse, error) {
	return s.list(ctx, p, model.RoleUser, model.RoleSeller)
}

func (s *userService) ChangeRole(ctx context.Context, p policy.Principal, id uuid.UUID, req *ChangeRoleRequest) (*model.UserResponse, error) {
	if err := policy.Authorize(p, policy.UserChangeRole, uuid.Nil); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	if !req.Role.Valid() {
		return nil, apperror.Validation("invalid role '%s'", req.Role)
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "User")
	}
	if user.Role == model.RoleAdmin && user.ID != p.UserID {
		return nil, apperror.Forbidden("cannot change the role of another administrator")
	}
	if err := s.userRepo.UpdateRole(ctx, id, req.Role, actor(p)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, apperror.Database("failed to update role", err)
	}
	user.Role = req.Role
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) RegistrationStats(ctx context.Context, p policy.Principal, now time.Time) (*RegistrationStats, error) {
	if err := policy.Authorize(p, policy.UserView, uuid.Nil); err != nil {
		return nil, err
	}
	thisYear := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	lastYear := thisYear.AddDate(-1, 0, 0)
	nextYear := thisYear.AddDate(1, 0, 0)

	current, err := s.userRepo.CountCreatedBetween(ctx, thisYear, nextYear)
	if err != nil {
		return nil, apperror.Database("failed to count users", err)
	}
	previous, err := s.userRepo.CountCreatedBetween(ctx, lastYear, thisYear)
	if err != nil {
		return nil, apperror.Database("failed to count users", err)
	}

	stats := &RegistrationStats{ThisYear: current, LastYear: previous, PercentageChange: "N/A"}
	if previous > 0 {
		change := float64(current-previous) / float64(previous) * 100
		stats.PercentageChange = math.Round(change*100) / 100
	}
	return stats, nil
}
