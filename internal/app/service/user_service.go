package service

import (
	"context"
	"fmt"
	"wastewise/internal/common"
	"wastewise/internal/common/security"
	"wastewise/internal/domain/model"
	"wastewise/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DirectoryCache is the single-snapshot user listing cache. All methods are
// best-effort; the database stays authoritative.
type DirectoryCache interface {
	Get(ctx context.Context) ([]model.User, bool)
	Set(ctx context.Context, users []model.User)
	Invalidate(ctx context.Context)
}

type UserService struct {
	userRepo repository.UserRepository
	cache    DirectoryCache
	logger   zerolog.Logger
}

func NewUserService(userRepo repository.UserRepository, cache DirectoryCache, logger zerolog.Logger) *UserService {
	return &UserService{userRepo: userRepo, cache: cache, logger: logger}
}

type RegisterRequest struct {
	Username string     `json:"username"`
	FullName string     `json:"full_name"`
	Role     model.Role `json:"role"`
	Password string     `json:"password"`
}

func (s *UserService) Register(ctx context.Context, actor model.Identity, req RegisterRequest) (*model.User, error) {
	if actor.Role != model.RoleMinistry {
		return nil, fmt.Errorf("only ministry may create accounts: %w", common.ErrForbidden)
	}
	if req.Username == "" || req.FullName == "" || req.Password == "" {
		return nil, fmt.Errorf("username, full name and password are required: %w", common.ErrValidation)
	}
	if !req.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", req.Role, common.ErrValidation)
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		FullName:     req.FullName,
		Role:         req.Role,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)

	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	user.PasswordHash = ""
	return user, nil
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// ResetPassword overwrites the stored hash unconditionally; no old-password
// confirmation is required.
func (s *UserService) ResetPassword(ctx context.Context, actor model.Identity, userID string, req ResetPasswordRequest) error {
	if actor.Role != model.RoleMinistry {
		return fmt.Errorf("only ministry may reset passwords: %w", common.ErrForbidden)
	}
	if req.NewPassword == "" {
		return fmt.Errorf("new password is required: %w", common.ErrValidation)
	}

	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)

	s.logger.Info().Str("user_id", userID).Msg("password reset")
	return nil
}

// ListUsers serves the directory through the cache snapshot, repopulating it
// from the database on a miss.
func (s *UserService) ListUsers(ctx context.Context, actor model.Identity) ([]model.User, error) {
	if actor.Role != model.RoleMinistry {
		return nil, fmt.Errorf("only ministry may list users: %w", common.ErrForbidden)
	}

	if users, ok := s.cache.Get(ctx); ok {
		return users, nil
	}

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	s.cache.Set(ctx, users)
	return users, nil
}

func (s *UserService) ListEmployees(ctx context.Context, actor model.Identity) ([]model.User, error) {
	if actor.Role != model.RoleMinistry {
		return nil, fmt.Errorf("only ministry may list employees: %w", common.ErrForbidden)
	}
	employees, err := s.userRepo.ListByRole(ctx, model.RoleEmployee)
	if err != nil {
		return nil, err
	}
	for i := range employees {
		employees[i].PasswordHash = ""
	}
	return employees, nil
}

// SeedMinistryAccount creates the bootstrap ministry admin iff no ministry
// user exists yet, so the deployment is never locked out.
func (s *UserService) SeedMinistryAccount(ctx context.Context, username, fullName, password string) error {
	count, err := s.userRepo.CountByRole(ctx, model.RoleMinistry)
	if err != nil {
		return fmt.Errorf("failed to count ministry users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}
	user := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		FullName:     fullName,
		Role:         model.RoleMinistry,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to seed ministry account: %w", err)
	}
	s.cache.Invalidate(ctx)

	s.logger.Info().Str("username", username).Msg("seeded ministry account")
	return nil
}
