package clinic

import (
	"context"

	"rxdesk/m/domain"
	"rxdesk/m/internal/auth"
	"rxdesk/m/internal/store"
)

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=admin doctor pharmacist receptionist"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// Session is returned by register and login.
type Session struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Register is open self sign-up. An admin account can only be claimed this
// way while the clinic has none; later admins are added through CreateUser.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	u, err := s.createUser(ctx, in, true)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: *u}, nil
}

// CreateUser adds a staff account of any role on an admin's behalf.
func (s *Service) CreateUser(ctx context.Context, in RegisterInput) (*domain.User, error) {
	return s.createUser(ctx, in, false)
}

func (s *Service) createUser(ctx context.Context, in RegisterInput, selfService bool) (*domain.User, error) {
	if !domain.ValidRole(in.Role) {
		return nil, domain.ErrInvalidRole
	}
	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{Username: in.Username, Email: in.Email, Password: hashed, Role: in.Role}
	err = s.store.InTx(ctx, func(q *store.Queries) error {
		if selfService && in.Role == domain.RoleAdmin {
			taken, err := q.RoleExists(ctx, domain.RoleAdmin)
			if err != nil {
				return err
			}
			if taken {
				return domain.ConflictError("an admin account already exists")
			}
		}
		return q.CreateUser(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", u.ID).Str("role", u.Role).Bool("self_service", selfService).Msg("user registered")
	return u, nil
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	u, err := s.store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if u == nil || !auth.CheckPassword(u.Password, in.Password) {
		return nil, domain.ErrUnauthorized
	}
	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: *u}, nil
}

// Me returns the caller's user record, or nil if it has been removed.
func (s *Service) Me(ctx context.Context, userID int64) (*domain.User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, in ChangePasswordInput) error {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.NotFound("user", userID)
	}
	if !auth.CheckPassword(u.Password, in.CurrentPassword) {
		return domain.ErrUnauthorized
	}
	hashed, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, userID, hashed)
}

type UserQuery struct {
	Role string `json:"role" validate:"omitempty,oneof=admin doctor pharmacist receptionist"`
}

func (s *Service) ListUsers(ctx context.Context, in UserQuery) ([]domain.User, error) {
	return s.store.ListUsers(ctx, in.Role)
}
