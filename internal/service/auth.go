package service

import (
	"context"

	"github.com/campuspoints/platform/internal/auth"
	"github.com/campuspoints/platform/internal/domain"
	"github.com/campuspoints/platform/internal/guard"
	"github.com/campuspoints/platform/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration and login. Credentials live in
// auth_users; the users row shares the same id and carries role,
// balance and flags.
type AuthService struct {
	pool      *pgxpool.Pool
	authUsers repository.AuthUserRepository
	users     repository.UserRepository
	jwtMgr    *auth.JWTManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	pool *pgxpool.Pool,
	authUsers repository.AuthUserRepository,
	users repository.UserRepository,
	jwtMgr *auth.JWTManager,
) *AuthService {
	return &AuthService{
		pool:      pool,
		authUsers: authUsers,
		users:     users,
		jwtMgr:    jwtMgr,
	}
}

// RegisterInput holds the registration request fields.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput holds the login request fields. ClientIP is filled in by
// the handler, not the request body.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	ClientIP string `json:"-"`
}

// AuthResult is returned on successful registration or login.
type AuthResult struct {
	Token   string    `json:"token"`
	UserID  uuid.UUID `json:"user_id"`
	Email   string    `json:"email"`
	Role    string    `json:"role"`
	Balance int64     `json:"balance"`
}

// Register creates a new account within a single transaction. New
// accounts start as unverified regular users with a zero balance.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := domain.ValidateEmail(input.Email); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if input.Name == "" {
		return nil, domain.ErrValidation("name is required")
	}
	if len(input.Password) < 8 {
		return nil, domain.ErrValidation("password must be at least 8 characters")
	}

	existing, err := s.authUsers.FindByEmail(ctx, s.pool, input.Email)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if existing != nil {
		return nil, domain.ErrConflict("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.ErrInternal("hash password", err)
	}

	userID := uuid.New()

	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		authUser := &domain.AuthUser{
			ID:           userID,
			Email:        input.Email,
			PasswordHash: string(hash),
		}
		if err := s.authUsers.Create(ctx, tx, authUser); err != nil {
			return domain.ErrInternal("create auth user", err)
		}

		user := &domain.User{
			ID:    userID,
			Name:  input.Name,
			Email: input.Email,
			Role:  domain.RoleRegular,
		}
		if err := s.users.Create(ctx, tx, user); err != nil {
			return domain.ErrInternal("create user", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := s.jwtMgr.GenerateToken(userID, input.Email, domain.RoleRegular)
	if err != nil {
		return nil, domain.ErrInternal("generate token", err)
	}

	return &AuthResult{
		Token:  token,
		UserID: userID,
		Email:  input.Email,
		Role:   domain.RoleRegular.String(),
	}, nil
}

// Login validates credentials and issues a token carrying the user's
// current role.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if err := guard.CheckLocked(ctx, s.pool, input.Email); err != nil {
		return nil, err
	}

	authUser, err := s.authUsers.FindByEmail(ctx, s.pool, input.Email)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if authUser == nil {
		guard.RecordAttempt(ctx, s.pool, input.Email, input.ClientIP, false)
		return nil, domain.ErrUnauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(authUser.PasswordHash), []byte(input.Password)); err != nil {
		guard.RecordAttempt(ctx, s.pool, input.Email, input.ClientIP, false)
		return nil, domain.ErrUnauthorized("invalid credentials")
	}
	guard.RecordAttempt(ctx, s.pool, input.Email, input.ClientIP, true)

	user, err := s.users.FindByID(ctx, s.pool, authUser.ID)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized("invalid credentials")
	}

	token, err := s.jwtMgr.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, domain.ErrInternal("generate token", err)
	}

	return &AuthResult{
		Token:   token,
		UserID:  user.ID,
		Email:   user.Email,
		Role:    user.Role.String(),
		Balance: user.Balance,
	}, nil
}
