package authservice

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/shortland/backend/internal/clock"
	"github.com/shortland/backend/internal/domain/users"
	"github.com/shortland/backend/internal/ports"
	"github.com/shortland/backend/internal/shared/logger"
)

const bcryptCost = 10

// Claims is the JWT payload issued on login/register.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Service implements ports.AuthService.
type Service struct {
	uow      ports.UnitOfWork
	repo     ports.UserRepository
	secret   []byte
	tokenTTL time.Duration
	clock    clock.Clock
	logger   *logger.Logger
}

var _ ports.AuthService = (*Service)(nil)

func New(uow ports.UnitOfWork, repo ports.UserRepository, secret []byte, tokenTTL time.Duration, clk clock.Clock, log *logger.Logger) *Service {
	return &Service{uow: uow, repo: repo, secret: secret, tokenTTL: tokenTTL, clock: clk, logger: log}
}

// Register creates an account with a bcrypt-hashed password and returns a
// signed token, mirroring login.
func (service *Service) Register(ctx context.Context, name, email, password string) (ports.AuthResult, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return ports.AuthResult{}, errors.New("name, email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return ports.AuthResult{}, err
	}

	user := users.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         users.RoleUser,
	}

	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.repo.Create(txCtx, &user)
	})
	if err != nil {
		return ports.AuthResult{}, err
	}

	token, err := service.sign(user)
	if err != nil {
		return ports.AuthResult{}, err
	}

	service.logger.Info(ctx, "user_registered", "new account created", map[string]any{"user_id": user.ID})
	return ports.AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and issues a token.
func (service *Service) Login(ctx context.Context, email, password string) (ports.AuthResult, error) {
	return service.login(ctx, email, password, false)
}

// LoginAdmin is the back-office entry point: same check plus the admin role.
func (service *Service) LoginAdmin(ctx context.Context, email, password string) (ports.AuthResult, error) {
	return service.login(ctx, email, password, true)
}

func (service *Service) login(ctx context.Context, email, password string, adminOnly bool) (ports.AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user *users.User
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		user, err = service.repo.GetByEmail(txCtx, email)
		return err
	})
	if errors.Is(err, users.ErrUserNotFound) {
		// Same error as a bad password: never reveal which part failed.
		return ports.AuthResult{}, users.ErrInvalidCredentials
	}
	if err != nil {
		return ports.AuthResult{}, err
	}

	if adminOnly && user.Role != users.RoleAdmin {
		return ports.AuthResult{}, users.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return ports.AuthResult{}, users.ErrInvalidCredentials
	}

	token, err := service.sign(*user)
	if err != nil {
		return ports.AuthResult{}, err
	}

	service.logger.Info(ctx, "user_logged_in", "login succeeded", map[string]any{"user_id": user.ID, "admin": adminOnly})
	return ports.AuthResult{User: *user, Token: token}, nil
}

func (service *Service) sign(user users.User) (string, error) {
	now := service.clock.Now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(service.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(service.secret)
}

// VerifyToken parses and validates a token string, returning its claims.
func (service *Service) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return service.secret, nil
	}, jwt.WithTimeFunc(service.clock.Now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
