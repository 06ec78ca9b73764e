package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"notaryapi/internal/apperr"
	"notaryapi/internal/config"
	"notaryapi/internal/model"
	"notaryapi/internal/repository"
)

// RegisterParams carries a new account request.
type RegisterParams struct {
	Email    string
	Name     string
	Password string
	Role     string
}

// TokenClaims is what a verified access token asserts about its bearer.
type TokenClaims struct {
	UserID string
	Email  string
	Role   string
}

// AuthService defines account and token use cases.
type AuthService interface {
	// Register creates an account with a hashed password.
	Register(ctx context.Context, p RegisterParams) (*model.User, error)

	// Login verifies credentials and returns a signed access token.
	Login(ctx context.Context, email, password string) (string, *model.User, error)

	// ParseToken verifies a token string and extracts its claims.
	ParseToken(token string) (*TokenClaims, error)
}

type authService struct {
	users repository.UserRepository
	cfg   config.AuthConfig
	now   func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(users repository.UserRepository, cfg config.AuthConfig) AuthService {
	return &authService{users: users, cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

var validRoles = map[string]bool{
	model.RoleUser:      true,
	model.RoleNotary:    true,
	model.RoleSecretary: true,
	model.RoleAdmin:     true,
}

func (s *authService) Register(ctx context.Context, p RegisterParams) (*model.User, error) {
	switch {
	case !emailRe.MatchString(p.Email):
		return nil, fmt.Errorf("%w: invalid email", apperr.ErrValidation)
	case p.Name == "":
		return nil, fmt.Errorf("%w: name is required", apperr.ErrValidation)
	case len(p.Password) < 8:
		return nil, fmt.Errorf("%w: password must be at least 8 characters", apperr.ErrValidation)
	}
	if p.Role == "" {
		p.Role = model.RoleUser
	}
	if !validRoles[p.Role] {
		return nil, fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, p.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, &model.User{
		ID:           uuid.New().String(),
		Email:        p.Email,
		Name:         p.Name,
		Role:         p.Role,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	})
	if errors.Is(err, repository.ErrEmailTaken) {
		return nil, fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, emailAddr, password string) (string, *model.User, error) {
	user, err := s.users.FindByEmail(ctx, emailAddr)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, fmt.Errorf("%w: invalid credentials", apperr.ErrValidation)
	}
	if err != nil {
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", apperr.ErrValidation)
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  user.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.TokenTTL).Unix(),
	})
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, user, nil
}

func (s *authService) ParseToken(tokenStr string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", apperr.ErrValidation)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid token claims", apperr.ErrValidation)
	}
	sub, _ := claims["sub"].(string)
	emailAddr, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || role == "" {
		return nil, fmt.Errorf("%w: invalid token claims", apperr.ErrValidation)
	}
	return &TokenClaims{UserID: sub, Email: emailAddr, Role: role}, nil
}
