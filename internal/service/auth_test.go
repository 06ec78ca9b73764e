package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"notaryapi/internal/apperr"
	"notaryapi/internal/config"
	"notaryapi/internal/model"
	"notaryapi/internal/repository"
	repoMocks "notaryapi/internal/repository/mocks"
)

func newAuthService(t *testing.T) (AuthService, *repoMocks.MockUserRepository) {
	t.Helper()
	users := new(repoMocks.MockUserRepository)
	svc := NewAuthService(users, config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour})
	return svc, users
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		params     RegisterParams
		setupMocks func(users *repoMocks.MockUserRepository)
		wantErr    error
		wantRole   string
	}{
		{
			name:   "defaults to the user role",
			params: RegisterParams{Email: "a@example.com", Name: "A", Password: "long-enough"},
			setupMocks: func(users *repoMocks.MockUserRepository) {
				users.On("Create", ctx, mock.MatchedBy(func(u *model.User) bool {
					return u.Role == model.RoleUser && u.PasswordHash != "" && u.PasswordHash != "long-enough"
				})).Return(&model.User{ID: "u1", Role: model.RoleUser}, nil)
			},
			wantRole: model.RoleUser,
		},
		{
			name:   "notary role",
			params: RegisterParams{Email: "n@example.com", Name: "N", Password: "long-enough", Role: model.RoleNotary},
			setupMocks: func(users *repoMocks.MockUserRepository) {
				users.On("Create", ctx, mock.Anything).Return(&model.User{ID: "u2", Role: model.RoleNotary}, nil)
			},
			wantRole: model.RoleNotary,
		},
		{
			name:    "invalid email",
			params:  RegisterParams{Email: "nope", Name: "A", Password: "long-enough"},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "short password",
			params:  RegisterParams{Email: "a@example.com", Name: "A", Password: "short"},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "unknown role",
			params:  RegisterParams{Email: "a@example.com", Name: "A", Password: "long-enough", Role: "root"},
			wantErr: apperr.ErrValidation,
		},
		{
			name:   "duplicate email",
			params: RegisterParams{Email: "a@example.com", Name: "A", Password: "long-enough"},
			setupMocks: func(users *repoMocks.MockUserRepository) {
				users.On("Create", ctx, mock.Anything).Return(nil, repository.ErrEmailTaken)
			},
			wantErr: apperr.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users := newAuthService(t)
			if tt.setupMocks != nil {
				tt.setupMocks(users)
			}

			user, err := svc.Register(ctx, tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantRole, user.Role)
			users.AssertExpectations(t)
		})
	}
}

func TestAuthService_LoginAndParse(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	assert.NoError(t, err)
	stored := &model.User{ID: "u1", Email: "a@example.com", Role: model.RoleNotary, PasswordHash: string(hash)}

	t.Run("token round trip", func(t *testing.T) {
		svc, users := newAuthService(t)
		users.On("FindByEmail", ctx, "a@example.com").Return(stored, nil)

		token, user, err := svc.Login(ctx, "a@example.com", "correct horse")
		assert.NoError(t, err)
		assert.Equal(t, "u1", user.ID)

		claims, err := svc.ParseToken(token)
		assert.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID)
		assert.Equal(t, model.RoleNotary, claims.Role)
		assert.Equal(t, "a@example.com", claims.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, users := newAuthService(t)
		users.On("FindByEmail", ctx, "a@example.com").Return(stored, nil)

		_, _, err := svc.Login(ctx, "a@example.com", "wrong")
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, users := newAuthService(t)
		users.On("FindByEmail", ctx, "a@example.com").Return(nil, sql.ErrNoRows)

		_, _, err := svc.Login(ctx, "a@example.com", "correct horse")
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		svc, users := newAuthService(t)
		users.On("FindByEmail", ctx, "a@example.com").Return(stored, nil)
		token, _, err := svc.Login(ctx, "a@example.com", "correct horse")
		assert.NoError(t, err)

		other := NewAuthService(users, config.AuthConfig{JWTSecret: "other-secret", TokenTTL: time.Hour})
		_, err = other.ParseToken(token)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("garbage token", func(t *testing.T) {
		svc, _ := newAuthService(t)
		_, err := svc.ParseToken("not.a.token")
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}
