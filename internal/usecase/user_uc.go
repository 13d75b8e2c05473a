// File: internal/usecase/user_uc.go
package usecase

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/farinchan/chatery-whatsapp/internal/domain"
	"github.com/farinchan/chatery-whatsapp/internal/domain/model"
	"github.com/farinchan/chatery-whatsapp/internal/domain/ports/repository"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase resolves API callers from credentials.
type UserUseCase interface {
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
	ResolveAPIKey(ctx context.Context, apiKey string) (*model.User, error)
}

type userUC struct {
	users repository.UserRepository
}

func NewUserUseCase(users repository.UserRepository) *userUC {
	return &userUC{users: users}
}

func (uc *userUC) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidArgument
	}

	u, err := uc.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	hashed := HashPassword(password)
	if subtle.ConstantTimeCompare([]byte(hashed), []byte(u.PasswordHash)) != 1 {
		return nil, domain.ErrInvalidCredentials
	}
	return u, nil
}

func (uc *userUC) ResolveAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, domain.ErrInvalidArgument
	}
	return uc.users.FindByAPIKey(ctx, apiKey)
}

// HashPassword mirrors the hex sha256 stored by the users table.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
