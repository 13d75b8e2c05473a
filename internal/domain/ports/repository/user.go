package repository

import (
	"context"

	"github.com/farinchan/chatery-whatsapp/internal/domain/model"
)

// UserRepository resolves and persists API users.
type UserRepository interface {
	FindByAPIKey(ctx context.Context, apiKey string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Save(ctx context.Context, u *model.User) error
}
