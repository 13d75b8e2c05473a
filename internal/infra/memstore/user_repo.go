package memstore

import (
	"context"
	"sync"

	"github.com/farinchan/chatery-whatsapp/internal/domain"
	"github.com/farinchan/chatery-whatsapp/internal/domain/model"
	"github.com/farinchan/chatery-whatsapp/internal/domain/ports/repository"
)

// UserRepo keeps users in memory. It backs dev mode, where no database
// is configured.
type UserRepo struct {
	mu    sync.RWMutex
	byKey map[string]*model.User
	byNam map[string]*model.User
}

var _ repository.UserRepository = (*UserRepo)(nil)

func NewUserRepo(seed ...*model.User) *UserRepo {
	r := &UserRepo{
		byKey: make(map[string]*model.User),
		byNam: make(map[string]*model.User),
	}
	for _, u := range seed {
		_ = r.Save(context.Background(), u)
	}
	return r
}

func (r *UserRepo) Save(_ context.Context, u *model.User) error {
	if u == nil || u.Username == "" {
		return domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.byNam[cp.Username] = &cp
	if cp.APIKey != "" {
		r.byKey[cp.APIKey] = &cp
	}
	return nil
}

func (r *UserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byNam[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) FindByAPIKey(_ context.Context, apiKey string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byKey[apiKey]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}
