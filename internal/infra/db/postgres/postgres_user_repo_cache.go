package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/farinchan/chatery-whatsapp/internal/domain/model"
	"github.com/farinchan/chatery-whatsapp/internal/domain/ports/repository"
	"github.com/farinchan/chatery-whatsapp/internal/infra/metrics"
	red "github.com/farinchan/chatery-whatsapp/internal/infra/redis"
)

var _ repository.UserRepository = (*userRepoCacheDecorator)(nil)

// userRepoCacheDecorator caches API-key and username lookups in redis.
// The API-key path runs on every authenticated request, so keeping it out of
// postgres matters more than freshness; writes invalidate both keys.
type userRepoCacheDecorator struct {
	inner repository.UserRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewUserRepoCacheDecorator(inner repository.UserRepository, cache red.RedisClient, ttl time.Duration) repository.UserRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &userRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *userRepoCacheDecorator) Save(ctx context.Context, u *model.User) error {
	_ = d.cache.Del(ctx, apiKeyKey(u.APIKey), usernameKey(u.Username))
	return d.inner.Save(ctx, u)
}

func (d *userRepoCacheDecorator) FindByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	if u, ok := d.cached(ctx, apiKeyKey(apiKey)); ok {
		return u, nil
	}

	u, err := d.inner.FindByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	d.store(ctx, u)
	return u, nil
}

func (d *userRepoCacheDecorator) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if u, ok := d.cached(ctx, usernameKey(username)); ok {
		return u, nil
	}

	u, err := d.inner.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	d.store(ctx, u)
	return u, nil
}

func (d *userRepoCacheDecorator) cached(ctx context.Context, key string) (*model.User, bool) {
	val, err := d.cache.Get(ctx, key)
	if err != nil {
		metrics.IncCacheRequest("user", "miss")
		return nil, false
	}
	var u cachedUser
	if json.Unmarshal([]byte(val), &u) != nil {
		metrics.IncCacheRequest("user", "miss")
		return nil, false
	}
	metrics.IncCacheRequest("user", "hit")
	return u.toModel(), true
}

func (d *userRepoCacheDecorator) store(ctx context.Context, u *model.User) {
	raw, err := json.Marshal(fromModel(u))
	if err != nil {
		return
	}
	// Warm both keys so a login right after an API call stays cached.
	_ = d.cache.Set(ctx, apiKeyKey(u.APIKey), raw, d.ttl)
	_ = d.cache.Set(ctx, usernameKey(u.Username), raw, d.ttl)
}

func apiKeyKey(apiKey string) string     { return fmt.Sprintf("user:apikey:%s", apiKey) }
func usernameKey(username string) string { return fmt.Sprintf("user:name:%s", username) }

// cachedUser carries the fields the json tags on model.User hide.
type cachedUser struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	APIKey       string    `json:"apiKey"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

func fromModel(u *model.User) cachedUser {
	return cachedUser{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		APIKey:       u.APIKey,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
	}
}

func (c cachedUser) toModel() *model.User {
	return &model.User{
		ID:           c.ID,
		Username:     c.Username,
		PasswordHash: c.PasswordHash,
		APIKey:       c.APIKey,
		Role:         model.Role(c.Role),
		CreatedAt:    c.CreatedAt,
	}
}
