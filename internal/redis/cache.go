package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MallamTeja/Fintrack/internal/domain/user"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Profile cache key: user:{user_id}, 5m TTL. Entries never carry the
// password hash.

const DefaultProfileTTL = 5 * time.Minute

// ProfileCache stores serialized user profiles in Redis.
type ProfileCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewProfileCache(client *goredis.Client, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return &ProfileCache{client: client, ttl: ttl}
}

func profileKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id.String())
}

// Get returns the cached profile. A miss is reported as (nil, nil).
func (c *ProfileCache) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	data, err := c.client.Get(ctx, profileKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var u user.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *ProfileCache) Set(ctx context.Context, u user.User) error {
	u.PasswordHash = ""
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, profileKey(u.ID), data, c.ttl).Err()
}

func (c *ProfileCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, profileKey(id)).Err()
}
