package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/afyalink/health-registry/internal/core/domain"
	"github.com/afyalink/health-registry/internal/core/ports"
)

const (
	defaultProfileTTL = 5 * time.Minute
	// minGenerationTTL keeps generation counters well past any profile entry.
	minGenerationTTL = 24 * time.Hour
)

var _ ports.ProfileCache = (*ProfileCache)(nil)

// ProfileCache stores client profiles as JSON, each stamped with the client's
// generation at the time it was read from the store.
// Key format: client_profile:<client_id>, client_profile_gen:<client_id>
type ProfileCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	genTTL time.Duration
}

type cachedProfile struct {
	Generation int64                `json:"generation"`
	Profile    domain.ClientProfile `json:"profile"`
}

// NewProfileCache wraps client. A non-positive ttl uses the default.
func NewProfileCache(client redis.UniversalClient, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = defaultProfileTTL
	}
	genTTL := 2 * ttl
	if genTTL < minGenerationTTL {
		genTTL = minGenerationTTL
	}
	return &ProfileCache{client: client, ttl: ttl, genTTL: genTTL}
}

// Get returns the cached profile for clientID. An entry stamped with an older
// generation counts as a miss. A miss reports the current generation.
func (c *ProfileCache) Get(ctx context.Context, clientID string) (*domain.ClientProfile, int64, bool, error) {
	vals, err := c.client.MGet(ctx, c.key(clientID), c.genKey(clientID)).Result()
	if err != nil {
		return nil, 0, false, fmt.Errorf("profile cache get: %w", err)
	}
	if len(vals) != 2 {
		return nil, 0, false, fmt.Errorf("profile cache get: expected 2 values, got %d", len(vals))
	}

	generation, err := parseGeneration(vals[1])
	if err != nil {
		return nil, 0, false, err
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, generation, false, nil
	}

	var entry cachedProfile
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, 0, false, fmt.Errorf("profile cache decode: %w", err)
	}
	if entry.Generation != generation {
		return nil, generation, false, nil
	}
	if entry.Profile.Programs == nil {
		entry.Profile.Programs = []domain.Program{}
	}
	return &entry.Profile, generation, true, nil
}

// Set stores profile under generation until the ttl elapses.
func (c *ProfileCache) Set(ctx context.Context, profile *domain.ClientProfile, generation int64) error {
	raw, err := json.Marshal(cachedProfile{Generation: generation, Profile: *profile})
	if err != nil {
		return fmt.Errorf("profile cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(profile.ID), raw, c.ttl).Err()
}

// Invalidate advances the generation of clientID, which retires both the
// current entry and any entry still being written from an earlier read.
func (c *ProfileCache) Invalidate(ctx context.Context, clientID string) error {
	if err := c.client.Incr(ctx, c.genKey(clientID)).Err(); err != nil {
		return fmt.Errorf("profile cache invalidate: %w", err)
	}
	if err := c.client.Expire(ctx, c.genKey(clientID), c.genTTL).Err(); err != nil {
		return fmt.Errorf("profile cache invalidate: %w", err)
	}
	return c.client.Del(ctx, c.key(clientID)).Err()
}

func (c *ProfileCache) key(clientID string) string {
	return "client_profile:" + clientID
}

func (c *ProfileCache) genKey(clientID string) string {
	return "client_profile_gen:" + clientID
}

func parseGeneration(v interface{}) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("profile cache generation %q: %w", s, err)
	}
	return n, nil
}
