// Package cache wraps the Redis cache used for two independent concerns:
// a best-effort mirror of login sessions and a capped recent-activity log.
//
// Writes go to the read-write primary; the activity log viewer reads from a
// read-preferred replica. Every operation here is non-critical: failures are
// logged and swallowed so the cache can never fail a primary request.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/aksdemo/go-msg-backend/internal/config"
)

const (
	// activityKey is the Redis list holding recent activity entries.
	activityKey = "api_logs"
	// activityCap bounds the list: LTRIM 0..activityCap-1 after each push.
	activityCap = 100
	// sessionPrefix namespaces mirrored session keys.
	sessionPrefix = "session:"
	// sessionTTL is the fixed expiry of mirrored sessions.
	sessionTTL = 3600 * time.Second
)

// ActivityEntry is one record in the capped activity log.
type ActivityEntry struct {
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}

// SessionRecord is the ephemeral session mirror stored at session:<username>.
type SessionRecord struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	LoginTime string `json:"login_time"`
}

// Cache holds the read-write and read-only Redis clients.
type Cache struct {
	rw *redis.Client
	ro *redis.Client
}

// New builds a Cache from configuration. When the replica address equals the
// primary address a single client is shared.
func New(cfg config.RedisConfig) *Cache {
	rw := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ro := rw
	if cfg.ReplicaAddr != "" && cfg.ReplicaAddr != cfg.Addr {
		ro = redis.NewClient(&redis.Options{
			Addr:     cfg.ReplicaAddr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}
	return &Cache{rw: rw, ro: ro}
}

// NewWithClients builds a Cache around existing clients (tests).
func NewWithClients(rw, ro *redis.Client) *Cache {
	if ro == nil {
		ro = rw
	}
	return &Cache{rw: rw, ro: ro}
}

// Ping checks the read-write connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.rw.Ping(ctx).Err()
}

// Close releases both clients.
func (c *Cache) Close() error {
	err := c.rw.Close()
	if c.ro != c.rw {
		if e := c.ro.Close(); err == nil {
			err = e
		}
	}
	return err
}

// LogActivity pushes a structured entry to the front of the capped activity
// list and trims it to the newest 100 entries. Best-effort: any failure is
// logged and ignored.
func (c *Cache) LogActivity(ctx context.Context, action, details string) {
	entry := ActivityEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Action:    action,
		Details:   details,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("activity log marshal failed")
		return
	}
	pipe := c.rw.Pipeline()
	pipe.LPush(ctx, activityKey, raw)
	pipe.LTrim(ctx, activityKey, 0, activityCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Error().Err(err).Str("action", action).Msg("activity log write failed")
	}
}

// RecentActivity returns the capped activity list from the replica in stored
// order (newest first, because writes push to the front). Entries that fail
// to decode are skipped.
func (c *Cache) RecentActivity(ctx context.Context) ([]ActivityEntry, error) {
	raw, err := c.ro.LRange(ctx, activityKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]ActivityEntry, 0, len(raw))
	for _, r := range raw {
		var e ActivityEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			log.Warn().Err(err).Msg("skipping undecodable activity entry")
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// StoreSession mirrors a login session under session:<username> with the
// fixed 1-hour expiry. Best-effort.
func (c *Cache) StoreSession(ctx context.Context, userID uint, username string) {
	rec := SessionRecord{
		UserID:    userID,
		Username:  username,
		LoginTime: time.Now().UTC().Format(time.RFC3339Nano),
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("session mirror marshal failed")
		return
	}
	if err := c.rw.Set(ctx, sessionPrefix+username, raw, sessionTTL).Err(); err != nil {
		log.Error().Err(err).Str("username", username).Msg("session mirror write failed")
	}
}

// DeleteSession removes the mirrored session entry. Best-effort.
func (c *Cache) DeleteSession(ctx context.Context, username string) {
	if err := c.rw.Del(ctx, sessionPrefix+username).Err(); err != nil {
		log.Error().Err(err).Str("username", username).Msg("session mirror delete failed")
	}
}
