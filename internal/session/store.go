package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/quickquiz-console/internal/config"
	"github.com/stemsi/quickquiz-console/internal/model"
)

// Record is the persisted login: the bearer token and the user it belongs to.
type Record struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
	// ExpiresAt mirrors the token's exp claim; zero means no expiry.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Store persists a single Record across console runs.
type Store interface {
	// Load returns the stored record. ok is false when nothing is stored.
	Load(ctx context.Context) (rec Record, ok bool, err error)
	Save(ctx context.Context, rec Record) error
	Clear(ctx context.Context) error
}

// FileStore keeps the record in a JSON file readable only by the owner.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context) (Record, bool, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("read session file: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, false, fmt.Errorf("decode session file: %w", err)
	}
	if rec.Token == "" {
		return Record{}, false, nil
	}
	return rec, true, nil
}

func (s *FileStore) Save(_ context.Context, rec Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// RedisStore keeps the record in Redis so a shared lab machine profile can be
// reused from several terminals. Keys expire together with the token.
type RedisStore struct {
	rdb       *redis.Client
	namespace string
	now       func() time.Time
}

// NewRedisStore creates a RedisStore scoped to namespace.
func NewRedisStore(rdb *redis.Client, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "default"
	}
	return &RedisStore{rdb: rdb, namespace: namespace, now: time.Now}
}

// DialRedisStore connects to redisURL, checks the connection, and returns a
// store plus the client so the caller can close it.
func DialRedisStore(ctx context.Context, redisURL, namespace string, log zerolog.Logger) (*RedisStore, *redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Debug().Str("addr", opt.Addr).Int("db", opt.DB).Str("namespace", namespace).Msg("Session store connected to Redis")
	return NewRedisStore(rdb, namespace), rdb, nil
}

func (s *RedisStore) Load(ctx context.Context) (Record, bool, error) {
	tokenKey := config.CacheKey.SessionTokenKey(s.namespace)
	userKey := config.CacheKey.SessionUserKey(s.namespace)

	vals, err := s.rdb.MGet(ctx, tokenKey, userKey).Result()
	if err != nil {
		return Record{}, false, fmt.Errorf("load session: %w", err)
	}
	token, _ := vals[0].(string)
	userRaw, _ := vals[1].(string)
	if token == "" {
		return Record{}, false, nil
	}

	rec := Record{Token: token}
	if userRaw != "" {
		if err := json.Unmarshal([]byte(userRaw), &rec.User); err != nil {
			return Record{}, false, fmt.Errorf("decode session user: %w", err)
		}
	}
	if exp, ok, err := TokenExpiry(token); err == nil && ok {
		rec.ExpiresAt = exp
	}
	return rec, true, nil
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	userRaw, err := json.Marshal(rec.User)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}

	var ttl time.Duration
	if !rec.ExpiresAt.IsZero() {
		ttl = rec.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return s.Clear(ctx)
		}
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.SessionTokenKey(s.namespace), rec.Token, ttl)
	pipe.Set(ctx, config.CacheKey.SessionUserKey(s.namespace), userRaw, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	err := s.rdb.Del(ctx,
		config.CacheKey.SessionTokenKey(s.namespace),
		config.CacheKey.SessionUserKey(s.namespace),
	).Err()
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
