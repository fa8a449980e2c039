package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/enedis-gateway/internal/errors"
	"github.com/jrsteele09/enedis-gateway/sessions"
	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "enedis-gateway:session:"

var _ sessions.Store = (*Store)(nil)

// Store keeps sessions in Redis, one JSON value per key with the session TTL.
type Store struct {
	client *redis.Client
}

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Connect parses a redis:// URL and checks the server is reachable.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("[redisstore Connect] invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("[redisstore Connect] ping failed: %w", err)
	}
	return client, nil
}

func (s *Store) Save(ctx context.Context, sessionID string, session sessions.Session, ttl time.Duration) error {
	if sessionID == "" {
		return errors.New("session id cannot be empty")
	}
	b, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("[redisstore Save] %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+sessionID, b, ttl).Err(); err != nil {
		return fmt.Errorf("[redisstore Save] %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, sessionID string) (*sessions.Session, error) {
	b, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	return decode(b, err)
}

// Take uses GETDEL so two concurrent callbacks cannot both consume the state.
func (s *Store) Take(ctx context.Context, sessionID string) (*sessions.Session, error) {
	b, err := s.client.GetDel(ctx, keyPrefix+sessionID).Bytes()
	return decode(b, err)
}

func decode(b []byte, err error) (*sessions.Session, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("[redisstore] %w", err)
	}
	var session sessions.Session
	if err := json.Unmarshal(b, &session); err != nil {
		return nil, fmt.Errorf("[redisstore] corrupt session: %w", err)
	}
	return &session, nil
}
