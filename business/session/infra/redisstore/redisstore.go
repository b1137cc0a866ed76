// Package redisstore persists preferences in Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	chain "github.com/fd1az/wallet-dashboard/business/chain/domain"
	"github.com/fd1az/wallet-dashboard/business/session/app"
	"github.com/fd1az/wallet-dashboard/business/session/domain"
	"github.com/fd1az/wallet-dashboard/internal/apperror"
)

// fieldSelectedChain is the hash field under the session namespace key.
const fieldSelectedChain = "selectedChain"

// sessionKey returns the hash holding the persisted session record.
//
// Format: "{prefix}:wallet-storage"
func sessionKey(prefix string) string {
	return fmt.Sprintf("%s:%s", prefix, app.Namespace)
}

// themeKey returns the string key holding the theme.
//
// Format: "{prefix}:theme"
func themeKey(prefix string) string {
	return fmt.Sprintf("%s:theme", prefix)
}

// Options configures the connection.
type Options struct {
	Addr      string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
}

// Store implements app.PreferenceStore using a Redis hash and string key.
type Store struct {
	conn   *redis.Client
	prefix string
}

var _ app.PreferenceStore = (*Store)(nil)

// New connects and pings the server.
func New(ctx context.Context, opts Options) (*Store, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := conn.Ping(ctx).Err(); err != nil {
		_ = conn.Close()
		return nil, apperror.New(apperror.CodePreferencesLoadFailed,
			apperror.WithCause(err),
			apperror.WithContext("redis ping "+opts.Addr))
	}

	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "walletdash"
	}

	return &Store{conn: conn, prefix: prefix}, nil
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Ping reports whether the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx).Err()
}

func (s *Store) LoadChain(ctx context.Context) (chain.Chain, error) {
	v, err := s.conn.HGet(ctx, sessionKey(s.prefix), fieldSelectedChain).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", apperror.New(apperror.CodePreferencesLoadFailed, apperror.WithCause(err))
	}
	return chain.Chain(v), nil
}

func (s *Store) SaveChain(ctx context.Context, c chain.Chain) error {
	if err := s.conn.HSet(ctx, sessionKey(s.prefix), fieldSelectedChain, string(c)).Err(); err != nil {
		return apperror.New(apperror.CodePreferencesSaveFailed, apperror.WithCause(err))
	}
	return nil
}

func (s *Store) LoadTheme(ctx context.Context) (domain.Theme, error) {
	v, err := s.conn.Get(ctx, themeKey(s.prefix)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", apperror.New(apperror.CodePreferencesLoadFailed, apperror.WithCause(err))
	}
	return domain.Theme(v), nil
}

func (s *Store) SaveTheme(ctx context.Context, t domain.Theme) error {
	if err := s.conn.Set(ctx, themeKey(s.prefix), string(t), 0).Err(); err != nil {
		return apperror.New(apperror.CodePreferencesSaveFailed, apperror.WithCause(err))
	}
	return nil
}
