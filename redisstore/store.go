// Package redisstore keeps session payloads in redis.
//
// Payloads are stored base64 encoded under prefix+id with a TTL of
// maxLifetime seconds. Every write also records its time in a sorted set
// so GC can remove sessions by age before redis expires them.
package redisstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kycklingar/dbsession/session"
	"github.com/redis/go-redis/v9"
)

var _ session.Handler = (*Store)(nil)

var ErrNoClient = errors.New("redisstore: no redis client")

// Used when the configured lifetime is not positive
const defaultLifetime = 1440

// KEYS[1] activity index, ARGV[1] cutoff, ARGV[2] key prefix
var gcScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
for _, id in ipairs(ids) do
	redis.call('DEL', ARGV[2] .. id)
end
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
return #ids
`)

type Config struct {
	Addr     string `json:"addr" mapstructure:"addr"`
	Password string `json:"password" mapstructure:"password"`
	DB       int    `json:"db" mapstructure:"db"`
	Prefix   string `json:"prefix" mapstructure:"prefix"`
}

func (c *Config) Default() {
	c.Addr = "localhost:6379"
	c.Prefix = "session:"
}

type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration

	// Now is the clock recorded in the activity index
	Now func() time.Time
}

func Dial(cfg Config, maxLifetime int) *Store {
	return New(
		redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		cfg.Prefix,
		maxLifetime,
	)
}

// New returns a Store over client. A non-positive maxLifetime falls back
// to 1440 seconds, keys never live forever.
func New(client *redis.Client, prefix string, maxLifetime int) *Store {
	if maxLifetime <= 0 {
		maxLifetime = defaultLifetime
	}

	return &Store{
		client: client,
		prefix: prefix,
		ttl:    time.Duration(maxLifetime) * time.Second,
		Now:    time.Now,
	}
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

// index is the sorted set of session ids scored by last write
func (s *Store) index() string {
	return s.prefix + "~index"
}

func (s *Store) Open() error {
	if s == nil || s.client == nil {
		return ErrNoClient
	}

	return nil
}

func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return ErrNoClient
	}

	return s.client.Close()
}

func (s *Store) Read(id string) ([]byte, error) {
	if s == nil || s.client == nil {
		return []byte{}, ErrNoClient
	}

	encoded, err := s.client.Get(context.Background(), s.key(id)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return []byte{}, nil
	case err != nil:
		return []byte{}, err
	}

	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return []byte{}, fmt.Errorf("redisstore: corrupt payload for session: %w", err)
	}

	return payload, nil
}

func (s *Store) Write(id string, payload []byte) error {
	if s == nil || s.client == nil {
		return ErrNoClient
	}

	ctx := context.Background()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(id), base64.StdEncoding.EncodeToString(payload), s.ttl)
		pipe.ZAdd(ctx, s.index(), redis.Z{
			Score:  float64(s.Now().Unix()),
			Member: id,
		})
		return nil
	})

	return err
}

func (s *Store) Destroy(id string) error {
	if s == nil || s.client == nil {
		return ErrNoClient
	}

	ctx := context.Background()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(id))
		pipe.ZRem(ctx, s.index(), id)
		return nil
	})

	return err
}

// GC removes every session last written maxLifetime seconds ago or earlier
func (s *Store) GC(maxLifetime int) error {
	if s == nil || s.client == nil {
		return ErrNoClient
	}

	old := s.Now().Unix() - int64(maxLifetime)

	return gcScript.Run(
		context.Background(),
		s.client,
		[]string{s.index()},
		strconv.FormatInt(old, 10),
		s.prefix,
	).Err()
}
