// Package storage holds the redis-backed presence and typing state the
// gateway writes through. Registry state stays authoritative for live
// fan-out; these keys exist so REST reads and future push consumers can
// see presence without a socket.
package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int

	OnlineTTL time.Duration // presence key validity (renewed per connect)
	TypingTTL time.Duration // typing flag validity
}

func (c *Config) norm() {
	if c.OnlineTTL <= 0 {
		c.OnlineTTL = 2 * time.Hour
	}
	if c.TypingTTL <= 0 {
		c.TypingTTL = 8 * time.Second
	}
}

type Store struct {
	rdb  *redis.Client
	conf Config
}

func New(conf Config) (*Store, error) {
	conf.norm()
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
		PoolSize: conf.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Store{rdb: rdb, conf: conf}, nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
