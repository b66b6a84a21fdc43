package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/lingora/lingora/internal/config"
	"github.com/lingora/lingora/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Store implements the storage.Store interface using Redis
type Store struct {
	client   *redis.Client
	counters *counterStore
	flags    *flagStore
	timers   *timerStore
}

// Open creates a new Redis-backed storage instance
func Open(cfg config.RedisConfig) (*Store, error) {
	dialTimeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid dial_timeout: %w", err)
	}

	readTimeout, err := time.ParseDuration(cfg.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid read_timeout: %w", err)
	}

	writeTimeout, err := time.ParseDuration(cfg.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid write_timeout: %w", err)
	}

	addr := cfg.Host
	if cfg.Port > 0 {
		addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	store := &Store{
		client:   client,
		counters: &counterStore{client: client},
		flags:    &flagStore{client: client},
		timers:   &timerStore{client: client},
	}

	return store, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Client exposes the underlying connection for pub/sub use.
func (s *Store) Client() *redis.Client {
	return s.client
}

// Counters returns the CounterStore implementation
func (s *Store) Counters() storage.CounterStore {
	return s.counters
}

// Flags returns the FlagStore implementation
func (s *Store) Flags() storage.FlagStore {
	return s.flags
}

// Timers returns the TimerStore implementation
func (s *Store) Timers() storage.TimerStore {
	return s.timers
}

func counterKey(key storage.Key) string {
	return fmt.Sprintf("lingora:counter:%s", key.Encode())
}

func flagKey(key storage.Key) string {
	return fmt.Sprintf("lingora:flag:%s", key.Encode())
}

func timerKey(key storage.Key) string {
	return fmt.Sprintf("lingora:timer:%s", key.Encode())
}
