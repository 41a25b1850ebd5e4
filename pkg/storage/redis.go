// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"k8s.io/utils/clock"
)

// Default timeouts for Redis operations.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second
)

// minPARTTL keeps already-expired requests addressable long enough for the
// service to report them as not found instead of racing Redis expiry.
const minPARTTL = time.Second

// Key types for the Redis key layout "<prefix><type>:<id>".
const (
	KeyTypeSigningKeys = "signing_keys"
	KeyTypePAR         = "par"
	KeyTypeReplay      = "dpop_replay"
	KeyTypeKeyLock     = "signing_keys_lock"
)

// RedisConfig holds Redis connection configuration for runtime use.
type RedisConfig struct {
	// SentinelConfig is required - Sentinel-only deployment.
	SentinelConfig *SentinelConfig `yaml:"sentinel"`

	// ACLUserConfig is required - ACL user authentication only.
	ACLUserConfig *ACLUserConfig `yaml:"acl_user"`

	// KeyPrefix for multi-tenancy, e.g. "tokencore:{tenant}:".
	KeyPrefix string `yaml:"key_prefix"`

	// Timeouts (defaults: Dial=5s, Read=3s, Write=3s).
	DialTimeout  time.Duration `yaml:"-"`
	ReadTimeout  time.Duration `yaml:"-"`
	WriteTimeout time.Duration `yaml:"-"`
}

// SentinelConfig contains Redis Sentinel configuration.
type SentinelConfig struct {
	MasterName    string   `yaml:"master_name"`
	SentinelAddrs []string `yaml:"addrs"`
	DB            int      `yaml:"db"`
}

// ACLUserConfig contains Redis ACL user authentication configuration.
type ACLUserConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// RedisKey builds a namespaced Redis key.
func RedisKey(prefix, keyType, id string) string {
	if id == "" {
		return prefix + keyType
	}
	return prefix + keyType + ":" + id
}

// NewRedisClient validates cfg and returns a connected Sentinel failover client.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (redis.UniversalClient, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid redis configuration: %w", err)
	}

	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	client := redis.NewFailoverClient(&redis.FailoverOptions{
		MasterName:    cfg.SentinelConfig.MasterName,
		SentinelAddrs: cfg.SentinelConfig.SentinelAddrs,
		DB:            cfg.SentinelConfig.DB,
		Username:      cfg.ACLUserConfig.Username,
		Password:      cfg.ACLUserConfig.Password,
		DialTimeout:   cfg.DialTimeout,
		ReadTimeout:   cfg.ReadTimeout,
		WriteTimeout:  cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func validateConfig(cfg *RedisConfig) error {
	if cfg.SentinelConfig == nil {
		return errors.New("sentinel configuration is required")
	}
	if cfg.SentinelConfig.MasterName == "" {
		return errors.New("sentinel master name is required")
	}
	if len(cfg.SentinelConfig.SentinelAddrs) == 0 {
		return errors.New("at least one sentinel address is required")
	}
	if cfg.ACLUserConfig == nil {
		return errors.New("ACL user configuration is required")
	}
	if cfg.KeyPrefix == "" {
		return errors.New("key prefix is required")
	}
	return nil
}

// RedisStorage stores signing keys and pushed authorization requests in
// Redis so that several instances share them.
type RedisStorage struct {
	client    redis.UniversalClient
	keyPrefix string
	clock     clock.PassiveClock
}

var (
	_ SigningKeyStore                 = (*RedisStorage)(nil)
	_ PushedAuthorizationRequestStore = (*RedisStorage)(nil)
)

// NewRedisStorage creates Redis-backed storage with Sentinel failover support.
func NewRedisStorage(ctx context.Context, cfg RedisConfig) (*RedisStorage, error) {
	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisStorageWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisStorageWithClient creates a RedisStorage with a pre-configured client.
// This is useful for testing with miniredis.
func NewRedisStorageWithClient(client redis.UniversalClient, keyPrefix string) *RedisStorage {
	return &RedisStorage{
		client:    client,
		keyPrefix: keyPrefix,
		clock:     clock.RealClock{},
	}
}

// WithRedisClock replaces the clock used to compute request TTLs.
func (s *RedisStorage) WithRedisClock(c clock.PassiveClock) *RedisStorage {
	s.clock = c
	return s
}

// Close closes the Redis client connection.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}

// Ping checks Redis connectivity (health check).
func (s *RedisStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// -----------------------
// SigningKeyStore
// -----------------------

// All keys live in one hash so LoadKeys is a single round trip.

// LoadKeys returns every stored key.
func (s *RedisStorage) LoadKeys(ctx context.Context) ([]SerializedKey, error) {
	raw, err := s.client.HGetAll(ctx, RedisKey(s.keyPrefix, KeyTypeSigningKeys, "")).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load signing keys: %w", err)
	}
	keys := make([]SerializedKey, 0, len(raw))
	for id, data := range raw {
		var key SerializedKey
		if err := json.Unmarshal([]byte(data), &key); err != nil {
			return nil, fmt.Errorf("failed to unmarshal signing key %s: %w", id, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// StoreKey persists a key, overwriting any key with the same ID.
func (s *RedisStorage) StoreKey(ctx context.Context, key SerializedKey) error {
	if key.ID == "" {
		return errors.New("key id is required")
	}
	data, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("failed to marshal signing key: %w", err)
	}
	if err := s.client.HSet(ctx, RedisKey(s.keyPrefix, KeyTypeSigningKeys, ""), key.ID, data).Err(); err != nil {
		return fmt.Errorf("failed to store signing key: %w", err)
	}
	return nil
}

// DeleteKey removes a key.
func (s *RedisStorage) DeleteKey(ctx context.Context, id string) error {
	if err := s.client.HDel(ctx, RedisKey(s.keyPrefix, KeyTypeSigningKeys, ""), id).Err(); err != nil {
		return fmt.Errorf("failed to delete signing key: %w", err)
	}
	return nil
}

// -----------------------
// PushedAuthorizationRequestStore
// -----------------------

type storedPAR struct {
	ReferenceValueHash string              `json:"reference_value_hash"`
	ExpiresAtUTC       time.Time           `json:"expires_at"`
	Parameters         map[string][]string `json:"parameters"`
}

// StorePushedAuthorizationRequest stores a request with a Redis TTL matching
// its expiry.
func (s *RedisStorage) StorePushedAuthorizationRequest(ctx context.Context, req *PushedAuthorizationRequest) error {
	if req == nil || req.ReferenceValueHash == "" {
		return errors.New("pushed authorization request with reference hash is required")
	}
	data, err := json.Marshal(storedPAR{
		ReferenceValueHash: req.ReferenceValueHash,
		ExpiresAtUTC:       req.ExpiresAtUTC.UTC(),
		Parameters:         req.Parameters,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal pushed authorization request: %w", err)
	}

	ttl := req.ExpiresAtUTC.Sub(s.clock.Now())
	if ttl < minPARTTL {
		ttl = minPARTTL
	}

	key := RedisKey(s.keyPrefix, KeyTypePAR, req.ReferenceValueHash)
	ok, err := s.client.SetNX(ctx, key, data, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store pushed authorization request: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: pushed authorization request", ErrAlreadyExists)
	}
	return nil
}

// GetPushedAuthorizationRequest returns the stored request.
func (s *RedisStorage) GetPushedAuthorizationRequest(
	ctx context.Context, referenceValueHash string,
) (*PushedAuthorizationRequest, error) {
	data, err := s.client.Get(ctx, RedisKey(s.keyPrefix, KeyTypePAR, referenceValueHash)).Bytes()
	return decodePAR(data, err)
}

// ConsumePushedAuthorizationRequest returns and removes the stored request with GETDEL.
func (s *RedisStorage) ConsumePushedAuthorizationRequest(
	ctx context.Context, referenceValueHash string,
) (*PushedAuthorizationRequest, error) {
	data, err := s.client.GetDel(ctx, RedisKey(s.keyPrefix, KeyTypePAR, referenceValueHash)).Bytes()
	return decodePAR(data, err)
}

func decodePAR(data []byte, err error) (*PushedAuthorizationRequest, error) {
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: pushed authorization request", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pushed authorization request: %w", err)
	}
	var stored storedPAR
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pushed authorization request: %w", err)
	}
	params := url.Values(stored.Parameters)
	if params == nil {
		params = url.Values{}
	}
	return &PushedAuthorizationRequest{
		ReferenceValueHash: stored.ReferenceValueHash,
		ExpiresAtUTC:       stored.ExpiresAtUTC,
		Parameters:         params,
	}, nil
}
