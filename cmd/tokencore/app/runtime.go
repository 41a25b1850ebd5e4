// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/stacklok/toolhive-core/env"

	"github.com/stacklok/tokencore/pkg/config"
	"github.com/stacklok/tokencore/pkg/dpop"
	"github.com/stacklok/tokencore/pkg/grants"
	"github.com/stacklok/tokencore/pkg/keys"
	"github.com/stacklok/tokencore/pkg/lock"
	"github.com/stacklok/tokencore/pkg/logger"
	"github.com/stacklok/tokencore/pkg/par"
	"github.com/stacklok/tokencore/pkg/replay"
	"github.com/stacklok/tokencore/pkg/storage"
	"github.com/stacklok/tokencore/pkg/storage/sqlite"
	"github.com/stacklok/tokencore/pkg/telemetry"
)

const (
	signingKeyPurpose = "signing-keys"
	keyLockFile       = ".keys.lock"

	telemetryShutdownTimeout = 5 * time.Second
)

// runtime holds the stores and services built from one configuration.
type runtime struct {
	cfg *config.Config
	env env.Reader

	keyStore    storage.SigningKeyStore
	parStore    storage.PushedAuthorizationRequestStore
	grantStore  storage.PersistedGrantStore
	deviceStore storage.DeviceFlowStore
	redis       redis.UniversalClient
	keyLock     lock.Lock[keys.KeyGeneration]
	telemetry   *telemetry.Provider

	closers []func() error
}

// loadConfig reads the file named by the --config flag.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetString("config"))
}

// newRuntime opens the configured storage backend.
func newRuntime(ctx context.Context, cfg *config.Config, envReader env.Reader) (*runtime, error) {
	rt := &runtime{
		cfg:     cfg,
		env:     envReader,
		keyLock: lock.NewSemaphoreLock[keys.KeyGeneration](),
	}

	tp, err := telemetry.NewProvider(ctx, cfg.Telemetry)
	if err != nil {
		return nil, err
	}
	rt.telemetry = tp
	// first in, so it is closed last and sees every store operation
	rt.closers = append(rt.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		return tp.Shutdown(ctx)
	})

	switch cfg.Storage.Type {
	case storage.TypeMemory:
		s := storage.NewMemoryStorage()
		rt.closers = append(rt.closers, s.Close)
		rt.keyStore, rt.parStore, rt.grantStore, rt.deviceStore = s, s, s, s

	case storage.TypeRedis:
		client, err := storage.NewRedisClient(ctx, *cfg.Storage.Redis)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		s := storage.NewRedisStorageWithClient(client, cfg.Storage.Redis.KeyPrefix)
		rt.closers = append(rt.closers, s.Close)
		rt.redis = client
		rt.keyStore, rt.parStore = s, s
		// instances sharing the server take turns generating keys
		rt.keyLock = lock.NewRedisLock[keys.KeyGeneration](client,
			storage.RedisKey(cfg.Storage.Redis.KeyPrefix, storage.KeyTypeKeyLock, ""))

	case storage.TypeSQLite:
		s, err := sqlite.NewStoreFromPath(ctx, cfg.Storage.SQLite.Path)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		rt.closers = append(rt.closers, s.Close)
		rt.keyStore, rt.grantStore, rt.deviceStore = s, s, s

	case storage.TypeFile:
		s, err := storage.NewFileKeyStore(cfg.Storage.File.KeyDirectory)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to open key directory: %w", err)
		}
		rt.keyStore = s
		// instances sharing the directory take turns generating keys
		rt.keyLock = lock.NewFileLock[keys.KeyGeneration](filepath.Join(s.Dir(), keyLockFile))

	default:
		_ = rt.Close()
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Storage.Type)
	}

	logger.Debugw("opened storage", "type", string(cfg.Storage.Type))
	return rt, nil
}

// Close releases every opened backend.
func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (rt *runtime) keyManager() (*keys.Manager, error) {
	protector, err := rt.cfg.Protector(rt.env, signingKeyPurpose)
	if err != nil {
		return nil, err
	}
	return keys.NewManager(rt.cfg.KeysOptions(), rt.keyStore,
		keys.WithLock(rt.keyLock),
		keys.WithSerializer(keys.NewSerializer(protector)),
		keys.WithMeterProvider(rt.telemetry.MeterProvider()),
		keys.WithTracerProvider(rt.telemetry.TracerProvider()))
}

func (rt *runtime) replayCache() replay.Cache {
	if rt.redis != nil {
		return replay.NewRedisCache(rt.redis, rt.cfg.Storage.Redis.KeyPrefix, nil)
	}
	return replay.NewMemoryCache()
}

// nonceIssuer returns nil when no data protection key is configured.
func (rt *runtime) nonceIssuer() (*dpop.NonceIssuer, error) {
	ks, err := rt.cfg.ProtectionKeys(rt.env)
	if err != nil {
		return nil, err
	}
	if len(ks) == 0 {
		return nil, nil
	}
	return dpop.NewNonceIssuerFromKeys(nil, rt.cfg.DPoPOptions(), ks...)
}

func (rt *runtime) validator() (*dpop.Validator, error) {
	opts := []dpop.Option{
		dpop.WithMeterProvider(rt.telemetry.MeterProvider()),
		dpop.WithTracerProvider(rt.telemetry.TracerProvider()),
	}
	issuer, err := rt.nonceIssuer()
	if err != nil {
		return nil, err
	}
	if issuer != nil {
		opts = append(opts, dpop.WithNonceIssuer(issuer))
	}
	return dpop.New(rt.cfg.DPoPOptions(), rt.replayCache(), opts...)
}

func (rt *runtime) parService() (*par.Service, error) {
	if rt.parStore == nil {
		return nil, fmt.Errorf("storage type %q does not keep pushed authorization requests", rt.cfg.Storage.Type)
	}
	return par.NewService(rt.parStore, par.WithDefaultLifetime(time.Duration(rt.cfg.PAR.DefaultLifetime)))
}

func (rt *runtime) grantService() (*grants.Service, error) {
	if rt.grantStore == nil {
		return nil, fmt.Errorf("storage type %q does not keep grants", rt.cfg.Storage.Type)
	}
	return grants.NewService(rt.grantStore)
}

func (rt *runtime) cleanup() (*grants.Cleanup, error) {
	if rt.grantStore == nil {
		return nil, fmt.Errorf("storage type %q does not keep grants", rt.cfg.Storage.Type)
	}
	opts := []grants.CleanupOption{
		grants.WithCleanupMeterProvider(rt.telemetry.MeterProvider()),
	}
	if rt.deviceStore != nil {
		opts = append(opts, grants.WithDeviceFlowStore(rt.deviceStore))
	}
	return grants.NewCleanup(rt.grantStore, rt.cfg.CleanupOptions(), opts...)
}
