package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/grantflow/backend/internal/domain/shared"
	"github.com/grantflow/backend/internal/infrastructure/config"
)

// NewIdempotencyStore creates an idempotency store from configuration.
// The backend is selected by cfg.Idempotency.Backend ("redis" or "memory");
// an unreachable Redis falls back to the in-memory store outside production.
func NewIdempotencyStore(cfg *config.Config, logger *zap.Logger) (shared.IdempotencyStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Idempotency.Backend {
	case "memory":
		logger.Info("using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil

	case "redis":
		store, err := NewRedisIdempotencyStore(RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err == nil {
			logger.Info("using Redis idempotency store")
			return store, nil
		}
		if cfg.App.Env == "production" {
			return nil, fmt.Errorf("redis required for settlement idempotency but unavailable: %w", err)
		}
		logger.Warn("Redis unavailable, falling back to in-memory idempotency store. "+
			"Duplicate settlements are not detected across instances.",
			zap.Error(err),
		)
		return NewInMemoryIdempotencyStore(), nil

	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", cfg.Idempotency.Backend)
	}
}
