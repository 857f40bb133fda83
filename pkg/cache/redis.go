package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/backsoul/quizdeck/pkg/models"
)

// RedisStore caché compartida entre réplicas sobre Redis
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// RedisOptions conexión y espacio de claves
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStore conecta con Redis, verifica la conexión y vacía el espacio de
// claves del prefijo: ninguna entrada sobrevive al proceso que la creó.
func NewRedisStore(ctx context.Context, opts RedisOptions, logger *zap.Logger) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("error conectando a Redis en %s: %w", opts.Addr, err)
	}

	store := &RedisStore{
		client: rdb,
		prefix: opts.Prefix,
		logger: logger.Named("redis"),
	}

	if err := store.Purge(ctx); err != nil {
		rdb.Close()
		return nil, err
	}

	store.logger.Info("✅ Conexión exitosa a Redis", zap.String("addr", opts.Addr))
	return store, nil
}

func (r *RedisStore) key(key string) string {
	return r.prefix + "cache:" + key
}

// Get obtiene un quiz; una clave expirada o ausente es un fallo de caché
func (r *RedisStore) Get(ctx context.Context, key string) (models.Quiz, bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Quiz{}, false, nil
	}
	if err != nil {
		return models.Quiz{}, false, fmt.Errorf("error obteniendo %s: %w", key, err)
	}

	var quiz models.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		return models.Quiz{}, false, fmt.Errorf("error parseando %s: %w", key, err)
	}
	return quiz, true, nil
}

// Set guarda el quiz serializado con expiración
func (r *RedisStore) Set(ctx context.Context, key string, quiz models.Quiz, ttl time.Duration) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("error serializando %s: %w", key, err)
	}
	if err := r.client.Set(ctx, r.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("error guardando %s: %w", key, err)
	}
	return nil
}

// Purge elimina todas las claves del prefijo
func (r *RedisStore) Purge(ctx context.Context) error {
	var cursor uint64
	pattern := r.prefix + "cache:*"
	removed := 0

	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("error recorriendo claves %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("error eliminando claves: %w", err)
			}
			removed += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if removed > 0 {
		r.logger.Debug("caché vaciada", zap.Int("keys", removed))
	}
	return nil
}

// HealthCheck verifica que Redis esté funcionando
func (r *RedisStore) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Close cierra la conexión con Redis
func (r *RedisStore) Close() error {
	return r.client.Close()
}
