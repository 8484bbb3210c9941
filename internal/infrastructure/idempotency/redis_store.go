package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrInProgress otra petición con la misma clave aún no terminó.
var ErrInProgress = errors.New("idempotency: petición en curso")

const (
	keyPrefix    = "idem:orders:"
	pendingValue = "__pending__"
)

// Response respuesta guardada para repetir ante la misma clave.
type Response struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// RedisStore guarda Idempotency-Key -> respuesta con TTL. La clave se reclama con SETNX;
// mientras la primera petición no termina, el valor es un marcador pendiente.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore construye el store. ttl <= 0 usa 24h.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Claim reclama la clave. Devuelve (nil, nil) si la petición debe ejecutarse, la respuesta
// guardada si ya se ejecutó, o ErrInProgress si otra la está ejecutando.
func (s *RedisStore) Claim(ctx context.Context, scope, key string) (*Response, error) {
	k := redisKey(scope, key)
	ok, err := s.rdb.SetNX(ctx, k, pendingValue, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("idempotency: reclamar clave: %w", err)
	}
	if ok {
		return nil, nil
	}
	raw, err := s.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expiró entre SETNX y GET: reintentar una vez
		return s.Claim(ctx, scope, key)
	}
	if err != nil {
		return nil, fmt.Errorf("idempotency: leer clave: %w", err)
	}
	if raw == pendingValue {
		return nil, ErrInProgress
	}
	var resp Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("idempotency: respuesta corrupta: %w", err)
	}
	return &resp, nil
}

// Save guarda la respuesta final con el TTL completo.
func (s *RedisStore) Save(ctx context.Context, scope, key string, resp Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("idempotency: serializar respuesta: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKey(scope, key), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency: guardar respuesta: %w", err)
	}
	return nil
}

// Release libera una clave reclamada cuya petición falló, para permitir el reintento.
func (s *RedisStore) Release(ctx context.Context, scope, key string) error {
	if err := s.rdb.Del(ctx, redisKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("idempotency: liberar clave: %w", err)
	}
	return nil
}

func redisKey(scope, key string) string {
	return keyPrefix + scope + ":" + key
}
