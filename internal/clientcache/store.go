package clientcache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryStore guarda snapshots em memória (testes e fallback sem Redis).
type MemoryStore struct {
	mu    sync.Mutex
	snaps map[string]*Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]*Snapshot)}
}

func (m *MemoryStore) Load(_ context.Context, deviceID string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snaps[deviceID]
	if !ok {
		return nil, nil
	}
	cp := *s
	cp.Pending = append([]Op(nil), s.Pending...)
	return &cp, nil
}

func (m *MemoryStore) Save(_ context.Context, deviceID string, s *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.Pending = append([]Op(nil), s.Pending...)
	m.snaps[deviceID] = &cp
	return nil
}

// RedisStore persiste o snapshot do dispositivo no Redis com TTL.
// O estado sobrevive a recarregamentos de página; expirar é inofensivo
// porque o ledger continua sendo a verdade.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisStore(c *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{Client: c, TTL: ttl}
}

func key(deviceID string) string { return "clientcache:device:" + deviceID }

func (r *RedisStore) Load(ctx context.Context, deviceID string) (*Snapshot, error) {
	raw, err := r.Client.Get(ctx, key(deviceID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, deviceID string, s *Snapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key(deviceID), b, r.TTL).Err()
}
