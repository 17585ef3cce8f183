package utils

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
)

// KVStore is the key-value surface the session store needs. Redis backs it in
// production, MemoryKV in tests and when Redis is disabled.
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
}

// SessionStore keeps encrypted Telegram session blobs keyed by account id.
// Values in the underlying KV are always ciphertext; plaintext only exists in
// the caller's hands.
type SessionStore struct {
	kv KVStore
}

func NewSessionStore(kv KVStore) *SessionStore {
	return &SessionStore{kv: kv}
}

func sessionKey(accountID uint) string {
	return fmt.Sprintf("session:%d", accountID)
}

// Set encrypts the plaintext session blob and writes it under the account's
// key.
func (s *SessionStore) Set(ctx context.Context, accountID uint, session string) error {
	encrypted, err := Encrypt(session)
	if err != nil {
		return err
	}
	return s.kv.Put(ctx, sessionKey(accountID), encrypted)
}

// Get reads and decrypts the account's session blob. An absent key returns
// ("", nil); a decryption failure is an error, never a silent miss.
func (s *SessionStore) Get(ctx context.Context, accountID uint) (string, error) {
	encrypted, ok, err := s.kv.Get(ctx, sessionKey(accountID))
	if err != nil || !ok {
		return "", err
	}
	return Decrypt(encrypted)
}

// RedisKV adapts a redis client to KVStore.
type RedisKV struct {
	Client *redis.Client
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisKV) Put(ctx context.Context, key, value string) error {
	return r.Client.Set(ctx, key, value, 0).Err()
}

// MemoryKV is a process-local KVStore.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.data[key]
	return val, ok, nil
}

func (m *MemoryKV) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}
