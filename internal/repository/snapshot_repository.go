package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Redis key 前缀
const snapshotKeyPrefix = "eval-console:"

// ========== Redis ==========

// RedisSnapshotStore 基于 Redis 的快照存储
type RedisSnapshotStore struct {
	client *redis.Client
	prefix string
}

// NewRedisSnapshotStore 创建 Redis 快照存储
func NewRedisSnapshotStore(client *redis.Client) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, prefix: snapshotKeyPrefix}
}

// Load 读取快照
func (s *RedisSnapshotStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	return data, true, nil
}

// Save 写入快照，不设置过期时间
func (s *RedisSnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}
	return nil
}

// ========== 本地文件 ==========

// FileSnapshotStore 每个 key 一个 JSON 文件
type FileSnapshotStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileSnapshotStore 创建文件快照存储
func NewFileSnapshotStore(dir string) (*FileSnapshotStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &FileSnapshotStore{dir: dir}, nil
}

func (s *FileSnapshotStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Load 读取快照
func (s *FileSnapshotStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	return data, true, nil
}

// Save 先写临时文件再重命名
func (s *FileSnapshotStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}
	return nil
}

// ========== 内存 ==========

// MemorySnapshotStore 进程内快照存储
type MemorySnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemorySnapshotStore 创建内存快照存储
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{data: make(map[string][]byte)}
}

// Load 读取快照
func (s *MemorySnapshotStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Save 写入快照
func (s *MemorySnapshotStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), data...)
	return nil
}
