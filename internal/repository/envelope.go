package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrSnapshotVersion 快照版本高于当前支持的版本
var ErrSnapshotVersion = errors.New("unsupported snapshot version")

// envelope 快照外层结构 {"state": ..., "version": n}
type envelope struct {
	State   json.RawMessage `json:"state"`
	Version int             `json:"version"`
}

// LoadState 读取快照并解码 state，不存在时返回 false
// 版本高于 maxVersion 时返回 ErrSnapshotVersion；未知字段被忽略
func LoadState(ctx context.Context, store SnapshotStore, key string, maxVersion int, state interface{}) (bool, error) {
	data, ok, err := store.Load(ctx, key)
	if err != nil {
		return false, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return false, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	if env.Version > maxVersion {
		return false, fmt.Errorf("%w: %s version %d", ErrSnapshotVersion, key, env.Version)
	}
	if len(env.State) > 0 {
		if err := json.Unmarshal(env.State, state); err != nil {
			return false, fmt.Errorf("decode snapshot %s state: %w", key, err)
		}
	}
	return true, nil
}

// SaveState 编码 state 并整体覆盖写入
func SaveState(ctx context.Context, store SnapshotStore, key string, version int, state interface{}) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot %s state: %w", key, err)
	}
	data, err := json.Marshal(envelope{State: raw, Version: version})
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	if err := store.Save(ctx, key, data); err != nil {
		return fmt.Errorf("persist snapshot %s: %w", key, err)
	}
	return nil
}
