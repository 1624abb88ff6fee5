package repo

import (
	"context"

	"github.com/cingweng66/Rmah-Live/cache"
	"github.com/cingweng66/Rmah-Live/mahjong"
)

// CachedSnapshotStore 在底层存储之上套一层 ristretto 读缓存
// 快照读取接口被叠加层高频轮询，命中后不再回源
type CachedSnapshotStore struct {
	inner SnapshotStore
	local *cache.GeneralCache
}

func NewCachedSnapshotStore(inner SnapshotStore, local *cache.GeneralCache) *CachedSnapshotStore {
	return &CachedSnapshotStore{inner: inner, local: local}
}

func (s *CachedSnapshotStore) Load(ctx context.Context, gameID string) (*mahjong.GameState, error) {
	if v, ok := s.local.Get(gameID); ok {
		if state, ok := v.(*mahjong.GameState); ok {
			return state.Clone(), nil
		}
	}
	state, err := s.inner.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	s.local.Set(gameID, state.Clone())
	return state, nil
}

func (s *CachedSnapshotStore) Save(ctx context.Context, gameID string, state *mahjong.GameState) error {
	if err := s.inner.Save(ctx, gameID, state); err != nil {
		return err
	}
	s.local.Set(gameID, state.Clone())
	return nil
}

func (s *CachedSnapshotStore) Delete(ctx context.Context, gameID string) error {
	s.local.Delete(gameID)
	return s.inner.Delete(ctx, gameID)
}

func (s *CachedSnapshotStore) ListGameIDs(ctx context.Context) ([]string, error) {
	return s.inner.ListGameIDs(ctx)
}
