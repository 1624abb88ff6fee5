package repo

import (
	"context"
	"errors"
	"sync"

	"github.com/cingweng66/Rmah-Live/mahjong"
)

// MemorySnapshotStore 纯内存实现，单测与本地联调用
// FailSave 置位后所有写入返回错误，用来演练持久化故障
type MemorySnapshotStore struct {
	mu       sync.RWMutex
	states   map[string]*mahjong.GameState
	FailSave bool
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{states: make(map[string]*mahjong.GameState)}
}

func (s *MemorySnapshotStore) Load(_ context.Context, gameID string) (*mahjong.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[gameID]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return state.Clone(), nil
}

func (s *MemorySnapshotStore) Save(_ context.Context, gameID string, state *mahjong.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSave {
		return errors.New("模拟写入失败")
	}
	s.states[gameID] = state.Clone()
	return nil
}

func (s *MemorySnapshotStore) Delete(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, gameID)
	return nil
}

func (s *MemorySnapshotStore) ListGameIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	return ids, nil
}
