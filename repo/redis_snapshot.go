package repo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/cingweng66/Rmah-Live/database"
	"github.com/cingweng66/Rmah-Live/log"
	"github.com/cingweng66/Rmah-Live/mahjong"
)

const snapshotKeyPrefix = "rmah:snapshot:"

// RedisSnapshotStore 快照存 Redis，键为 rmah:snapshot:<gameId>，值为 JSON
// 快照不设过期：比赛结束由房间删除接口清理
type RedisSnapshotStore struct {
	rdb *database.RedisManager
}

func NewRedisSnapshotStore(rdb *database.RedisManager) *RedisSnapshotStore {
	return &RedisSnapshotStore{rdb: rdb}
}

func snapshotKey(gameID string) string {
	return snapshotKeyPrefix + gameID
}

func (s *RedisSnapshotStore) Load(ctx context.Context, gameID string) (*mahjong.GameState, error) {
	cmd := s.rdb.Get(ctx, snapshotKey(gameID))
	raw, err := cmd.Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		log.Error("读取快照失败 gameId=%s: %v", gameID, err)
		return nil, err
	}

	var state mahjong.GameState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		log.Error("快照反序列化失败 gameId=%s: %v", gameID, err)
		return nil, err
	}
	return &state, nil
}

func (s *RedisSnapshotStore) Save(ctx context.Context, gameID string, state *mahjong.GameState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, snapshotKey(gameID), string(raw), 0); err != nil {
		log.Error("写入快照失败 gameId=%s: %v", gameID, err)
		return err
	}
	return nil
}

func (s *RedisSnapshotStore) Delete(ctx context.Context, gameID string) error {
	return s.rdb.Del(ctx, snapshotKey(gameID))
}

func (s *RedisSnapshotStore) ListGameIDs(ctx context.Context) ([]string, error) {
	keys, err := s.rdb.Scan(ctx, snapshotKeyPrefix+"*", 100)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, snapshotKeyPrefix))
	}
	return ids, nil
}
