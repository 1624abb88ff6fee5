package repo

import (
	"context"
	"errors"

	"github.com/cingweng66/Rmah-Live/mahjong"
)

var (
	// ErrSnapshotNotFound 房间从未持久化过快照
	ErrSnapshotNotFound = errors.New("快照不存在")
)

// SnapshotStore 房间快照的持久化接口
// 同步中心每次广播前落盘，重启或扩容后从这里恢复
type SnapshotStore interface {
	Load(ctx context.Context, gameID string) (*mahjong.GameState, error)
	Save(ctx context.Context, gameID string, state *mahjong.GameState) error
	Delete(ctx context.Context, gameID string) error
	ListGameIDs(ctx context.Context) ([]string, error)
}
