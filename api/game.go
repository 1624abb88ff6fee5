package api

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/cingweng66/Rmah-Live/hub"
	"github.com/cingweng66/Rmah-Live/log"
	"github.com/cingweng66/Rmah-Live/repo"
	"github.com/cingweng66/Rmah-Live/web"
)

// SnapshotHandler 读一个房间的当前快照
// 优先走驻留的同步中心，不驻留的房间回源到持久层（带本地缓存）
func SnapshotHandler(deps *Deps) web.HandlerFunc {
	return func(c *web.Context) error {
		gameID := c.GetParam("gameId")
		if gameID == "" {
			c.BadRequest("缺少 gameId")
			return nil
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()

		state, err := deps.Hub.Snapshot(ctx, gameID)
		if err != nil {
			if errors.Is(err, hub.ErrRoomNotFound) || errors.Is(err, repo.ErrSnapshotNotFound) {
				c.NotFound("房间不存在")
				return nil
			}
			log.Error("读取快照失败 gameId=%s: %v", gameID, err)
			c.InternalServerError("")
			return nil
		}
		c.Success(state)
		return nil
	}
}

// HistoryHandler 读最近的变更记录，复盘用
func HistoryHandler(deps *Deps) web.HandlerFunc {
	return func(c *web.Context) error {
		if deps.History == nil {
			c.NotFound("未开启变更记录")
			return nil
		}
		gameID := c.GetParam("gameId")
		if gameID == "" {
			c.BadRequest("缺少 gameId")
			return nil
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()

		records, err := deps.History.FindTransitions(ctx, gameID, 50)
		if err != nil {
			c.InternalServerError("")
			return nil
		}
		c.Success(records)
		return nil
	}
}

// CreateRoomHandler 创建房间，分配 6 位数字房间号并立刻落盘
func CreateRoomHandler(deps *Deps) web.HandlerFunc {
	return func(c *web.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		gameID, err := allocateGameID(ctx, deps.Store)
		if err != nil {
			log.Error("分配房间号失败: %v", err)
			c.InternalServerError("")
			return nil
		}

		state, err := deps.Hub.CreateRoom(ctx, gameID)
		if err != nil {
			log.Error("创建房间失败 gameId=%s: %v", gameID, err)
			c.InternalServerError("")
			return nil
		}
		log.Info("房间已创建 gameId=%s", gameID)
		c.Success(map[string]interface{}{
			"gameId": gameID,
			"state":  state,
		})
		return nil
	}
}

// ListRoomsHandler 列出持久层里所有房间号
func ListRoomsHandler(deps *Deps) web.HandlerFunc {
	return func(c *web.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()

		ids, err := deps.Store.ListGameIDs(ctx)
		if err != nil {
			c.InternalServerError("")
			return nil
		}
		c.Success(map[string]interface{}{
			"gameIds": ids,
			"count":   len(ids),
		})
		return nil
	}
}

// allocateGameID 随机 6 位数字，撞号重试
func allocateGameID(ctx context.Context, store repo.SnapshotStore) (string, error) {
	for i := 0; i < 10; i++ {
		gameID := fmt.Sprintf("%06d", rand.Intn(1000000))
		_, err := store.Load(ctx, gameID)
		if errors.Is(err, repo.ErrSnapshotNotFound) {
			return gameID, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.New("房间号分配重试次数耗尽")
}
