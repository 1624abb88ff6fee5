package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cingweng66/Rmah-Live/config"
	"github.com/cingweng66/Rmah-Live/log"
	"github.com/cingweng66/Rmah-Live/mahjong"
	"github.com/cingweng66/Rmah-Live/repo"
)

// Client 能接收推送的订阅者，长连接与单测桩都实现它
type Client interface {
	ID() string
	GetSession() *Session
	SendMessage(buf []byte) error
}

// HistorySink 变更记录的旁路落盘，写失败不阻断广播
type HistorySink interface {
	AppendTransition(ctx context.Context, rec *repo.TransitionRecord) error
}

// Envelope 入站与出站统一的消息信封
type Envelope struct {
	Route string          `json:"route"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// room 单个房间：状态 + 订阅者 + 防抖广播
// 房间内所有读写都在 mu 下串行，多个控制端按到达顺序后写覆盖先写
type room struct {
	mu      sync.Mutex
	gameID  string
	state   *mahjong.GameState // nil 表示房间还没初始化
	clients map[string]Client
	history *historyRing

	broadcastArmed bool
	timer          *time.Timer
	pendingRoute   string // 窗口内最后一次变更的路由与操作者
	pendingActor   string
}

// SyncHub 房间同步中心
// 变更先落盘再广播；广播做 100ms 防抖，窗口内多次变更合并成一次全量快照推送
type SyncHub struct {
	mu      sync.RWMutex
	rooms   map[string]*room
	store   repo.SnapshotStore
	sink    HistorySink // 可以为 nil
	conf    config.HubConf
}

func NewSyncHub(conf config.HubConf, store repo.SnapshotStore, sink HistorySink) *SyncHub {
	return &SyncHub{
		rooms: make(map[string]*room),
		store: store,
		sink:  sink,
		conf:  conf,
	}
}

// getOrLoadRoom 返回驻留房间，不在内存时从持久层兜底恢复
func (h *SyncHub) getOrLoadRoom(ctx context.Context, gameID string) *room {
	h.mu.RLock()
	r, ok := h.rooms[gameID]
	h.mu.RUnlock()
	if ok {
		return r
	}

	state, err := h.store.Load(ctx, gameID)
	if err != nil && err != repo.ErrSnapshotNotFound {
		log.Warn("恢复快照失败 gameId=%s: %v", gameID, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok = h.rooms[gameID]; ok {
		return r
	}
	r = &room{
		gameID:  gameID,
		state:   state,
		clients: make(map[string]Client),
		history: newHistoryRing(h.conf.HistoryCap),
	}
	h.rooms[gameID] = r
	return r
}

// CreateRoom 初始化一个新房间并立即落盘，已存在则原样返回
func (h *SyncHub) CreateRoom(ctx context.Context, gameID string) (*mahjong.GameState, error) {
	r := h.getOrLoadRoom(ctx, gameID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != nil {
		return r.state.Clone(), nil
	}
	r.state = mahjong.NewGameState()
	if err := h.store.Save(ctx, gameID, r.state); err != nil {
		log.Warn("房间初始化落盘失败 gameId=%s: %v", gameID, err)
	}
	return r.state.Clone(), nil
}

// Join 把连接挂进房间并立刻补发一帧快照（未初始化时 data 为 null）
// 换房先退旧房，连接不会同时收到两个房间的广播
func (h *SyncHub) Join(ctx context.Context, c Client, gameID string) error {
	if prev := c.GetSession().GetGameID(); prev != "" && prev != gameID {
		h.Leave(c)
	}
	r := h.getOrLoadRoom(ctx, gameID)

	r.mu.Lock()
	r.clients[c.ID()] = c
	snapshot := encodeSnapshot(r.state)
	r.mu.Unlock()

	c.GetSession().SetGameID(gameID)
	if err := c.SendMessage(snapshot); err != nil {
		log.Warn("补发快照失败 conn=%s gameId=%s: %v", c.ID(), gameID, err)
	}
	log.Info("连接加入房间 conn=%s gameId=%s role=%s", c.ID(), gameID, c.GetSession().Role)
	return nil
}

// Leave 把连接从房间摘掉；房间没人也不销毁，状态等下一个观众
func (h *SyncHub) Leave(c Client) {
	gameID := c.GetSession().GetGameID()
	if gameID == "" {
		return
	}
	h.mu.RLock()
	r, ok := h.rooms[gameID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	r.mu.Lock()
	delete(r.clients, c.ID())
	r.mu.Unlock()
	c.GetSession().SetGameID("")
	log.Info("连接离开房间 conn=%s gameId=%s", c.ID(), gameID)
}

// Snapshot 读当前状态，房间未初始化时返回 ErrRoomNotFound
func (h *SyncHub) Snapshot(ctx context.Context, gameID string) (*mahjong.GameState, error) {
	h.mu.RLock()
	r, ok := h.rooms[gameID]
	h.mu.RUnlock()
	if ok {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.state == nil {
			return nil, ErrRoomNotFound
		}
		return r.state.Clone(), nil
	}
	// 不驻留的房间直接走持久层，不为只读请求建房
	state, err := h.store.Load(ctx, gameID)
	if err == repo.ErrSnapshotNotFound {
		return nil, ErrRoomNotFound
	}
	return state, err
}

// RoomCount 驻留房间数，监控用
func (h *SyncHub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// ConnCount 全部房间的订阅连接数，监控用
func (h *SyncHub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, r := range h.rooms {
		r.mu.Lock()
		total += len(r.clients)
		r.mu.Unlock()
	}
	return total
}

// mutate 在房间锁下执行一次状态变更并安排防抖广播
// fn 返回新状态；返回错误则状态不动、不广播
func (h *SyncHub) mutate(c Client, route string, fn func(cur *mahjong.GameState) (*mahjong.GameState, error)) error {
	sess := c.GetSession()
	if !sess.IsControl() {
		return ErrNotControl
	}
	gameID := sess.GetGameID()
	if gameID == "" {
		return ErrNotJoined
	}

	h.mu.RLock()
	r, ok := h.rooms[gameID]
	h.mu.RUnlock()
	if !ok {
		return ErrRoomNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := fn(r.state)
	if err != nil {
		return err
	}
	if r.state != nil {
		r.history.push(route, r.state)
	}
	r.state = next
	h.scheduleBroadcastLocked(r, route, sess.UserID)
	return nil
}

// scheduleBroadcastLocked 安排一次防抖广播，调用方持有 r.mu
// 每次变更都把计时器重置到整个窗口，静默满一个窗口才推，只推最终状态
func (h *SyncHub) scheduleBroadcastLocked(r *room, route, actor string) {
	r.pendingRoute = route
	r.pendingActor = actor
	window := time.Duration(h.conf.DebounceMs) * time.Millisecond
	if r.broadcastArmed {
		r.timer.Reset(window)
		return
	}
	r.broadcastArmed = true
	r.timer = time.AfterFunc(window, func() {
		// 计时器在请求上下文之外触发，持久化用独立 context
		h.flush(context.Background(), r)
	})
}

// flush 防抖窗口到点：先持久化，成功与否都广播
func (h *SyncHub) flush(ctx context.Context, r *room) {
	r.mu.Lock()
	r.broadcastArmed = false
	route, actor := r.pendingRoute, r.pendingActor
	state := r.state
	if state != nil {
		state = state.Clone()
	}
	payload := encodeSnapshot(r.state)
	clients := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.Unlock()

	if state != nil {
		if err := h.store.Save(ctx, r.gameID, state); err != nil {
			// 持久化失败降级为仅广播，下一次变更会再试
			log.Warn("快照落盘失败 gameId=%s: %v", r.gameID, err)
		}
		if h.sink != nil {
			if err := h.sink.AppendTransition(ctx, &repo.TransitionRecord{
				GameID: r.gameID,
				Route:  route,
				Actor:  actor,
				State:  state,
			}); err != nil {
				log.Warn("变更记录落盘失败 gameId=%s: %v", r.gameID, err)
			}
		}
	}

	for _, c := range clients {
		if err := c.SendMessage(payload); err != nil {
			log.Warn("广播失败 conn=%s gameId=%s: %v", c.ID(), r.gameID, err)
		}
	}
	log.Debug("房间广播 gameId=%s route=%s subscribers=%d", r.gameID, route, len(clients))
}

func encodeSnapshot(state *mahjong.GameState) []byte {
	var data json.RawMessage
	if state != nil {
		raw, err := json.Marshal(state)
		if err != nil {
			log.Error("快照序列化失败: %v", err)
			raw = []byte("null")
		}
		data = raw
	} else {
		data = []byte("null")
	}
	out, _ := json.Marshal(Envelope{Route: "snapshot", Data: data})
	return out
}
