package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cingweng66/Rmah-Live/config"
	"github.com/cingweng66/Rmah-Live/jwts"
	"github.com/cingweng66/Rmah-Live/log"
	"github.com/cingweng66/Rmah-Live/mahjong"
	"github.com/cingweng66/Rmah-Live/web"
)

var websocketUpgrade = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Gateway 长连接入口
// 带合法 JWT 的连接是控制端，没带的是显示端（只收快照）
type Gateway struct {
	hub     *SyncHub
	jwtConf config.JwtConf
	sendBuf int

	mu    sync.RWMutex
	conns map[string]*LongConnection

	server *http.Server
}

func NewGateway(hub *SyncHub, jwtConf config.JwtConf, sendBuf int) *Gateway {
	return &Gateway{
		hub:     hub,
		jwtConf: jwtConf,
		sendBuf: sendBuf,
		conns:   make(map[string]*LongConnection),
	}
}

// Run 阻塞监听 ws 端口
func (g *Gateway) Run(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.upgradeFunc)
	g.server = &http.Server{Addr: addr, Handler: mux}
	log.Info("websocket gateway 监听 %s", addr)
	err := g.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	for _, con := range g.conns {
		con.Close()
	}
	g.mu.Unlock()
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

func (g *Gateway) upgradeFunc(w http.ResponseWriter, r *http.Request) {
	role, userID := g.classify(r)

	wsConn, err := websocketUpgrade.Upgrade(w, r, nil)
	if err != nil {
		log.Error("websocket 升级失败: %v", err)
		return
	}

	connID := uuid.New().String()
	sess := NewSession(connID, role, userID)
	con := newLongConnection(connID, wsConn, g, sess, g.sendBuf)

	g.mu.Lock()
	g.conns[connID] = con
	g.mu.Unlock()

	con.Run()
	log.Info("客户端[%s] 接入 role=%s", connID, role)
}

// classify 根据 token 判定连接角色
// token 可以放在 ?token= 或 Authorization: Bearer 里；无效 token 一律按显示端处理
func (g *Gateway) classify(r *http.Request) (Role, string) {
	token := r.URL.Query().Get("token")
	if token == "" {
		auth := r.Header.Get("Authorization")
		token = strings.TrimPrefix(auth, "Bearer ")
	}
	if token == "" {
		return RoleDisplay, ""
	}
	userID, err := jwts.ParseToken(token, g.jwtConf.Secret)
	if err != nil {
		log.Warn("token 校验失败，降级为显示端: %v", err)
		return RoleDisplay, ""
	}
	return RoleControl, userID
}

func (g *Gateway) removeClient(con *LongConnection) {
	g.hub.Leave(con)
	g.mu.Lock()
	delete(g.conns, con.connID)
	g.mu.Unlock()
	con.Close()
}

// ConnCount 当前接入的连接数，监控用
func (g *Gateway) ConnCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.conns)
}

// handleMessage 读协程回调：解信封、派发、错误回写
func (g *Gateway) handleMessage(con *LongConnection, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		g.sendError(con, web.CodeInvalidParam, "消息格式不合法")
		return
	}
	if err := g.hub.Dispatch(context.Background(), con, &env); err != nil {
		log.Warn("指令执行失败 conn=%s route=%s: %v", con.connID, env.Route, err)
		g.sendError(con, errorCode(err), err.Error())
	}
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (g *Gateway) sendError(con *LongConnection, code int, message string) {
	data, _ := json.Marshal(errorBody{Code: code, Message: message})
	out, _ := json.Marshal(Envelope{Route: "error", Data: data})
	_ = con.SendMessage(out)
}

// errorCode 把领域错误映射到统一响应码
func errorCode(err error) int {
	switch {
	case errors.Is(err, ErrNotControl):
		return web.CodeUnauthorized
	case errors.Is(err, ErrRoomNotFound):
		return web.CodeNotFound
	case errors.Is(err, ErrUnknownRoute), errors.Is(err, ErrBadParam),
		errors.Is(err, ErrNotJoined), errors.Is(err, ErrNothingToUndo):
		return web.CodeInvalidParam
	case errors.Is(err, mahjong.ErrInvalidHan), errors.Is(err, mahjong.ErrInvalidFu),
		errors.Is(err, mahjong.ErrUnknownSeat), errors.Is(err, mahjong.ErrWinnerIsLoser),
		errors.Is(err, mahjong.ErrUnknownKind), errors.Is(err, mahjong.ErrNoUnconfirmedStake),
		errors.Is(err, mahjong.ErrAlreadyRiichi):
		return web.CodeInvalidParam
	default:
		return web.CodeServerError
	}
}
