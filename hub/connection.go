package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cingweng66/Rmah-Live/log"
)

var (
	pongWait             = 60 * time.Second
	writeWait            = 10 * time.Second
	pingInterval         = (pongWait * 9) / 10
	maxMessageSize int64 = 4096
)

// LongConnection 一条 websocket 长连接，读写各一个协程
// 出站消息先进 WriteChan，写协程串行落到连接上
type LongConnection struct {
	connID     string
	conn       *websocket.Conn
	gateway    *Gateway
	session    *Session
	WriteChan  chan []byte
	pingTicker *time.Ticker
	closeChan  chan struct{}
	closeOnce  sync.Once
}

func newLongConnection(connID string, conn *websocket.Conn, gw *Gateway, sess *Session, sendBuf int) *LongConnection {
	return &LongConnection{
		connID:    connID,
		conn:      conn,
		gateway:   gw,
		session:   sess,
		WriteChan: make(chan []byte, sendBuf),
		closeChan: make(chan struct{}),
	}
}

func (con *LongConnection) Run() {
	go con.readMessage()
	go con.writeMessage()
	con.conn.SetPongHandler(con.pongHandler)
}

func (con *LongConnection) ID() string {
	return con.connID
}

func (con *LongConnection) GetSession() *Session {
	return con.session
}

// SendMessage 非阻塞入队，队列满说明消费端已经跟不上，直接断开
func (con *LongConnection) SendMessage(buf []byte) error {
	select {
	case con.WriteChan <- buf:
		return nil
	case <-con.closeChan:
		return nil
	default:
		log.Warn("客户端[%s] 发送队列已满，断开连接", con.connID)
		con.Close()
		return ErrSendChanFull
	}
}

func (con *LongConnection) writeMessage() {
	con.pingTicker = time.NewTicker(pingInterval)
	for {
		select {
		case message := <-con.WriteChan:
			if err := con.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error("客户端[%s] SetWriteDeadline err: %+v", con.connID, err)
			}
			if err := con.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error("客户端[%s] write err: %+v", con.connID, err)
				con.Close()
				return
			}
		case <-con.pingTicker.C:
			if err := con.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error("客户端[%s] ping SetWriteDeadline err: %+v", con.connID, err)
			}
			if err := con.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error("客户端[%s] ping err: %+v", con.connID, err)
				con.Close()
				return
			}
		case <-con.closeChan:
			log.Info("客户端[%s] writeMessage stopped", con.connID)
			return
		}
	}
}

func (con *LongConnection) readMessage() {
	defer func() {
		con.gateway.removeClient(con)
	}()
	con.conn.SetReadLimit(maxMessageSize)
	if err := con.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Error("SetReadDeadline err: %v", err)
		return
	}
	for {
		select {
		case <-con.closeChan:
			log.Info("客户端[%s] 检测到关闭信号", con.connID)
			return
		default:
			messageType, message, err := con.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					log.Error("客户端[%s] 异常错误: %v", con.connID, err)
				}
				return
			}
			if messageType != websocket.TextMessage {
				log.Error("客户端[%s] 不支持的流类型: %d", con.connID, messageType)
				continue
			}
			con.gateway.handleMessage(con, message)
		}
	}
}

func (con *LongConnection) pongHandler(string) error {
	return con.conn.SetReadDeadline(time.Now().Add(pongWait))
}

func (con *LongConnection) Close() {
	// 确保只执行一次
	con.closeOnce.Do(func() {
		close(con.closeChan)
		if con.conn != nil {
			_ = con.conn.Close()
		}
		if con.pingTicker != nil {
			con.pingTicker.Stop()
		}
		log.Info("客户端[%s] 连接关闭", con.connID)
	})
}
