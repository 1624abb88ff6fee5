package hub

import "sync"

// Role 连接角色：控制端可以改状态，显示端只收快照
type Role int

const (
	RoleDisplay Role = iota
	RoleControl
)

func (r Role) String() string {
	if r == RoleControl {
		return "control"
	}
	return "display"
}

// Session 单连接的会话数据
type Session struct {
	sync.RWMutex
	ConnID string
	UserID string // 控制端来自 JWT，显示端为空
	Role   Role
	GameID string // 当前加入的房间，未加入为空
}

func NewSession(connID string, role Role, userID string) *Session {
	return &Session{
		ConnID: connID,
		Role:   role,
		UserID: userID,
	}
}

func (s *Session) SetGameID(gameID string) {
	s.Lock()
	s.GameID = gameID
	s.Unlock()
}

func (s *Session) GetGameID() string {
	s.RLock()
	defer s.RUnlock()
	return s.GameID
}

func (s *Session) IsControl() bool {
	return s.Role == RoleControl
}
