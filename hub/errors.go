package hub

import "errors"

var (
	ErrNotControl    = errors.New("只读连接不能修改状态")
	ErrRoomNotFound  = errors.New("房间不存在")
	ErrNotJoined     = errors.New("连接尚未加入房间")
	ErrUnknownRoute  = errors.New("未知指令")
	ErrBadParam      = errors.New("指令参数不合法")
	ErrNothingToUndo = errors.New("没有可回退的操作")
	ErrSendChanFull  = errors.New("发送队列已满")
)
