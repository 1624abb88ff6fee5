package mahjong

import "errors"

// 输入校验相关错误（拒绝后状态不发生任何变化）
var (
	ErrInvalidHan    = errors.New("invalid han")
	ErrInvalidFu     = errors.New("invalid fu")
	ErrUnknownSeat   = errors.New("unknown seat")
	ErrWinnerIsLoser = errors.New("winner and loser are the same seat")
	ErrUnknownKind   = errors.New("unknown outcome kind")
)

// 立直棒相关错误
var (
	ErrNoUnconfirmedStake = errors.New("no unconfirmed riichi stake for seat")
	ErrAlreadyRiichi      = errors.New("seat already has a riichi stake this hand")
)
