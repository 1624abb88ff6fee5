package mahjong

import "fmt"

// RiichiLedger 立直棒台账
// 点数的扣除统一推迟到结算（settleOnWin/settleOnDraw）时进行，
// 宣言与取消本身不移动任何点数，避免"先扣再退"式的撤销 bug
type RiichiLedger struct {
	stakes []RiichiStake
}

// NewRiichiLedger 以当前状态中的立直棒列表构建台账
func NewRiichiLedger(stakes []RiichiStake) *RiichiLedger {
	return &RiichiLedger{stakes: append([]RiichiStake(nil), stakes...)}
}

// Stakes 当前立直棒列表（副本）
func (l *RiichiLedger) Stakes() []RiichiStake {
	return append([]RiichiStake(nil), l.stakes...)
}

// Count 立直棒根数，展示给客户端的 riichiSticks 恒等于它
func (l *RiichiLedger) Count() int {
	return len(l.stakes)
}

// Declare 宣言立直：追加一根未成立的立直棒，不移动点数
func (l *RiichiLedger) Declare(seat Seat) error {
	if !seat.Valid() {
		return fmt.Errorf("%w: %v", ErrUnknownSeat, seat)
	}
	for _, s := range l.stakes {
		if s.Owner == seat && !s.Settled {
			return fmt.Errorf("%w: %v", ErrAlreadyRiichi, seat)
		}
	}
	l.stakes = append(l.stakes, RiichiStake{Owner: seat})
	return nil
}

// Confirm 横置弃牌成立，立直不可再取消
func (l *RiichiLedger) Confirm(seat Seat) error {
	for i := len(l.stakes) - 1; i >= 0; i-- {
		if l.stakes[i].Owner == seat && !l.stakes[i].Confirmed && !l.stakes[i].Settled {
			l.stakes[i].Confirmed = true
			return nil
		}
	}
	return fmt.Errorf("%w: %v", ErrNoUnconfirmedStake, seat)
}

// Cancel 取消立直，仅在未成立时允许
func (l *RiichiLedger) Cancel(seat Seat) error {
	for i := len(l.stakes) - 1; i >= 0; i-- {
		if l.stakes[i].Owner == seat && !l.stakes[i].Confirmed && !l.stakes[i].Settled {
			l.stakes = append(l.stakes[:i], l.stakes[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %v", ErrNoUnconfirmedStake, seat)
}

// SettleOnWin 和牌结算：
// 每根未扣点的立直棒向其所有者扣 1000，和牌者收走全部供托（1000×根数），
// 台账清空。和牌者自己的立直棒一扣一收，净值为零
func (l *RiichiLedger) SettleOnWin(winner Seat) map[Seat][]ScoreDiffItem {
	diffs := make(map[Seat][]ScoreDiffItem)
	for _, s := range l.stakes {
		if !s.Settled {
			diffs[s.Owner] = append(diffs[s.Owner], ScoreDiffItem{Value: -RiichiStakeValue, Label: LabelRiichiStake})
		}
	}
	if n := len(l.stakes); n > 0 {
		diffs[winner] = append(diffs[winner], ScoreDiffItem{Value: RiichiStakeValue * n, Label: LabelRiichiPot})
	}
	l.stakes = l.stakes[:0]
	return diffs
}

// SettleOnDraw 流局结算：
// 每根未扣点的立直棒向其所有者扣 1000 并标记已扣，
// 立直棒本身不清空，根数与归属滚动到下一局（供托留在桌上）
func (l *RiichiLedger) SettleOnDraw() map[Seat][]ScoreDiffItem {
	diffs := make(map[Seat][]ScoreDiffItem)
	for i := range l.stakes {
		if !l.stakes[i].Settled {
			diffs[l.stakes[i].Owner] = append(diffs[l.stakes[i].Owner],
				ScoreDiffItem{Value: -RiichiStakeValue, Label: LabelRiichiStake})
			l.stakes[i].Settled = true
		}
	}
	return diffs
}
