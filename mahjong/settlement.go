package mahjong

import (
	"fmt"
	"time"

	"github.com/cingweng66/Rmah-Live/log"
)

// 结算器：把 点数表 + 立直台账 + 场局时钟 + 流局罚符 编排成
// 一次原子的状态迁移。输入校验失败时直接拒绝，不产生部分变更

// Settle 计算一手牌终局后的下一个权威状态及逐项分数变化
// cur 不会被修改
func Settle(cur *GameState, outcome HandOutcome) (*GameState, error) {
	if err := validateOutcome(cur, outcome); err != nil {
		return nil, err
	}

	next := cur.Clone()
	diffs := make(map[Seat][]ScoreDiffItem)
	dealer := cur.Round.Dealer()

	switch outcome.Kind {
	case OutcomeRon:
		pts, err := RonPoints(outcome.Han, outcome.Fu, outcome.Winner == dealer)
		if err != nil {
			return nil, err
		}
		addDiff(diffs, outcome.Winner, pts, "")
		addDiff(diffs, outcome.Loser, -pts, "")
		if honba := 300 * cur.Round.Honba; honba > 0 {
			addDiff(diffs, outcome.Winner, honba, LabelHonba)
			addDiff(diffs, outcome.Loser, -honba, LabelHonba)
		}

	case OutcomeTsumo:
		pay, err := TsumoPoints(outcome.Han, outcome.Fu, outcome.Winner == dealer)
		if err != nil {
			return nil, err
		}
		honbaEach := 100 * cur.Round.Honba
		total := 0
		for _, seat := range AllSeats() {
			if seat == outcome.Winner {
				continue
			}
			amount := pay.NonDealerPays
			if seat == dealer {
				amount = pay.DealerPays
			}
			addDiff(diffs, seat, -amount, "")
			total += amount
			if honbaEach > 0 {
				addDiff(diffs, seat, -honbaEach, LabelHonba)
				total += honbaEach
			}
		}
		addDiff(diffs, outcome.Winner, total-3*honbaEach, "")
		if honbaEach > 0 {
			addDiff(diffs, outcome.Winner, 3*honbaEach, LabelHonba)
		}

	case OutcomeDraw:
		transfers, err := DrawTransfers(outcome.TenpaiSeats)
		if err != nil {
			return nil, err
		}
		for seat, v := range transfers {
			switch {
			case v > 0:
				addDiff(diffs, seat, v, LabelTenpaiBonus)
			case v < 0:
				addDiff(diffs, seat, v, LabelNotenPenalty)
			}
		}
	}

	// 立直棒结算：宣言时不动点，这里统一扣除/收取
	ledger := NewRiichiLedger(next.RiichiStakes)
	var stakeDiffs map[Seat][]ScoreDiffItem
	if outcome.Kind == OutcomeDraw {
		stakeDiffs = ledger.SettleOnDraw()
	} else {
		stakeDiffs = ledger.SettleOnWin(outcome.Winner)
	}
	for seat, items := range stakeDiffs {
		diffs[seat] = append(diffs[seat], items...)
	}
	next.RiichiStakes = ledger.Stakes()

	// 应用全部分数变化
	for seat, items := range diffs {
		p := next.PlayerAt(seat)
		for _, item := range items {
			p.Score += item.Value
		}
	}

	// 场局推进
	if outcome.Kind == OutcomeDraw {
		next.Round = cur.Round.OnDraw(containsSeat(outcome.TenpaiSeats, dealer))
	} else {
		next.Round = cur.Round.OnWin(outcome.Winner == dealer)
	}

	// 零和校验：桌上的供托（已扣点的立直棒）也算进点数池
	if residual := TotalPool - next.ScoreSum() - potOnTable(next.RiichiStakes); residual != 0 {
		if outcome.Kind == OutcomeDraw {
			// 流局罚符按表零和，出现残差说明计算有缺陷：大声记录但照常发布
			log.Error("流局结算后点数池不平: 残差=%d", residual)
		} else {
			if residual > 300 || residual < -300 {
				log.Error("结算后点数池不平超出取整残差: 残差=%d", residual)
			}
			addDiff(diffs, outcome.Winner, residual, LabelAdjustment)
			next.PlayerAt(outcome.Winner).Score += residual
		}
	}

	// 新的一手：清立直标记与宝牌，重记本手起点
	for i := range next.Players {
		next.Players[i].IsRiichi = false
	}
	next.DoraTiles = []string{}
	next.HandStartScores = next.scoresBySeat()
	next.LastScoreDiffs = diffs
	next.LastDiffTimestamp = time.Now().UnixMilli()
	next.Refresh()
	return next, nil
}

func validateOutcome(cur *GameState, outcome HandOutcome) error {
	switch outcome.Kind {
	case OutcomeRon:
		if !outcome.Winner.Valid() || !outcome.Loser.Valid() {
			return fmt.Errorf("%w: winner=%v loser=%v", ErrUnknownSeat, outcome.Winner, outcome.Loser)
		}
		if outcome.Winner == outcome.Loser {
			return fmt.Errorf("%w: %v", ErrWinnerIsLoser, outcome.Winner)
		}
		return validateHanFu(outcome.Han, outcome.Fu)
	case OutcomeTsumo:
		if !outcome.Winner.Valid() {
			return fmt.Errorf("%w: winner=%v", ErrUnknownSeat, outcome.Winner)
		}
		return validateHanFu(outcome.Han, outcome.Fu)
	case OutcomeDraw:
		seen := make(map[Seat]bool, len(outcome.TenpaiSeats))
		for _, s := range outcome.TenpaiSeats {
			if !s.Valid() {
				return fmt.Errorf("%w: %v", ErrUnknownSeat, s)
			}
			if seen[s] {
				return fmt.Errorf("%w: duplicate tenpai seat %v", ErrUnknownSeat, s)
			}
			seen[s] = true
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, outcome.Kind)
	}
}

func addDiff(diffs map[Seat][]ScoreDiffItem, seat Seat, value int, label string) {
	diffs[seat] = append(diffs[seat], ScoreDiffItem{Value: value, Label: label})
}

func containsSeat(seats []Seat, target Seat) bool {
	for _, s := range seats {
		if s == target {
			return true
		}
	}
	return false
}

// potOnTable 桌上供托点数（流局后滚动的已扣点立直棒）
func potOnTable(stakes []RiichiStake) int {
	pot := 0
	for _, s := range stakes {
		if s.Settled {
			pot += RiichiStakeValue
		}
	}
	return pot
}
