package mahjong

// 场风/局数/本场的状态机
// 终局条件不在此处判断，风位无限循环，比赛何时结束由外部决定

// advance 非连庄推进：第 4 局进位到下一场风
func (r RoundMarker) advance() RoundMarker {
	if r.RoundNumber == 4 {
		r.RoundNumber = 1
		r.Wind = r.Wind.Next()
	} else {
		r.RoundNumber++
	}
	return r
}

// OnWin 和牌后的走向
// 庄家和牌：连庄，本场+1；否则本场清零并进下一局
func (r RoundMarker) OnWin(dealerWon bool) RoundMarker {
	if dealerWon {
		r.Honba++
		return r
	}
	r.Honba = 0
	return r.advance()
}

// OnDraw 流局后的走向
// 本规则下听牌连庄与过庄都加一本场；庄家听牌则局数不动
func (r RoundMarker) OnDraw(dealerTenpai bool) RoundMarker {
	r.Honba++
	if dealerTenpai {
		return r
	}
	return r.advance()
}

// ManualAdvance 手动下一局（控制端导航，不走结算）
// 本场清零，与非连庄推进一致
func (r RoundMarker) ManualAdvance() RoundMarker {
	r.Honba = 0
	return r.advance()
}

// ManualRetreat 手动上一局，本场保持不变
// 东 1 局再往前退保持不动
func (r RoundMarker) ManualRetreat() RoundMarker {
	if r.RoundNumber == 1 {
		if r.Wind != East {
			r.RoundNumber = 4
			r.Wind = r.Wind.Prev()
		}
		return r
	}
	r.RoundNumber--
	return r
}
