package mahjong

import "fmt"

// 流局（荒牌流局）听牌/不听罚符
// 罚符表固定为 3000 点在不听方与听牌方之间转移，天然零和：
//   听牌 0 或 4 家：无转移
//   听牌 1 家：三家不听各付 1000（听牌者 +3000）
//   听牌 2 家：不听各向听牌各付 750（听牌各 +1500，不听各 -1500）
//   听牌 3 家：不听一家向听牌各付 1000（不听 -3000）

// DrawTransfers 由听牌座位集合计算各家点数变化
func DrawTransfers(tenpaiSeats []Seat) (map[Seat]int, error) {
	tenpai := make(map[Seat]bool, len(tenpaiSeats))
	for _, s := range tenpaiSeats {
		if !s.Valid() {
			return nil, fmt.Errorf("%w: %v", ErrUnknownSeat, s)
		}
		tenpai[s] = true
	}

	deltas := make(map[Seat]int, 4)
	n := len(tenpai)
	if n == 0 || n == 4 {
		return deltas, nil
	}

	var gain, loss int
	switch n {
	case 1:
		gain, loss = 3000, -1000
	case 2:
		gain, loss = 1500, -1500
	case 3:
		gain, loss = 1000, -3000
	}
	for _, seat := range AllSeats() {
		if tenpai[seat] {
			deltas[seat] = gain
		} else {
			deltas[seat] = loss
		}
	}
	return deltas, nil
}
