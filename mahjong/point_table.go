package mahjong

import "fmt"

// 点数表：由 (番, 符, 是否庄家) 得到荣和/自摸支付额
// 规则为 M 规（含切上满贯），与原控制面板的点数表一致
// 本场加点不在此处处理，由结算器统一追加

// RiichiStakeValue 一根立直棒的点数
const RiichiStakeValue = 1000

type tierKind int

const (
	tierNormal tierKind = iota
	tierMangan
	tierHaneman
	tierBaiman
	tierSanbaiman
	tierYakuman
)

// classifyTier 番数分档
// 切上满贯：4番30符、3番70符按满贯计，这是最容易写错的分支
func classifyTier(han, fu int) tierKind {
	switch {
	case han >= 13:
		return tierYakuman
	case han >= 11:
		return tierSanbaiman
	case han >= 8:
		return tierBaiman
	case han >= 6:
		return tierHaneman
	case han == 5, han == 4 && fu >= 30, han == 3 && fu >= 70:
		return tierMangan
	default:
		return tierNormal
	}
}

// 固定档位的荣和点数 {子家, 庄家}
var ronTierTable = map[tierKind][2]int{
	tierMangan:    {8000, 12000},
	tierHaneman:   {12000, 18000},
	tierBaiman:    {16000, 24000},
	tierSanbaiman: {24000, 36000},
	tierYakuman:   {32000, 48000},
}

// 固定档位的自摸支付 {子家支付, 庄家支付}（子家和牌时）
// 庄家和牌时三家均支付"庄家支付"一栏
var tsumoTierTable = map[tierKind][2]int{
	tierMangan:    {2000, 4000},
	tierHaneman:   {3000, 6000},
	tierBaiman:    {4000, 8000},
	tierSanbaiman: {6000, 12000},
	tierYakuman:   {8000, 16000},
}

// ceil100 向上取整到 100 的倍数
// 必须按单个支付方取整，不能对合计取整
func ceil100(x int) int {
	return (x + 99) / 100 * 100
}

// basePoints 基础点 = 符 × 2^(番+2)
func basePoints(han, fu int) int {
	return fu * (1 << (han + 2))
}

// validateHanFu 校验输入
// 普通档位 fu 不足 20 属于调用方契约违反，直接拒绝而非静默夹紧
func validateHanFu(han, fu int) error {
	if han < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidHan, han)
	}
	if classifyTier(han, fu) == tierNormal && fu < 20 {
		return fmt.Errorf("%w: %d", ErrInvalidFu, fu)
	}
	return nil
}

// RonPoints 荣和时放铳者支付给和牌者的点数（不含本场）
func RonPoints(han, fu int, isDealer bool) (int, error) {
	if err := validateHanFu(han, fu); err != nil {
		return 0, err
	}
	tier := classifyTier(han, fu)
	if tier != tierNormal {
		fixed := ronTierTable[tier]
		if isDealer {
			return fixed[1], nil
		}
		return fixed[0], nil
	}
	base := basePoints(han, fu)
	if isDealer {
		return ceil100(base * 6), nil
	}
	return ceil100(base * 4), nil
}

// TsumoPayment 自摸时各家支付额
// 庄家和牌（ALL）时两者相等
type TsumoPayment struct {
	DealerPays    int // 庄家支付（庄家和牌时为每家支付额）
	NonDealerPays int // 子家支付
}

// Total 本次自摸的合计收入（不含本场）
func (p TsumoPayment) Total(winnerIsDealer bool) int {
	if winnerIsDealer {
		return p.NonDealerPays * 3
	}
	return p.DealerPays + p.NonDealerPays*2
}

// TsumoPoints 自摸时的支付结构（不含本场）
func TsumoPoints(han, fu int, isDealer bool) (TsumoPayment, error) {
	if err := validateHanFu(han, fu); err != nil {
		return TsumoPayment{}, err
	}
	tier := classifyTier(han, fu)
	if tier != tierNormal {
		fixed := tsumoTierTable[tier]
		if isDealer {
			// 4000 ALL 这类：三家均付庄家档
			return TsumoPayment{DealerPays: fixed[1], NonDealerPays: fixed[1]}, nil
		}
		return TsumoPayment{DealerPays: fixed[1], NonDealerPays: fixed[0]}, nil
	}
	base := basePoints(han, fu)
	if isDealer {
		each := ceil100(base * 2)
		return TsumoPayment{DealerPays: each, NonDealerPays: each}, nil
	}
	return TsumoPayment{
		DealerPays:    ceil100(base * 2),
		NonDealerPays: ceil100(base),
	}, nil
}
