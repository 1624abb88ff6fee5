package mahjong

import (
	"errors"
	"testing"
)

func TestRonPoints_NormalTier(t *testing.T) {
	cases := []struct {
		han, fu  int
		isDealer bool
		want     int
	}{
		{1, 30, false, 1000},
		{1, 30, true, 1500},
		{2, 25, false, 1600},
		{2, 25, true, 2400},
		{3, 30, false, 3900},
		{3, 30, true, 5800},
		{4, 25, false, 6400},
		{3, 60, false, 7700},
		{3, 69, false, 8900}, // 69 符不存在于实战，但边界上仍按普通档计算
	}
	for _, c := range cases {
		got, err := RonPoints(c.han, c.fu, c.isDealer)
		if err != nil {
			t.Fatalf("RonPoints(%d,%d,%v) unexpected error: %v", c.han, c.fu, c.isDealer, err)
		}
		if got != c.want {
			t.Fatalf("RonPoints(%d,%d,%v) = %d, want %d", c.han, c.fu, c.isDealer, got, c.want)
		}
	}
}

func TestRonPoints_KiriageManganBoundary(t *testing.T) {
	// 4番30符、3番70符切上满贯；3番69符仍是普通档
	if got, _ := RonPoints(4, 30, false); got != 8000 {
		t.Fatalf("RonPoints(4,30) expected mangan 8000, got %d", got)
	}
	if got, _ := RonPoints(3, 70, false); got != 8000 {
		t.Fatalf("RonPoints(3,70) expected mangan 8000, got %d", got)
	}
	if got, _ := RonPoints(3, 69, false); got == 8000 {
		t.Fatalf("RonPoints(3,69) must not round up to mangan")
	}
	if got, _ := RonPoints(4, 30, true); got != 12000 {
		t.Fatalf("dealer RonPoints(4,30) expected 12000, got %d", got)
	}
}

func TestRonPoints_FixedTiers(t *testing.T) {
	cases := []struct {
		han        int
		nonDealer  int
		dealerWant int
	}{
		{5, 8000, 12000},
		{6, 12000, 18000},
		{7, 12000, 18000},
		{8, 16000, 24000},
		{10, 16000, 24000},
		{11, 24000, 36000},
		{12, 24000, 36000},
		{13, 32000, 48000},
		{26, 32000, 48000},
	}
	for _, c := range cases {
		if got, _ := RonPoints(c.han, 30, false); got != c.nonDealer {
			t.Fatalf("RonPoints(%d) = %d, want %d", c.han, got, c.nonDealer)
		}
		if got, _ := RonPoints(c.han, 30, true); got != c.dealerWant {
			t.Fatalf("dealer RonPoints(%d) = %d, want %d", c.han, got, c.dealerWant)
		}
	}
}

func TestRonPoints_MultipleOf100AndMonotonic(t *testing.T) {
	for _, fu := range []int{20, 25, 30, 40, 50, 60, 70} {
		prev := 0
		for han := 1; han <= 13; han++ {
			got, err := RonPoints(han, fu, false)
			if err != nil {
				t.Fatalf("RonPoints(%d,%d) error: %v", han, fu, err)
			}
			if got%100 != 0 {
				t.Fatalf("RonPoints(%d,%d) = %d not a multiple of 100", han, fu, got)
			}
			if got < prev {
				t.Fatalf("RonPoints(%d,%d) = %d decreased from %d", han, fu, got, prev)
			}
			prev = got
		}
	}
}

func TestTsumoPoints_DealerAll(t *testing.T) {
	// 庄家 3番30符自摸：base 960，每家 2000 ALL
	pay, err := TsumoPoints(3, 30, true)
	if err != nil {
		t.Fatalf("TsumoPoints error: %v", err)
	}
	if pay.DealerPays != 2000 || pay.NonDealerPays != 2000 {
		t.Fatalf("dealer tsumo 3/30 expected 2000 ALL, got %+v", pay)
	}
	if pay.Total(true) != 6000 {
		t.Fatalf("dealer tsumo total expected 6000, got %d", pay.Total(true))
	}
}

func TestTsumoPoints_NonDealerSplit(t *testing.T) {
	// 子家 1番30符自摸：300/500
	pay, _ := TsumoPoints(1, 30, false)
	if pay.NonDealerPays != 300 || pay.DealerPays != 500 {
		t.Fatalf("tsumo 1/30 expected 300/500, got %+v", pay)
	}

	// 每档合计与文档一致
	cases := []struct {
		han, fu int
		total   int
	}{
		{1, 30, 1100},
		{3, 30, 4000},  // 1000/2000
		{5, 0, 8000},   // 满贯 2000/4000
		{6, 0, 12000},  // 跳满 3000/6000
		{8, 0, 16000},  // 倍满 4000/8000
		{11, 0, 24000}, // 三倍满 6000/12000
		{13, 0, 32000}, // 役满 8000/16000
	}
	for _, c := range cases {
		pay, err := TsumoPoints(c.han, c.fu, false)
		if err != nil {
			t.Fatalf("TsumoPoints(%d,%d) error: %v", c.han, c.fu, err)
		}
		if got := pay.DealerPays + 2*pay.NonDealerPays; got != c.total {
			t.Fatalf("TsumoPoints(%d,%d) total = %d, want %d", c.han, c.fu, got, c.total)
		}
	}
}

func TestPointTable_RejectsBadInput(t *testing.T) {
	if _, err := RonPoints(0, 30, false); !errors.Is(err, ErrInvalidHan) {
		t.Fatalf("han=0 expected ErrInvalidHan, got %v", err)
	}
	if _, err := RonPoints(2, 10, false); !errors.Is(err, ErrInvalidFu) {
		t.Fatalf("fu=10 expected ErrInvalidFu, got %v", err)
	}
	if _, err := TsumoPoints(1, 0, true); !errors.Is(err, ErrInvalidFu) {
		t.Fatalf("tsumo fu=0 at normal tier expected ErrInvalidFu, got %v", err)
	}
	// 满贯以上不需要符数
	if _, err := TsumoPoints(5, 0, true); err != nil {
		t.Fatalf("mangan with fu=0 should be accepted, got %v", err)
	}
}
