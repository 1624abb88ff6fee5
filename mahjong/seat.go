package mahjong

import "fmt"

// Seat 座位/风位，固定四家，按 东->南->西->北 循环
type Seat int

const (
	East Seat = iota
	South
	West
	North
)

var seatNames = [4]string{"东", "南", "西", "北"}

func (s Seat) Valid() bool {
	return s >= East && s <= North
}

func (s Seat) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Seat(%d)", int(s))
	}
	return seatNames[s]
}

// Next 下一个座位（逆时针）
func (s Seat) Next() Seat {
	return Seat((int(s) + 1) % 4)
}

// Prev 上一个座位
func (s Seat) Prev() Seat {
	return Seat((int(s) + 3) % 4)
}

// SeatAt 第 i 个座位（i 按 0-3 取模）
func SeatAt(i int) Seat {
	return Seat(((i % 4) + 4) % 4)
}

// AllSeats 固定顺序的四个座位
func AllSeats() [4]Seat {
	return [4]Seat{East, South, West, North}
}

// MarshalText 序列化为中文风位，同时用于 map 的 key
func (s Seat) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid seat: %d", int(s))
	}
	return []byte(seatNames[s]), nil
}

func (s *Seat) UnmarshalText(text []byte) error {
	name := string(text)
	for i, n := range seatNames {
		if n == name {
			*s = Seat(i)
			return nil
		}
	}
	// 兼容英文风位（旧客户端）
	switch name {
	case "east", "East":
		*s = East
	case "south", "South":
		*s = South
	case "west", "West":
		*s = West
	case "north", "North":
		*s = North
	default:
		return fmt.Errorf("unknown seat: %q", name)
	}
	return nil
}
