package mahjong

import "strconv"

// Player 一名对局者的展示与计分信息
type Player struct {
	ID           string `json:"id"`
	Seat         Seat   `json:"position"`
	Name         string `json:"name"`
	TeamName     string `json:"teamName,omitempty"`
	Score        int    `json:"score"`
	DisplayScore int    `json:"displayScore"` // 实时投影：score - 未结算立直棒
	IsRiichi     bool   `json:"isRiichi"`
}

// RoundMarker 场风/局数/本场
// 庄家座位由局数推导（SeatAt(RoundNumber-1)），不单独存储
type RoundMarker struct {
	Wind        Seat `json:"roundWind"`
	RoundNumber int  `json:"roundNumber"`
	Honba       int  `json:"honba"`
}

// Dealer 当前庄家座位
func (r RoundMarker) Dealer() Seat {
	return SeatAt(r.RoundNumber - 1)
}

// RiichiStake 一根立直棒
// Confirmed: 横置弃牌已成立，不可再取消
// Settled: 点数已在某次流局结算中扣除，随局滚动时不再重复扣
type RiichiStake struct {
	Owner     Seat `json:"owner"`
	Confirmed bool `json:"confirmed"`
	Settled   bool `json:"settled,omitempty"`
}

// ScoreDiffItem 一项分数变化，带可选标签便于旁观者核对
type ScoreDiffItem struct {
	Value int    `json:"value"`
	Label string `json:"label,omitempty"`
}

// 结算产生的变化标签
const (
	LabelRiichiStake  = "立直棒"
	LabelRiichiPot    = "供托"
	LabelTenpaiBonus  = "听牌奖励"
	LabelNotenPenalty = "不听罚符"
	LabelHonba        = "本场"
	LabelAdjustment   = "总分调整"
)

// GameState 一个房间的权威状态
// 所有权归 SyncHub 独有，其余组件只做纯函数计算
type GameState struct {
	Players           [4]Player                `json:"players"`
	Round             RoundMarker              `json:"round"`
	RiichiSticks      int                      `json:"riichiSticks"` // 恒等于 len(RiichiStakes)
	RiichiStakes      []RiichiStake            `json:"riichiStakes"`
	DoraTiles         []string                 `json:"doraTiles"`
	MatchTitle        string                   `json:"matchTitle"`
	HandStartScores   map[Seat]int             `json:"handStartScores"`
	LastScoreDiffs    map[Seat][]ScoreDiffItem `json:"lastScoreDiffs"`
	LastDiffTimestamp int64                    `json:"lastDiffTimestamp"`
	IsActive          bool                     `json:"isActive"`
}

// TotalPool 四人局固定总点数
const TotalPool = 100000

// InitialScore 单人起始点数
const InitialScore = 25000

// NewGameState 默认初始状态：各 25000 点，东 1 局 0 本场
func NewGameState() *GameState {
	st := &GameState{
		Round:          RoundMarker{Wind: East, RoundNumber: 1, Honba: 0},
		RiichiStakes:   make([]RiichiStake, 0, 4),
		DoraTiles:      []string{},
		MatchTitle:     "赛事直播",
		LastScoreDiffs: make(map[Seat][]ScoreDiffItem),
		IsActive:       true,
	}
	for i, seat := range AllSeats() {
		st.Players[i] = Player{
			ID:    strconv.Itoa(i + 1),
			Seat:  seat,
			Name:  "玩家" + strconv.Itoa(i+1),
			Score: InitialScore,
		}
	}
	st.HandStartScores = st.scoresBySeat()
	st.Refresh()
	return st
}

// PlayerAt 按座位取玩家（可写指针）
func (st *GameState) PlayerAt(seat Seat) *Player {
	for i := range st.Players {
		if st.Players[i].Seat == seat {
			return &st.Players[i]
		}
	}
	return nil
}

// ScoreSum 当前总点数
func (st *GameState) ScoreSum() int {
	sum := 0
	for i := range st.Players {
		sum += st.Players[i].Score
	}
	return sum
}

func (st *GameState) scoresBySeat() map[Seat]int {
	m := make(map[Seat]int, 4)
	for i := range st.Players {
		m[st.Players[i].Seat] = st.Players[i].Score
	}
	return m
}

// Refresh 重算派生字段（立直棒计数与实时展示点数）
// 任何修改之后、广播或持久化之前调用
func (st *GameState) Refresh() {
	st.RiichiSticks = len(st.RiichiStakes)
	pending := make(map[Seat]int, 4)
	for _, stake := range st.RiichiStakes {
		if !stake.Settled {
			pending[stake.Owner] += RiichiStakeValue
		}
	}
	for i := range st.Players {
		st.Players[i].DisplayScore = st.Players[i].Score - pending[st.Players[i].Seat]
	}
}

// Clone 深拷贝，用于操作历史与回退
func (st *GameState) Clone() *GameState {
	next := *st
	next.RiichiStakes = append([]RiichiStake(nil), st.RiichiStakes...)
	next.DoraTiles = append([]string(nil), st.DoraTiles...)
	next.HandStartScores = make(map[Seat]int, len(st.HandStartScores))
	for k, v := range st.HandStartScores {
		next.HandStartScores[k] = v
	}
	next.LastScoreDiffs = make(map[Seat][]ScoreDiffItem, len(st.LastScoreDiffs))
	for k, v := range st.LastScoreDiffs {
		next.LastScoreDiffs[k] = append([]ScoreDiffItem(nil), v...)
	}
	return &next
}

// HandOutcome 一手牌的终局，三种互斥变体
type HandOutcome struct {
	Kind        string `json:"kind"` // ron / tsumo / draw
	Winner      Seat   `json:"winner,omitempty"`
	Loser       Seat   `json:"loser,omitempty"`
	Han         int    `json:"han,omitempty"`
	Fu          int    `json:"fu,omitempty"`
	TenpaiSeats []Seat `json:"tenpaiSeats,omitempty"`
}

const (
	OutcomeRon   = "ron"
	OutcomeTsumo = "tsumo"
	OutcomeDraw  = "draw"
)
