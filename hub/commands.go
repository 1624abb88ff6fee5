package hub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cingweng66/Rmah-Live/mahjong"
)

const (
	routeJoin          = "join"
	routeLeave         = "leave"
	routeDeclareRiichi = "declareRiichi"
	routeCancelRiichi  = "cancelRiichi"
	routeConfirmRiichi = "confirmRiichi"
	routeApplyWin      = "applyWin"
	routeApplyDraw     = "applyDraw"
	routeSetDora       = "setDora"
	routeSetScore      = "setScore"
	routeSetPlayerName = "setPlayerName"
	routeSetTeamName   = "setTeamName"
	routeSetMatchTitle = "setMatchTitle"
	routeAdvanceRound  = "advanceRound"
	routeRetreatRound  = "retreatRound"
	routeStartGame     = "startGame"
	routeResetGame     = "resetGame"
	routeUndo          = "undo"
)

type joinParams struct {
	GameID string `json:"gameId"`
}

type seatParams struct {
	Position mahjong.Seat `json:"position"`
}

type winParams struct {
	Type   string       `json:"type"` // ron / tsumo
	Winner mahjong.Seat `json:"winner"`
	Loser  mahjong.Seat `json:"loser"`
	Han    int          `json:"han"`
	Fu     int          `json:"fu"`
}

type drawParams struct {
	Tenpai []mahjong.Seat `json:"tenpai"`
}

type doraParams struct {
	Tiles []string `json:"tiles"`
}

type scoreParams struct {
	Position mahjong.Seat `json:"position"`
	Score    int          `json:"score"`
}

type nameParams struct {
	Position mahjong.Seat `json:"position"`
	Name     string       `json:"name"`
	TeamName string       `json:"teamName"`
}

type titleParams struct {
	Title string `json:"title"`
}

// Dispatch 按信封里的 route 执行指令
// join/leave 任何角色都可以，其余都是控制端指令
func (h *SyncHub) Dispatch(ctx context.Context, c Client, env *Envelope) error {
	switch env.Route {
	case routeJoin:
		var p joinParams
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		if p.GameID == "" {
			return fmt.Errorf("%w: 缺少 gameId", ErrBadParam)
		}
		return h.Join(ctx, c, p.GameID)
	case routeLeave:
		h.Leave(c)
		return nil
	case routeDeclareRiichi:
		return h.cmdRiichi(c, env, stakeDeclare)
	case routeCancelRiichi:
		return h.cmdRiichi(c, env, stakeCancel)
	case routeConfirmRiichi:
		return h.cmdRiichi(c, env, stakeConfirm)
	case routeApplyWin:
		return h.cmdApplyWin(c, env)
	case routeApplyDraw:
		return h.cmdApplyDraw(c, env)
	case routeSetDora:
		return h.cmdSetDora(c, env)
	case routeSetScore:
		return h.cmdSetScore(c, env)
	case routeSetPlayerName, routeSetTeamName:
		return h.cmdSetName(c, env)
	case routeSetMatchTitle:
		return h.cmdSetMatchTitle(c, env)
	case routeAdvanceRound:
		return h.mutate(c, env.Route, func(cur *mahjong.GameState) (*mahjong.GameState, error) {
			next := ensureState(cur)
			next.Round = next.Round.ManualAdvance()
			next.Refresh()
			return next, nil
		})
	case routeRetreatRound:
		return h.mutate(c, env.Route, func(cur *mahjong.GameState) (*mahjong.GameState, error) {
			next := ensureState(cur)
			next.Round = next.Round.ManualRetreat()
			next.Refresh()
			return next, nil
		})
	case routeStartGame:
		// 正式开赛：标记进行中并以当前分数重记本手起点
		return h.mutate(c, env.Route, func(cur *mahjong.GameState) (*mahjong.GameState, error) {
			next := ensureState(cur)
			next.IsActive = true
			scores := make(map[mahjong.Seat]int, 4)
			for _, seat := range mahjong.AllSeats() {
				scores[seat] = next.PlayerAt(seat).Score
			}
			next.HandStartScores = scores
			next.Refresh()
			return next, nil
		})
	case routeResetGame:
		return h.cmdResetGame(c)
	case routeUndo:
		return h.cmdUndo(c)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownRoute, env.Route)
	}
}

type stakeOp int

const (
	stakeDeclare stakeOp = iota
	stakeCancel
	stakeConfirm
)

func (h *SyncHub) cmdRiichi(c Client, env *Envelope, op stakeOp) error {
	var p seatParams
	if err := decode(env.Data, &p); err != nil {
		return err
	}
	if !p.Position.Valid() {
		return fmt.Errorf("%w: %v", mahjong.ErrUnknownSeat, p.Position)
	}
	return h.mutate(c, env.Route, func(cur *mahjong.GameState) (*mahjong.GameState, error) {
		next := ensureState(cur)
		ledger := mahjong.NewRiichiLedger(next.RiichiStakes)
		switch op {
		case stakeDeclare:
			if err := ledger.Declare(p.Position); err != nil {
				return nil, err
			}
			next.PlayerAt(p.Position).IsRiichi = true
		case stakeCancel:
			if err := ledger.Cancel(p.Position); err != nil {
				return nil, err
			}
			next.PlayerAt(p.Position).IsRiichi = false
		case stakeConfirm:
			if err := ledger.Confirm(p.Position); err != nil {
				return nil, err
			}
		}
		next.RiichiStakes = ledger.Stakes()
		next.Refresh()
		return next, nil
	})
}

func (h *SyncHub) cmdApplyWin(c Client, env *Envelope) error {
	var p winParams
	if err := decode(env.Data, &p); err != nil {
		return err
	}
	outcome := mahjong.HandOutcome{
		Winner: p.Winner,
		Loser:  p.Loser,
		Han:    p.Han,
		Fu:     p.Fu,
	}
	switch p.Type {
	case mahjong.OutcomeRon:
		outcome.Kind = mahjong.OutcomeRon
	case mahjong.OutcomeTsumo:
		outcome.Kind = mahjong.OutcomeTsumo
	default:
		return fmt.Errorf("%w: type=%q", ErrBadParam, p.Type)
	}
	return h.mutate(c, env.Route, func(cur *mahjong.GameState) (*mahjong.GameState, error) {
		return mahjong.Settle(ensureState(cur), outcome)
	})
}

func (h *SyncHub) cmdApplyDraw(c Client, env *Envelope) error {
	var p drawParams
	if err := decode(env.Data, &p); err != nil {
		return err
	}
	outcome := mahjong.HandOutcome{
		Kind:        mahjong.OutcomeDraw,
		TenpaiSeats: p.Tenpai,
	}
	return h.mutate(c, env.Route, func(cur *mahjong.GameState) (*mahjong.GameState, error) {
		return mahjong.Settle(ensureState(cur), outcome)
	})
}

func (h *SyncHub) cmdSetDora(c Client, env *Envelope) error {
	var p doraParams
	if err := decode(env.Data, &p); err != nil {
		return err
	}
	return h.mutate(c, env.Route, func(cur *mahjong.GameState) (*mahjong.GameState, error) {
		next := ensureState(cur)
		next.DoraTiles = append([]string(nil), p.Tiles...)
		return next, nil
	})
}

// cmdSetScore 直接改一家的分数，差额按座位顺序摊给其余三家保持总分不变
func (h *SyncHub) cmdSetScore(c Client, env *Envelope) error {
	var p scoreParams
	if err := decode(env.Data, &p); err != nil {
		return err
	}
	if !p.Position.Valid() {
		return fmt.Errorf("%w: %v", mahjong.ErrUnknownSeat, p.Position)
	}
	return h.mutate(c, env.Route, func(cur *mahjong.GameState) (*mahjong.GameState, error) {
		next := ensureState(cur)
		target := next.PlayerAt(p.Position)
		delta := p.Score - target.Score
		if delta == 0 {
			return next, nil
		}
		target.Score = p.Score

		others := make([]*mahjong.Player, 0, 3)
		for _, seat := range mahjong.AllSeats() {
			if seat != p.Position {
				others = append(others, next.PlayerAt(seat))
			}
		}
		share := -delta / 3
		rem := -delta % 3
		for i, pl := range others {
			pl.Score += share
			if i == 0 {
				pl.Score += rem
			}
		}
		next.Refresh()
		return next, nil
	})
}

func (h *SyncHub) cmdSetName(c Client, env *Envelope) error {
	var p nameParams
	if err := decode(env.Data, &p); err != nil {
		return err
	}
	if !p.Position.Valid() {
		return fmt.Errorf("%w: %v", mahjong.ErrUnknownSeat, p.Position)
	}
	return h.mutate(c, env.Route, func(cur *mahjong.GameState) (*mahjong.GameState, error) {
		next := ensureState(cur)
		pl := next.PlayerAt(p.Position)
		if env.Route == routeSetPlayerName {
			pl.Name = p.Name
		} else {
			pl.TeamName = p.TeamName
		}
		return next, nil
	})
}

func (h *SyncHub) cmdSetMatchTitle(c Client, env *Envelope) error {
	var p titleParams
	if err := decode(env.Data, &p); err != nil {
		return err
	}
	return h.mutate(c, env.Route, func(cur *mahjong.GameState) (*mahjong.GameState, error) {
		next := ensureState(cur)
		next.MatchTitle = p.Title
		return next, nil
	})
}

// cmdResetGame 回到开局状态，保留选手姓名、队名和赛事标题
func (h *SyncHub) cmdResetGame(c Client) error {
	return h.mutate(c, routeResetGame, func(cur *mahjong.GameState) (*mahjong.GameState, error) {
		next := mahjong.NewGameState()
		if cur != nil {
			for i := range next.Players {
				next.Players[i].Name = cur.Players[i].Name
				next.Players[i].TeamName = cur.Players[i].TeamName
			}
			next.MatchTitle = cur.MatchTitle
		}
		return next, nil
	})
}

func (h *SyncHub) cmdUndo(c Client) error {
	sess := c.GetSession()
	if !sess.IsControl() {
		return ErrNotControl
	}
	gameID := sess.GetGameID()
	if gameID == "" {
		return ErrNotJoined
	}
	h.mu.RLock()
	r, ok := h.rooms[gameID]
	h.mu.RUnlock()
	if !ok {
		return ErrRoomNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.history.pop()
	if entry == nil {
		return ErrNothingToUndo
	}
	r.state = entry.state
	h.scheduleBroadcastLocked(r, routeUndo, sess.UserID)
	return nil
}

// ensureState 返回可安全修改的副本
// 房间未初始化时按默认开局建档，首次控制端变更即完成初始化
func ensureState(cur *mahjong.GameState) *mahjong.GameState {
	if cur == nil {
		return mahjong.NewGameState()
	}
	return cur.Clone()
}

func decode(data json.RawMessage, out any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: 缺少 data", ErrBadParam)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadParam, err)
	}
	return nil
}
