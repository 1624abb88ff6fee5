package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cingweng66/Rmah-Live/config"
	"github.com/cingweng66/Rmah-Live/mahjong"
	"github.com/cingweng66/Rmah-Live/repo"
)

type fakeClient struct {
	sess *Session

	mu   sync.Mutex
	sent [][]byte
}

func newFakeClient(id string, role Role) *fakeClient {
	return &fakeClient{sess: NewSession(id, role, "tester")}
}

func (f *fakeClient) ID() string           { return f.sess.ConnID }
func (f *fakeClient) GetSession() *Session { return f.sess }

func (f *fakeClient) SendMessage(buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, buf)
	return nil
}

func (f *fakeClient) envelopes(t *testing.T) []Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Envelope, 0, len(f.sent))
	for _, raw := range f.sent {
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("bad envelope %s: %v", raw, err)
		}
		out = append(out, env)
	}
	return out
}

func (f *fakeClient) snapshots(t *testing.T) []*mahjong.GameState {
	t.Helper()
	var states []*mahjong.GameState
	for _, env := range f.envelopes(t) {
		if env.Route != "snapshot" {
			continue
		}
		if string(env.Data) == "null" {
			states = append(states, nil)
			continue
		}
		var st mahjong.GameState
		if err := json.Unmarshal(env.Data, &st); err != nil {
			t.Fatalf("bad snapshot payload: %v", err)
		}
		states = append(states, &st)
	}
	return states
}

func testConf() config.HubConf {
	return config.HubConf{DebounceMs: 30, HistoryCap: 50, SendBuf: 64, SnapshotTTLs: 1}
}

func newTestHub() (*SyncHub, *repo.MemorySnapshotStore) {
	store := repo.NewMemorySnapshotStore()
	return NewSyncHub(testConf(), store, nil), store
}

func dispatch(t *testing.T, h *SyncHub, c Client, route string, data string) error {
	t.Helper()
	env := &Envelope{Route: route}
	if data != "" {
		env.Data = json.RawMessage(data)
	}
	return h.Dispatch(context.Background(), c, env)
}

func waitDebounce() {
	time.Sleep(100 * time.Millisecond)
}

type fakeSink struct {
	mu   sync.Mutex
	recs []*repo.TransitionRecord
}

func (s *fakeSink) AppendTransition(ctx context.Context, rec *repo.TransitionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func TestJoinSendsNullSnapshotForUnknownRoom(t *testing.T) {
	h, _ := newTestHub()
	c := newFakeClient("c1", RoleDisplay)

	if err := dispatch(t, h, c, "join", `{"gameId":"123456"}`); err != nil {
		t.Fatalf("join: %v", err)
	}
	snaps := c.snapshots(t)
	if len(snaps) != 1 || snaps[0] != nil {
		t.Fatalf("expected one null snapshot, got %d", len(snaps))
	}
}

func TestDisplayClientCannotMutate(t *testing.T) {
	h, _ := newTestHub()
	if _, err := h.CreateRoom(context.Background(), "100200"); err != nil {
		t.Fatalf("create room: %v", err)
	}

	c := newFakeClient("viewer", RoleDisplay)
	if err := dispatch(t, h, c, "join", `{"gameId":"100200"}`); err != nil {
		t.Fatalf("join: %v", err)
	}
	for _, route := range []string{"setMatchTitle", "resetGame", "undo", "advanceRound"} {
		if err := dispatch(t, h, c, route, `{"title":"x"}`); !errors.Is(err, ErrNotControl) {
			t.Fatalf("route %s by display expected ErrNotControl, got %v", route, err)
		}
	}
	waitDebounce()
	// 拒绝的指令不会产生广播
	if snaps := c.snapshots(t); len(snaps) != 1 {
		t.Fatalf("rejected commands must not broadcast, got %d snapshots", len(snaps))
	}
}

func TestDebounceCoalescesRapidMutations(t *testing.T) {
	h, _ := newTestHub()
	if _, err := h.CreateRoom(context.Background(), "100200"); err != nil {
		t.Fatalf("create room: %v", err)
	}

	ctrl := newFakeClient("ctrl", RoleControl)
	viewer := newFakeClient("viewer", RoleDisplay)
	if err := dispatch(t, h, ctrl, "join", `{"gameId":"100200"}`); err != nil {
		t.Fatalf("join ctrl: %v", err)
	}
	if err := dispatch(t, h, viewer, "join", `{"gameId":"100200"}`); err != nil {
		t.Fatalf("join viewer: %v", err)
	}

	// 防抖窗口内的两次修改只广播一次，内容是第二次的状态
	if err := dispatch(t, h, ctrl, "setMatchTitle", `{"title":"first"}`); err != nil {
		t.Fatalf("first mutation: %v", err)
	}
	if err := dispatch(t, h, ctrl, "setMatchTitle", `{"title":"second"}`); err != nil {
		t.Fatalf("second mutation: %v", err)
	}
	waitDebounce()

	snaps := viewer.snapshots(t)
	if len(snaps) != 2 { // join 补发 + 一次防抖广播
		t.Fatalf("expected exactly one debounced broadcast, got %d snapshots", len(snaps))
	}
	if snaps[1].MatchTitle != "second" {
		t.Fatalf("broadcast must carry the latest state, got title %q", snaps[1].MatchTitle)
	}
}

func TestFirstControlMutationInitializesRoom(t *testing.T) {
	h, store := newTestHub()
	ctrl := newFakeClient("ctrl", RoleControl)
	if err := dispatch(t, h, ctrl, "join", `{"gameId":"999999"}`); err != nil {
		t.Fatalf("join: %v", err)
	}

	// 新房间的第一条控制指令直接按默认开局建档，不需要先走 create 或 resetGame
	if err := dispatch(t, h, ctrl, "setMatchTitle", `{"title":"第一节"}`); err != nil {
		t.Fatalf("first mutation on fresh room: %v", err)
	}
	st, err := h.Snapshot(context.Background(), "999999")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if st.MatchTitle != "第一节" {
		t.Fatalf("title = %q, want 第一节", st.MatchTitle)
	}
	if st.ScoreSum() != mahjong.TotalPool {
		t.Fatalf("fresh room must start with the full pool, got %d", st.ScoreSum())
	}

	waitDebounce()
	if _, err := store.Load(context.Background(), "999999"); err != nil {
		t.Fatalf("auto-created room must be persisted on flush: %v", err)
	}
}

func TestDebounceResetsOnEachMutation(t *testing.T) {
	h, _ := newTestHub()
	ctrl := newFakeClient("ctrl", RoleControl)
	viewer := newFakeClient("viewer", RoleDisplay)
	if err := dispatch(t, h, ctrl, "join", `{"gameId":"100200"}`); err != nil {
		t.Fatalf("join ctrl: %v", err)
	}
	if err := dispatch(t, h, viewer, "join", `{"gameId":"100200"}`); err != nil {
		t.Fatalf("join viewer: %v", err)
	}

	// 连续修改跨过首个窗口：计时器每次都重置，中间状态不推，静默后只推最终状态
	for i, title := range []string{"a", "b", "c"} {
		if i > 0 {
			time.Sleep(20 * time.Millisecond)
		}
		if err := dispatch(t, h, ctrl, "setMatchTitle", fmt.Sprintf(`{"title":%q}`, title)); err != nil {
			t.Fatalf("mutation %s: %v", title, err)
		}
	}
	waitDebounce()

	snaps := viewer.snapshots(t)
	if len(snaps) != 2 { // join 补发 + 一次广播
		t.Fatalf("expected join snapshot plus one broadcast, got %d", len(snaps))
	}
	if snaps[1].MatchTitle != "c" {
		t.Fatalf("intermediate state must not be published, got %q", snaps[1].MatchTitle)
	}
}

func TestRejoinLeavesPreviousRoom(t *testing.T) {
	h, _ := newTestHub()
	ctrl := newFakeClient("ctrl", RoleControl)
	viewer := newFakeClient("viewer", RoleDisplay)
	if err := dispatch(t, h, ctrl, "join", `{"gameId":"111111"}`); err != nil {
		t.Fatalf("join ctrl: %v", err)
	}
	if err := dispatch(t, h, viewer, "join", `{"gameId":"111111"}`); err != nil {
		t.Fatalf("join viewer: %v", err)
	}

	// 切房后旧房间的广播不再送达
	if err := dispatch(t, h, viewer, "join", `{"gameId":"222222"}`); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if got := viewer.sess.GetGameID(); got != "222222" {
		t.Fatalf("session gameId = %q, want 222222", got)
	}
	if err := dispatch(t, h, ctrl, "setMatchTitle", `{"title":"旧房间"}`); err != nil {
		t.Fatalf("mutation: %v", err)
	}
	waitDebounce()

	if snaps := viewer.snapshots(t); len(snaps) != 2 {
		t.Fatalf("viewer must only hold the two join snapshots, got %d", len(snaps))
	}
	if snaps := ctrl.snapshots(t); len(snaps) != 2 {
		t.Fatalf("old room must still broadcast to its members, got %d", len(snaps))
	}
}

func TestFlushRecordsLatestRouteAndActor(t *testing.T) {
	store := repo.NewMemorySnapshotStore()
	sink := &fakeSink{}
	h := NewSyncHub(testConf(), store, sink)

	first := &fakeClient{sess: NewSession("c1", RoleControl, "op-1")}
	second := &fakeClient{sess: NewSession("c2", RoleControl, "op-2")}
	for _, c := range []*fakeClient{first, second} {
		if err := dispatch(t, h, c, "join", `{"gameId":"100200"}`); err != nil {
			t.Fatalf("join %s: %v", c.ID(), err)
		}
	}

	// 同一窗口里两条不同来源的变更，合并记录取最后一条的路由和操作者
	if err := dispatch(t, h, first, "setMatchTitle", `{"title":"x"}`); err != nil {
		t.Fatalf("first mutation: %v", err)
	}
	if err := dispatch(t, h, second, "setDora", `{"tiles":["5s"]}`); err != nil {
		t.Fatalf("second mutation: %v", err)
	}
	waitDebounce()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.recs) != 1 {
		t.Fatalf("expected one coalesced transition record, got %d", len(sink.recs))
	}
	if rec := sink.recs[0]; rec.Route != "setDora" || rec.Actor != "op-2" {
		t.Fatalf("record = %s by %s, want setDora by op-2", rec.Route, rec.Actor)
	}
}

func TestPersistFailureDoesNotBlockBroadcast(t *testing.T) {
	h, store := newTestHub()
	if _, err := h.CreateRoom(context.Background(), "100200"); err != nil {
		t.Fatalf("create room: %v", err)
	}

	ctrl := newFakeClient("ctrl", RoleControl)
	if err := dispatch(t, h, ctrl, "join", `{"gameId":"100200"}`); err != nil {
		t.Fatalf("join: %v", err)
	}

	store.FailSave = true
	if err := dispatch(t, h, ctrl, "setMatchTitle", `{"title":"degraded"}`); err != nil {
		t.Fatalf("mutation: %v", err)
	}
	waitDebounce()

	snaps := ctrl.snapshots(t)
	if len(snaps) != 2 {
		t.Fatalf("broadcast must go out despite persistence failure, got %d snapshots", len(snaps))
	}
	if snaps[1].MatchTitle != "degraded" {
		t.Fatalf("unexpected title %q", snaps[1].MatchTitle)
	}
}

func TestUndoRestoresPreviousState(t *testing.T) {
	h, _ := newTestHub()
	if _, err := h.CreateRoom(context.Background(), "100200"); err != nil {
		t.Fatalf("create room: %v", err)
	}

	ctrl := newFakeClient("ctrl", RoleControl)
	if err := dispatch(t, h, ctrl, "join", `{"gameId":"100200"}`); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := dispatch(t, h, ctrl, "applyWin", `{"type":"tsumo","winner":"东","han":3,"fu":30}`); err != nil {
		t.Fatalf("applyWin: %v", err)
	}
	mid, err := h.Snapshot(context.Background(), "100200")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if mid.PlayerAt(mahjong.East).Score != 31000 {
		t.Fatalf("settlement not applied, east = %d", mid.PlayerAt(mahjong.East).Score)
	}

	if err := dispatch(t, h, ctrl, "undo", ""); err != nil {
		t.Fatalf("undo: %v", err)
	}
	restored, err := h.Snapshot(context.Background(), "100200")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if restored.PlayerAt(mahjong.East).Score != 25000 {
		t.Fatalf("undo must restore scores, east = %d", restored.PlayerAt(mahjong.East).Score)
	}
	if restored.Round.Honba != 0 {
		t.Fatalf("undo must restore round, honba = %d", restored.Round.Honba)
	}

	// 历史耗尽后继续回退报错
	if err := dispatch(t, h, ctrl, "undo", ""); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestRiichiCommandFlow(t *testing.T) {
	h, _ := newTestHub()
	if _, err := h.CreateRoom(context.Background(), "100200"); err != nil {
		t.Fatalf("create room: %v", err)
	}

	ctrl := newFakeClient("ctrl", RoleControl)
	if err := dispatch(t, h, ctrl, "join", `{"gameId":"100200"}`); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := dispatch(t, h, ctrl, "declareRiichi", `{"position":"南"}`); err != nil {
		t.Fatalf("declare: %v", err)
	}
	st, _ := h.Snapshot(context.Background(), "100200")
	if !st.PlayerAt(mahjong.South).IsRiichi {
		t.Fatalf("south must be marked riichi")
	}
	// 宣言未成立：实际分数不动，展示分数已扣 1000
	if st.PlayerAt(mahjong.South).Score != 25000 {
		t.Fatalf("declared riichi must not deduct real score yet, got %d", st.PlayerAt(mahjong.South).Score)
	}
	if st.PlayerAt(mahjong.South).DisplayScore != 24000 {
		t.Fatalf("display score must show the pending stick, got %d", st.PlayerAt(mahjong.South).DisplayScore)
	}
	if st.RiichiSticks != 1 {
		t.Fatalf("stick count = %d, want 1", st.RiichiSticks)
	}

	if err := dispatch(t, h, ctrl, "confirmRiichi", `{"position":"南"}`); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	// 成立后立直家放铳：扣这根棒，赢家把桌上供托收走
	if err := dispatch(t, h, ctrl, "applyWin", `{"type":"ron","winner":"西","loser":"南","han":2,"fu":40}`); err != nil {
		t.Fatalf("applyWin: %v", err)
	}
	st, _ = h.Snapshot(context.Background(), "100200")
	if got := st.PlayerAt(mahjong.West).Score; got != 25000+2600+1000 {
		t.Fatalf("west = %d, want %d", got, 25000+2600+1000)
	}
	if got := st.PlayerAt(mahjong.South).Score; got != 25000-2600-1000 {
		t.Fatalf("south = %d, want %d", got, 25000-2600-1000)
	}
	if st.ScoreSum() != mahjong.TotalPool {
		t.Fatalf("pool broken: %d", st.ScoreSum())
	}
}

func TestSetScoreRenormalizesPool(t *testing.T) {
	h, _ := newTestHub()
	if _, err := h.CreateRoom(context.Background(), "100200"); err != nil {
		t.Fatalf("create room: %v", err)
	}

	ctrl := newFakeClient("ctrl", RoleControl)
	if err := dispatch(t, h, ctrl, "join", `{"gameId":"100200"}`); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := dispatch(t, h, ctrl, "setScore", `{"position":"东","score":31000}`); err != nil {
		t.Fatalf("setScore: %v", err)
	}
	st, _ := h.Snapshot(context.Background(), "100200")
	if st.PlayerAt(mahjong.East).Score != 31000 {
		t.Fatalf("east = %d, want 31000", st.PlayerAt(mahjong.East).Score)
	}
	if st.ScoreSum() != mahjong.TotalPool {
		t.Fatalf("setScore must keep the pool at %d, got %d", mahjong.TotalPool, st.ScoreSum())
	}
}

func TestRoomRecoveredFromStoreOnJoin(t *testing.T) {
	store := repo.NewMemorySnapshotStore()
	seeded := mahjong.NewGameState()
	seeded.MatchTitle = "第二节"
	if err := store.Save(context.Background(), "654321", seeded); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	h := NewSyncHub(testConf(), store, nil)
	c := newFakeClient("viewer", RoleDisplay)
	if err := dispatch(t, h, c, "join", `{"gameId":"654321"}`); err != nil {
		t.Fatalf("join: %v", err)
	}
	snaps := c.snapshots(t)
	if len(snaps) != 1 || snaps[0] == nil {
		t.Fatalf("expected seeded snapshot on join")
	}
	if snaps[0].MatchTitle != "第二节" {
		t.Fatalf("recovered title = %q", snaps[0].MatchTitle)
	}
}

func TestHistoryRingCapacity(t *testing.T) {
	h, _ := newTestHub()
	if _, err := h.CreateRoom(context.Background(), "100200"); err != nil {
		t.Fatalf("create room: %v", err)
	}
	ctrl := newFakeClient("ctrl", RoleControl)
	if err := dispatch(t, h, ctrl, "join", `{"gameId":"100200"}`); err != nil {
		t.Fatalf("join: %v", err)
	}

	// 超出容量后最旧的回退点被覆盖，undo 最多回到第 51 次之前
	for i := 0; i < 60; i++ {
		data := fmt.Sprintf(`{"title":"t%d"}`, i)
		if err := dispatch(t, h, ctrl, "setMatchTitle", data); err != nil {
			t.Fatalf("mutation %d: %v", i, err)
		}
	}
	undone := 0
	for {
		if err := dispatch(t, h, ctrl, "undo", ""); err != nil {
			break
		}
		undone++
	}
	if undone != 50 {
		t.Fatalf("history cap expected 50 undos, got %d", undone)
	}
	st, _ := h.Snapshot(context.Background(), "100200")
	if st.MatchTitle != "t9" {
		t.Fatalf("after exhausting history expected title t9, got %q", st.MatchTitle)
	}
}
