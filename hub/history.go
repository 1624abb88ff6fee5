package hub

import "github.com/cingweng66/Rmah-Live/mahjong"

// historyEntry 一次操作落下的回退点：操作前的完整快照
type historyEntry struct {
	route string
	state *mahjong.GameState
}

// historyRing 定长环形缓冲，容量满后覆盖最旧的回退点
// 只存内存，房间被释放后历史即丢失
type historyRing struct {
	entries []historyEntry
	head    int // 下一个写入位置
	size    int
}

func newHistoryRing(cap int) *historyRing {
	if cap <= 0 {
		cap = 1
	}
	return &historyRing{entries: make([]historyEntry, cap)}
}

func (h *historyRing) push(route string, state *mahjong.GameState) {
	h.entries[h.head] = historyEntry{route: route, state: state.Clone()}
	h.head = (h.head + 1) % len(h.entries)
	if h.size < len(h.entries) {
		h.size++
	}
}

// pop 取出最近的回退点，没有时返回 nil
func (h *historyRing) pop() *historyEntry {
	if h.size == 0 {
		return nil
	}
	h.head = (h.head - 1 + len(h.entries)) % len(h.entries)
	h.size--
	e := h.entries[h.head]
	h.entries[h.head] = historyEntry{}
	return &e
}
