package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// RelayMetrics 记录中继服务器运行期的关键指标（用于监控与调试）
// 计数器用 atomic，HTTP 输出端与事件循环不共享锁
type RelayMetrics struct {
	ConnectionsTotal int64 // 累计接入的连接数
	ConnectionsLive  int64 // 当前存活连接数
	RoomsCreated     int64 // 累计创建的房间数
	RoomsClosed      int64 // 因离开/断线关闭的房间数
	RoomsSwept       int64 // 因空闲超时清理的房间数
	MatchesStarted   int64 // 满员开局的对局数
	UpdatesRelayed   int64 // 成功中继的状态快照数
	UpdatesDropped   int64 // 因没有对端被丢弃的快照数
	MalformedInbound int64 // 畸形入站消息数
	ErrorsSent       int64 // 回送的 error 信封数
}

// NewRelayMetrics 创建空指标收集器
func NewRelayMetrics() *RelayMetrics {
	return &RelayMetrics{}
}

func (m *RelayMetrics) IncConnected() {
	atomic.AddInt64(&m.ConnectionsTotal, 1)
	atomic.AddInt64(&m.ConnectionsLive, 1)
}
func (m *RelayMetrics) IncDisconnected()  { atomic.AddInt64(&m.ConnectionsLive, -1) }
func (m *RelayMetrics) IncRoomCreated()   { atomic.AddInt64(&m.RoomsCreated, 1) }
func (m *RelayMetrics) IncRoomClosed()    { atomic.AddInt64(&m.RoomsClosed, 1) }
func (m *RelayMetrics) IncRoomSwept()     { atomic.AddInt64(&m.RoomsSwept, 1) }
func (m *RelayMetrics) IncMatchStarted()  { atomic.AddInt64(&m.MatchesStarted, 1) }
func (m *RelayMetrics) IncUpdateRelayed() { atomic.AddInt64(&m.UpdatesRelayed, 1) }
func (m *RelayMetrics) IncUpdateDropped() { atomic.AddInt64(&m.UpdatesDropped, 1) }
func (m *RelayMetrics) IncMalformed()     { atomic.AddInt64(&m.MalformedInbound, 1) }
func (m *RelayMetrics) IncErrorSent()     { atomic.AddInt64(&m.ErrorsSent, 1) }

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RelayMetrics) Snapshot() map[string]any {
	return map[string]any{
		"connections_total": atomic.LoadInt64(&m.ConnectionsTotal),
		"connections_live":  atomic.LoadInt64(&m.ConnectionsLive),
		"rooms_created":     atomic.LoadInt64(&m.RoomsCreated),
		"rooms_closed":      atomic.LoadInt64(&m.RoomsClosed),
		"rooms_swept":       atomic.LoadInt64(&m.RoomsSwept),
		"matches_started":   atomic.LoadInt64(&m.MatchesStarted),
		"updates_relayed":   atomic.LoadInt64(&m.UpdatesRelayed),
		"updates_dropped":   atomic.LoadInt64(&m.UpdatesDropped),
		"malformed_inbound": atomic.LoadInt64(&m.MalformedInbound),
		"errors_sent":       atomic.LoadInt64(&m.ErrorsSent),
	}
}

// HandleMetrics 输出运行指标
// GET /metrics
func HandleMetrics(m *RelayMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(m.Snapshot())
	}
}
