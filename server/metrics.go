package server

import (
	"sync/atomic"
)

// Metrics 记录运行期的关键指标（用于监控与调试）
type Metrics struct {
	Dispatched  int64 // 被分发的入站消息数
	Rejected    int64 // 坏帧/未知类型/非法载荷被丢弃数
	RateLimited int64 // 因限流或冷却被拒绝的动作数
	Shots       int64 // 实际开火数
	Hits        int64 // 确认命中数
	Kills       int64 // 击杀数
	Broadcasts  int64 // 广播批次数
	TickCount   int64 // 统计的 Tick 次数
	TotalTickNs int64 // Tick 累计耗时（纳秒）
}

func (m *Metrics) IncDispatched()  { atomic.AddInt64(&m.Dispatched, 1) }
func (m *Metrics) IncRejected()    { atomic.AddInt64(&m.Rejected, 1) }
func (m *Metrics) IncRateLimited() { atomic.AddInt64(&m.RateLimited, 1) }
func (m *Metrics) IncShots()       { atomic.AddInt64(&m.Shots, 1) }
func (m *Metrics) IncHits()        { atomic.AddInt64(&m.Hits, 1) }
func (m *Metrics) IncKills()       { atomic.AddInt64(&m.Kills, 1) }
func (m *Metrics) IncBroadcasts()  { atomic.AddInt64(&m.Broadcasts, 1) }

func (m *Metrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"dispatched":   atomic.LoadInt64(&m.Dispatched),
		"rejected":     atomic.LoadInt64(&m.Rejected),
		"rate_limited": atomic.LoadInt64(&m.RateLimited),
		"shots":        atomic.LoadInt64(&m.Shots),
		"hits":         atomic.LoadInt64(&m.Hits),
		"kills":        atomic.LoadInt64(&m.Kills),
		"broadcasts":   atomic.LoadInt64(&m.Broadcasts),
		"tick_count":   tick,
		"avg_tick_ms":  avgMs,
	}
}
