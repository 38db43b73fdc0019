package server

import (
	"time"

	"golang.org/x/time/rate"
)

// PlayerID 表示玩家唯一标识（会话级，不持久化）
type PlayerID string

const (
	maxHP      = 100
	maxAmmo    = 20
	nameMaxLen = 20
	chatMaxLen = 200
)

// Player 服务端权威玩家实体，生命周期与连接一致
// 由 SessionRegistry 唯一持有，房间只按 ID 反向引用
type Player struct {
	ID     PlayerID
	Name   string
	RoomID string // 空串表示在大厅

	Pos        Vec2
	MoveDir    *Vec2 // 持续移动方向（单位向量），与 MoveTarget 互斥
	MoveTarget *Vec2 // 点击移动的目标点
	AimDir     Vec2  // 最近一次开火方向，跨射击保留

	HP     int
	Ammo   int
	Score  int
	Kills  int
	Deaths int

	LastMoveAt  time.Time
	LastShootAt time.Time
	RespawnAt   time.Time // 非零值表示死亡，重生等待期间忽略输入

	Conn Sender // 网络连接的发送端（写协程）

	moveLimiter *rate.Limiter
	chatLimiter *rate.Limiter
}

// Alive 是否存活（不在重生等待中）
func (p *Player) Alive() bool { return p.RespawnAt.IsZero() }

// clearIntent 清除移动意图
func (p *Player) clearIntent() {
	p.MoveDir = nil
	p.MoveTarget = nil
}
