package server

import (
	"math/rand"
	"time"
)

// Room 一场对局：容量、时限、成员与房间内的活跃子弹
// 权威状态维护在内存，由全局 Tick 推进
type Room struct {
	ID           string
	Name         string
	MapID        string
	Password     string // 空串表示无密码
	MaxPlayers   int
	TimeLimitSec int
	CreatedAt    time.Time
	EndsAt       time.Time
	Ended        bool // 到时后置位一次，此后房间停止模拟

	// Members 按加入顺序排列：命中判定与榜单并列名次按此序确定
	Members     []PlayerID
	Projectiles []*Projectile

	nextProjectileID int64
}

func (r *Room) PasswordProtected() bool { return r.Password != "" }

func (r *Room) HasMember(id PlayerID) bool {
	for _, m := range r.Members {
		if m == id {
			return true
		}
	}
	return false
}

func (r *Room) removeMember(id PlayerID) {
	for i, m := range r.Members {
		if m == id {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			return
		}
	}
}

// Summary 大厅摘要视图
func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		ID:                r.ID,
		Name:              r.Name,
		MapID:             r.MapID,
		PasswordProtected: r.PasswordProtected(),
		MaxPlayers:        r.MaxPlayers,
		MemberCount:       len(r.Members),
		CreatedAt:         r.CreatedAt.UnixMilli(),
		EndsAt:            r.EndsAt.UnixMilli(),
		Ended:             r.Ended,
	}
}

// randomSpawn 在场地安全内圈随机取出生点
func randomSpawn(cfg *Config) Vec2 {
	return Vec2{
		X: cfg.SpawnMargin + rand.Float64()*(cfg.ArenaW-2*cfg.SpawnMargin),
		Y: cfg.SpawnMargin + rand.Float64()*(cfg.ArenaH-2*cfg.SpawnMargin),
	}
}
