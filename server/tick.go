package server

import (
	"context"
	"sort"
	"time"
)

const (
	// TicksPerSecond 世界推进频率（20 TPS）
	TicksPerSecond = 20

	// moveEpsilon 与目标点的吸附距离
	moveEpsilon = 1.0
)

var tickInterval = time.Second / TicksPerSecond // 50ms

// StartTicker 启动全局模拟循环：固定间隔推进所有房间
// 时间性状态迁移（重生、终局、子弹过期）一律用墙钟截止时间，避免累积漂移
func (g *Game) StartTicker(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				start := time.Now()
				g.stepOnce(now)
				g.metrics.AddTick(time.Since(start).Nanoseconds())
			}
		}
	}()
}

// stepOnce 推进一个 Tick：终局检查 → 重生 → 移动 → 子弹 → 广播
func (g *Game) stepOnce(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, room := range g.rooms.All() {
		if g.pruneMembers(room) {
			continue // 房间已清空删除
		}
		if room.Ended {
			continue // 终局房间停摆，等成员看完榜单离开
		}
		if !now.Before(room.EndsAt) {
			g.endRoom(room, now)
			continue
		}
		g.resolveRespawns(room, now)
		g.integrateMovement(room)
		g.integrateProjectiles(room, now)
		g.broadcastRoom(room, now)
	}
}

// pruneMembers 清理悬挂成员引用（正常流程不会出现，出现则就地纠正）
// 返回 true 表示房间因此清空并被删除
func (g *Game) pruneMembers(room *Room) bool {
	kept := room.Members[:0]
	for _, id := range room.Members {
		if g.sessions.Get(id) != nil {
			kept = append(kept, id)
		} else {
			Log.Warnf("dangling member %s pruned from room %s", id, room.ID)
		}
	}
	room.Members = kept
	if len(room.Members) == 0 {
		g.rooms.Delete(room.ID)
		return true
	}
	return false
}

// endRoom 终局结算：榜单只发一次，随后广播终态并刷新大厅摘要
func (g *Game) endRoom(room *Room, now time.Time) {
	room.Ended = true
	g.sendToRoomMembers(room, "leaderboard", leaderboardPayload{
		RoomID:  room.ID,
		Entries: g.leaderboard(room),
	})
	g.broadcastRoom(room, now)
	g.broadcastLobby()
	Log.Infof("room %s ended after %ds", room.ID, room.TimeLimitSec)
}

// leaderboard 按分数降序，同分按加入顺序保持稳定
func (g *Game) leaderboard(room *Room) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(room.Members))
	for _, id := range room.Members {
		p := g.sessions.Get(id)
		if p == nil {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			ID:     string(p.ID),
			Name:   p.Name,
			Score:  p.Score,
			Kills:  p.Kills,
			Deaths: p.Deaths,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	return entries
}

// resolveRespawns 重生结算：到点即满状态复活并随机换点
func (g *Game) resolveRespawns(room *Room, now time.Time) {
	for _, id := range room.Members {
		p := g.sessions.Get(id)
		if p == nil || p.RespawnAt.IsZero() || now.Before(p.RespawnAt) {
			continue
		}
		p.RespawnAt = time.Time{}
		p.HP = maxHP
		p.Ammo = maxAmmo
		p.Pos = randomSpawn(&g.cfg)
	}
}

// integrateMovement 移动积分；重生等待中的玩家冻结
func (g *Game) integrateMovement(room *Room) {
	for _, id := range room.Members {
		p := g.sessions.Get(id)
		if p == nil || !p.Alive() {
			continue
		}
		switch {
		case p.MoveDir != nil:
			p.Pos = clampToArena(p.Pos.Add(p.MoveDir.Scale(g.cfg.MoveSpeed)), g.cfg.ArenaW, g.cfg.ArenaH)
		case p.MoveTarget != nil:
			rem := p.MoveTarget.Sub(p.Pos)
			dist := rem.Len()
			if dist <= moveEpsilon {
				p.Pos = *p.MoveTarget
				p.MoveTarget = nil
				continue
			}
			step := g.cfg.MoveSpeed
			if dist < step {
				step = dist
			}
			dir, _ := rem.Normalized()
			p.Pos = clampToArena(p.Pos.Add(dir.Scale(step)), g.cfg.ArenaW, g.cfg.ArenaH)
		}
	}
}

// integrateProjectiles 子弹积分：先淘汰过期/出界，再做扫掠命中
// 一颗子弹每 Tick 至多命中一人，命中即消耗
func (g *Game) integrateProjectiles(room *Room, now time.Time) {
	if len(room.Projectiles) == 0 {
		return
	}
	dt := tickInterval.Seconds()
	kept := room.Projectiles[:0]
	for _, pr := range room.Projectiles {
		if !now.Before(pr.ExpiresAt) {
			continue
		}
		next := pr.Pos.Add(pr.Vel.Scale(dt))
		if next.X < 0 || next.X > g.cfg.ArenaW || next.Y < 0 || next.Y > g.cfg.ArenaH {
			continue // 出界即消失，不再参与命中
		}
		if target := g.firstHit(room, pr, next); target != nil {
			g.applyHit(pr, target, now)
			continue
		}
		pr.Pos = next
		kept = append(kept, pr)
	}
	room.Projectiles = kept
}

// firstHit 按成员加入顺序找扫掠线段命中的第一个有效目标
// 重生等待中或血量为零的成员不是合法目标
func (g *Game) firstHit(room *Room, pr *Projectile, next Vec2) *Player {
	for _, id := range room.Members {
		t := g.sessions.Get(id)
		if t == nil || t.ID == pr.OwnerID || !t.Alive() || t.HP <= 0 {
			continue
		}
		if pointSegDist(t.Pos, pr.Pos, next) <= g.cfg.HitRadius+pr.Radius {
			return t
		}
	}
	return nil
}

// applyHit 伤害与计分：命中 +1 分，打空血再 +1 并记击杀，目标进入重生等待
func (g *Game) applyHit(pr *Projectile, target *Player, now time.Time) {
	shooter := g.sessions.Get(pr.OwnerID) // 射手可能已离场：伤害仍有效，分记不上
	target.HP -= g.cfg.Damage
	if target.HP < 0 {
		target.HP = 0
	}
	if shooter != nil {
		shooter.Score += g.cfg.ScoreHit
	}
	g.metrics.IncHits()
	if target.HP == 0 {
		if shooter != nil {
			shooter.Kills++
			shooter.Score += g.cfg.ScoreKill
		}
		target.Deaths++
		target.Score += g.cfg.ScoreDeath
		target.RespawnAt = now.Add(time.Duration(g.cfg.RespawnDelayMs) * time.Millisecond)
		target.Ammo = 0
		target.clearIntent()
		g.metrics.IncKills()
		Log.Debugf("player %s killed by %s", target.ID, pr.OwnerID)
	}
}
