package server

import "time"

// Projectile 服务端权威子弹：按速度逐 Tick 扫掠推进
// 出界、超时或首次命中即移除
type Projectile struct {
	ID        int64
	OwnerID   PlayerID
	Pos       Vec2
	Vel       Vec2 // 单位/秒
	Radius    float64
	ExpiresAt time.Time
}

// spawnProjectile 在射手位置生成子弹，射程决定存活时长
func (r *Room) spawnProjectile(p *Player, dir Vec2, cfg *Config, now time.Time) *Projectile {
	r.nextProjectileID++
	ttl := time.Duration(cfg.BulletRange / cfg.BulletSpeed * float64(time.Second))
	pr := &Projectile{
		ID:        r.nextProjectileID,
		OwnerID:   p.ID,
		Pos:       p.Pos,
		Vel:       dir.Scale(cfg.BulletSpeed),
		Radius:    cfg.BulletRadius,
		ExpiresAt: now.Add(ttl),
	}
	r.Projectiles = append(r.Projectiles, pr)
	return pr
}

func (pr *Projectile) view() ProjectileView {
	return ProjectileView{
		ID:      pr.ID,
		OwnerID: string(pr.OwnerID),
		X:       pr.Pos.X,
		Y:       pr.Pos.Y,
		VX:      pr.Vel.X,
		VY:      pr.Vel.Y,
		Radius:  pr.Radius,
	}
}
