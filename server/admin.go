package server

import (
	"encoding/json"
	"net/http"
)

// HandleAdminConfig 提供模拟参数的读取与更新（热更新基本规则）
// GET /admin/config  返回当前配置
// POST /admin/config 以 JSON 载荷更新部分字段
func (g *Game) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	type cfg struct {
		MoveSpeed       *float64 `json:"moveSpeed,omitempty"`
		MoveIntervalMs  *int     `json:"moveIntervalMs,omitempty"`
		ShootCooldownMs *int     `json:"shootCooldownMs,omitempty"`
		BulletSpeed     *float64 `json:"bulletSpeed,omitempty"`
		BulletRange     *float64 `json:"bulletRange,omitempty"`
		HitRadius       *float64 `json:"hitRadius,omitempty"`
		Damage          *int     `json:"damage,omitempty"`
		RespawnDelayMs  *int     `json:"respawnDelayMs,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		g.mu.Lock()
		c := g.cfg
		g.mu.Unlock()
		cur := cfg{
			MoveSpeed:       &c.MoveSpeed,
			MoveIntervalMs:  &c.MoveIntervalMs,
			ShootCooldownMs: &c.ShootCooldownMs,
			BulletSpeed:     &c.BulletSpeed,
			BulletRange:     &c.BulletRange,
			HitRadius:       &c.HitRadius,
			Damage:          &c.Damage,
			RespawnDelayMs:  &c.RespawnDelayMs,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cur)
		return
	case http.MethodPost:
		var body cfg
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		g.mu.Lock()
		if body.MoveSpeed != nil {
			g.cfg.MoveSpeed = *body.MoveSpeed
		}
		if body.MoveIntervalMs != nil {
			g.cfg.MoveIntervalMs = *body.MoveIntervalMs
		}
		if body.ShootCooldownMs != nil {
			g.cfg.ShootCooldownMs = *body.ShootCooldownMs
		}
		if body.BulletSpeed != nil {
			g.cfg.BulletSpeed = *body.BulletSpeed
		}
		if body.BulletRange != nil {
			g.cfg.BulletRange = *body.BulletRange
		}
		if body.HitRadius != nil {
			g.cfg.HitRadius = *body.HitRadius
		}
		if body.Damage != nil {
			g.cfg.Damage = *body.Damage
		}
		if body.RespawnDelayMs != nil {
			g.cfg.RespawnDelayMs = *body.RespawnDelayMs
		}
		c := g.cfg
		g.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
		Log.Infof("config updated: moveSpeed=%.2f shootCooldown=%dms bulletSpeed=%.1f damage=%d respawn=%dms",
			c.MoveSpeed, c.ShootCooldownMs, c.BulletSpeed, c.Damage, c.RespawnDelayMs)
		return
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
}

// HandleMetrics 输出全局运行指标
// GET /metrics
func (g *Game) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	players := g.sessions.Count()
	rooms := g.rooms.Count()
	g.mu.Unlock()
	payload := map[string]any{
		"players": players,
		"rooms":   rooms,
		"metrics": g.metrics.Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
