package server

import (
	"encoding/json"
	"time"
)

// 广播路径约定：持锁时只做序列化与入队，真正的网络写在各连接写协程

// envelopeBytes 组装 {type, payload} 信封并序列化一次
func envelopeBytes(typ string, payload any) []byte {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			Log.Errorf("marshal %s payload: %v", typ, err)
			return nil
		}
		raw = b
	}
	b, err := json.Marshal(Envelope{Type: typ, Payload: raw})
	if err != nil {
		Log.Errorf("marshal %s envelope: %v", typ, err)
		return nil
	}
	return b
}

func enqueue(p *Player, b []byte) {
	if p.Conn != nil && b != nil {
		p.Conn.Enqueue(b)
	}
}

func (g *Game) sendWelcome(p *Player) {
	enqueue(p, envelopeBytes("welcome", welcomePayload{ID: string(p.ID), Name: p.Name}))
}

func (g *Game) sendError(p *Player, code, message string) {
	enqueue(p, envelopeBytes("error", errorPayload{Code: code, Message: message}))
}

func (g *Game) sendLobby(p *Player) {
	enqueue(p, envelopeBytes("lobby", lobbyPayload{Rooms: g.rooms.Summaries()}))
}

// broadcastLobby 大厅快照推给所有无房间的玩家，单次序列化
func (g *Game) broadcastLobby() {
	b := envelopeBytes("lobby", lobbyPayload{Rooms: g.rooms.Summaries()})
	if b == nil {
		return
	}
	for _, p := range g.sessions.All() {
		if p.RoomID == "" {
			enqueue(p, b)
		}
	}
	g.metrics.IncBroadcasts()
}

// broadcastRoom 房间完整视图推给全体成员，单次序列化
func (g *Game) broadcastRoom(room *Room, now time.Time) {
	b := envelopeBytes("room", roomPayload{Room: g.roomView(room, now)})
	if b == nil {
		return
	}
	for _, id := range room.Members {
		if p := g.sessions.Get(id); p != nil {
			enqueue(p, b)
		}
	}
	g.metrics.IncBroadcasts()
}

// sendToRoomMembers 任意类型消息推给房间全体成员
func (g *Game) sendToRoomMembers(room *Room, typ string, payload any) {
	b := envelopeBytes(typ, payload)
	if b == nil {
		return
	}
	for _, id := range room.Members {
		if p := g.sessions.Get(id); p != nil {
			enqueue(p, b)
		}
	}
}

// sendToLobby 任意类型消息推给大厅全体玩家
func (g *Game) sendToLobby(typ string, payload any) {
	b := envelopeBytes(typ, payload)
	if b == nil {
		return
	}
	for _, p := range g.sessions.All() {
		if p.RoomID == "" {
			enqueue(p, b)
		}
	}
}

// roomView 组装房间完整视图（剩余时间按墙钟换算）
func (g *Game) roomView(room *Room, now time.Time) RoomView {
	players := make([]PlayerView, 0, len(room.Members))
	for _, id := range room.Members {
		p := g.sessions.Get(id)
		if p == nil {
			continue
		}
		pv := PlayerView{
			ID:     string(p.ID),
			Name:   p.Name,
			X:      p.Pos.X,
			Y:      p.Pos.Y,
			HP:     p.HP,
			Ammo:   p.Ammo,
			Score:  p.Score,
			Kills:  p.Kills,
			Deaths: p.Deaths,
		}
		if !p.RespawnAt.IsZero() {
			pv.RespawnAt = p.RespawnAt.UnixMilli()
		}
		players = append(players, pv)
	}
	projectiles := make([]ProjectileView, 0, len(room.Projectiles))
	for _, pr := range room.Projectiles {
		projectiles = append(projectiles, pr.view())
	}
	remaining := 0
	if !room.Ended {
		if d := room.EndsAt.Sub(now); d > 0 {
			remaining = int(d / time.Second)
		}
	}
	return RoomView{
		ID:           room.ID,
		Name:         room.Name,
		MapID:        room.MapID,
		MaxPlayers:   room.MaxPlayers,
		CreatedAt:    room.CreatedAt.UnixMilli(),
		EndsAt:       room.EndsAt.UnixMilli(),
		Ended:        room.Ended,
		RemainingSec: remaining,
		Players:      players,
		Projectiles:  projectiles,
	}
}
