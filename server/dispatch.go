package server

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"
)

// HandleMessage 处理一条入站消息：解析信封 → 校验 → 变更状态
// 结构性坏帧静默丢弃；已识别类型的非法载荷只丢弃该动作，不断连
func (g *Game) HandleMessage(id PlayerID, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		g.metrics.IncRejected()
		Log.Debugf("drop malformed frame from %s: %v", id, err)
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.sessions.Get(id)
	if p == nil {
		return // 连接已销毁，迟到的消息作废
	}

	g.metrics.IncDispatched()
	now := time.Now()
	switch env.Type {
	case "login", "hello":
		g.handleLogin(p, env.Payload)
	case "requestLobby":
		g.handleRequestLobby(p, now)
	case "createRoom":
		g.handleCreateRoom(p, env.Payload, now)
	case "joinRoom":
		g.handleJoinRoom(p, env.Payload, now)
	case "leaveRoom":
		g.handleLeaveRoom(p, now)
	case "move":
		g.handleMove(p, env.Payload, now)
	case "shoot":
		g.handleShoot(p, env.Payload, now)
	case "chat":
		g.handleChat(p, env.Payload, now)
	default:
		g.metrics.IncRejected()
		Log.Debugf("drop unknown message type %q from %s", env.Type, id)
	}
}

func (g *Game) handleLogin(p *Player, raw json.RawMessage) {
	var lp loginPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &lp); err != nil {
			g.metrics.IncRejected()
			return
		}
	}
	g.sessions.Rename(p.ID, lp.Name)
	g.sendWelcome(p)
}

// handleRequestLobby 回到大厅：脱离当前房间并回送大厅快照
func (g *Game) handleRequestLobby(p *Player, now time.Time) {
	g.detachFromRoom(p, now)
	g.sendLobby(p)
}

// handleCreateRoom 建房并自动加入创建者
func (g *Game) handleCreateRoom(p *Player, raw json.RawMessage, now time.Time) {
	var cp createRoomPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cp); err != nil {
			g.metrics.IncRejected()
			return
		}
	}
	room, err := g.rooms.CreateRoom(RoomConfig{
		ID:           strings.TrimSpace(cp.RoomID),
		Name:         strings.TrimSpace(cp.Name),
		MapID:        strings.TrimSpace(cp.MapID),
		Password:     cp.Password,
		MaxPlayers:   cp.MaxPlayers,
		TimeLimitSec: cp.TimeLimitSec,
	}, now)
	if err != nil {
		g.sendError(p, joinErrorCode(err), err.Error())
		return
	}
	Log.Infof("room created: id=%s name=%s max=%d limit=%ds by=%s",
		room.ID, room.Name, room.MaxPlayers, room.TimeLimitSec, p.ID)
	g.broadcastLobby()
	g.joinRoom(p, room.ID, room.Password, now)
}

func (g *Game) handleJoinRoom(p *Player, raw json.RawMessage, now time.Time) {
	var jp joinRoomPayload
	if err := json.Unmarshal(raw, &jp); err != nil || jp.RoomID == "" {
		g.metrics.IncRejected()
		return
	}
	g.joinRoom(p, jp.RoomID, jp.Password, now)
}

// joinRoom 加入流程的公共路径：失败回送 error 信封且不动任何状态
func (g *Game) joinRoom(p *Player, roomID, password string, now time.Time) {
	prev := p.RoomID
	room, err := g.rooms.Join(p, roomID, password, &g.cfg)
	if err != nil {
		g.sendError(p, joinErrorCode(err), err.Error())
		return
	}
	if prev != "" && prev != room.ID {
		if pr := g.rooms.Get(prev); pr != nil {
			g.broadcastRoom(pr, now)
		}
	}
	g.broadcastRoom(room, now)
	g.broadcastLobby()
	Log.Infof("player %s joined room %s (%d/%d)", p.ID, room.ID, len(room.Members), room.MaxPlayers)
}

func (g *Game) handleLeaveRoom(p *Player, now time.Time) {
	g.detachFromRoom(p, now)
	g.sendLobby(p)
}

// detachFromRoom 脱离房间并广播受影响的各方，无房间时为 no-op
func (g *Game) detachFromRoom(p *Player, now time.Time) {
	if p.RoomID == "" {
		return
	}
	remaining := g.rooms.Leave(p)
	if remaining != nil {
		g.broadcastRoom(remaining, now)
	}
	g.broadcastLobby()
}

// handleMove 记录移动意图，下一 Tick 生效
// direction 与 target 同给时 direction 优先；零方向视为停止
func (g *Game) handleMove(p *Player, raw json.RawMessage, now time.Time) {
	if p.RoomID == "" || !p.Alive() {
		return
	}
	if room := g.rooms.Get(p.RoomID); room == nil || room.Ended {
		return
	}
	if !p.moveLimiter.Allow() {
		g.metrics.IncRateLimited()
		return
	}
	if g.cfg.MoveIntervalMs > 0 &&
		now.Sub(p.LastMoveAt) < time.Duration(g.cfg.MoveIntervalMs)*time.Millisecond {
		g.metrics.IncRateLimited()
		return
	}
	var mp movePayload
	if err := json.Unmarshal(raw, &mp); err != nil {
		g.metrics.IncRejected()
		return
	}
	switch {
	case mp.Direction != nil:
		if !mp.Direction.Finite() {
			g.metrics.IncRejected()
			return
		}
		if dir, ok := mp.Direction.Normalized(); ok {
			p.MoveDir = &dir
			p.MoveTarget = nil
		} else {
			p.clearIntent()
		}
	case mp.Target != nil:
		if !mp.Target.Finite() {
			g.metrics.IncRejected()
			return
		}
		t := clampToArena(*mp.Target, g.cfg.ArenaW, g.cfg.ArenaH)
		p.MoveTarget = &t
		p.MoveDir = nil
	default:
		g.metrics.IncRejected()
		return
	}
	p.LastMoveAt = now
}

// handleShoot 开火：活着、有弹、过了冷却才放行；弹药无论命中与否都消耗
func (g *Game) handleShoot(p *Player, raw json.RawMessage, now time.Time) {
	room := g.rooms.Get(p.RoomID)
	if room == nil || room.Ended || !p.Alive() || p.Ammo <= 0 {
		return
	}
	if now.Sub(p.LastShootAt) < time.Duration(g.cfg.ShootCooldownMs)*time.Millisecond {
		g.metrics.IncRateLimited()
		return
	}
	var sp shootPayload
	if err := json.Unmarshal(raw, &sp); err != nil {
		g.metrics.IncRejected()
		return
	}
	dir, ok := aimDirection(p, sp)
	if !ok {
		g.metrics.IncRejected()
		return
	}
	p.AimDir = dir
	p.Ammo--
	p.LastShootAt = now
	room.spawnProjectile(p, dir, &g.cfg, now)
	g.metrics.IncShots()
}

// aimDirection 解析瞄准形式，取第一个有效者：direction > target > angle
func aimDirection(p *Player, sp shootPayload) (Vec2, bool) {
	if sp.Direction != nil && sp.Direction.Finite() {
		if d, ok := sp.Direction.Normalized(); ok {
			return d, true
		}
	}
	if sp.Target != nil && sp.Target.Finite() {
		if d, ok := sp.Target.Sub(p.Pos).Normalized(); ok {
			return d, true
		}
	}
	if sp.Angle != nil && !math.IsNaN(*sp.Angle) && !math.IsInf(*sp.Angle, 0) {
		return Vec2{math.Cos(*sp.Angle), math.Sin(*sp.Angle)}, true
	}
	return Vec2{}, false
}

// handleChat 聊天只在同侧投递：房间内只达本房成员，大厅只达大厅玩家
func (g *Game) handleChat(p *Player, raw json.RawMessage, now time.Time) {
	if !p.chatLimiter.Allow() {
		g.metrics.IncRateLimited()
		return
	}
	var cp chatPayload
	if err := json.Unmarshal(raw, &cp); err != nil {
		g.metrics.IncRejected()
		return
	}
	text := strings.TrimSpace(cp.Text)
	if text == "" {
		return
	}
	if r := []rune(text); len(r) > chatMaxLen {
		text = string(r[:chatMaxLen])
	}
	msg := chatBroadcast{
		FromID: string(p.ID),
		From:   p.Name,
		Text:   text,
		SentAt: now.UnixMilli(),
	}
	if room := g.rooms.Get(p.RoomID); room != nil {
		g.sendToRoomMembers(room, "chat", msg)
	} else {
		g.sendToLobby("chat", msg)
	}
}

func joinErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return codeRoomNotFound
	case errors.Is(err, ErrRoomExists):
		return codeRoomExists
	case errors.Is(err, ErrRoomFull):
		return codeRoomFull
	case errors.Is(err, ErrInvalidPassword):
		return codeInvalidPassword
	}
	return codeInternal
}
