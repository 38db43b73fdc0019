package server

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomExists      = errors.New("room already exists")
	ErrRoomFull        = errors.New("room is full")
	ErrInvalidPassword = errors.New("invalid password")
)

const (
	minRoomPlayers      = 2
	maxRoomPlayers      = 16
	defaultRoomPlayers  = 8
	minTimeLimitSec     = 30
	maxTimeLimitSec     = 3600
	defaultTimeLimitSec = 300
)

// RoomConfig 创建房间的入参（数值字段越界会被裁剪）
type RoomConfig struct {
	ID           string
	Name         string
	MapID        string
	Password     string
	MaxPlayers   int
	TimeLimitSec int
}

// RoomRegistry 管理全部房间的生命周期（唯一属主）
// 不自带锁：全部访问由 Game 的互斥锁串行化
type RoomRegistry struct {
	rooms map[string]*Room
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]*Room)}
}

func (m *RoomRegistry) Get(id string) *Room {
	if id == "" {
		return nil
	}
	return m.rooms[id]
}

func (m *RoomRegistry) All() map[string]*Room { return m.rooms }

func (m *RoomRegistry) Count() int { return len(m.rooms) }

// CreateRoom 创建房间：调用方自带的 ID 撞号即失败，未给 ID 则生成
func (m *RoomRegistry) CreateRoom(cfg RoomConfig, now time.Time) (*Room, error) {
	if cfg.ID != "" {
		if _, ok := m.rooms[cfg.ID]; ok {
			return nil, ErrRoomExists
		}
	} else {
		cfg.ID = uuid.NewString()
	}
	if cfg.Name == "" {
		suffix := cfg.ID
		if len(suffix) > 4 {
			suffix = suffix[:4]
		}
		cfg.Name = "Room-" + suffix
	}
	if r := []rune(cfg.Name); len(r) > nameMaxLen {
		cfg.Name = string(r[:nameMaxLen])
	}
	if cfg.MapID == "" {
		cfg.MapID = "arena"
	}
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = defaultRoomPlayers
	}
	if cfg.TimeLimitSec == 0 {
		cfg.TimeLimitSec = defaultTimeLimitSec
	}
	maxPlayers := clampInt(cfg.MaxPlayers, minRoomPlayers, maxRoomPlayers)
	timeLimit := clampInt(cfg.TimeLimitSec, minTimeLimitSec, maxTimeLimitSec)

	room := &Room{
		ID:           cfg.ID,
		Name:         cfg.Name,
		MapID:        cfg.MapID,
		Password:     cfg.Password,
		MaxPlayers:   maxPlayers,
		TimeLimitSec: timeLimit,
		CreatedAt:    now,
		EndsAt:       now.Add(time.Duration(timeLimit) * time.Second),
	}
	m.rooms[room.ID] = room
	return room, nil
}

// Join 加入房间：先行脱离旧房间，重置战斗状态并随机出生点
func (m *RoomRegistry) Join(p *Player, roomID, password string, cfg *Config) (*Room, error) {
	room, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if room.PasswordProtected() && room.Password != password {
		return nil, ErrInvalidPassword
	}
	if len(room.Members) >= room.MaxPlayers {
		return nil, ErrRoomFull
	}
	m.Leave(p) // 无旧房间时为 no-op
	p.RoomID = room.ID
	p.Pos = randomSpawn(cfg)
	p.HP = maxHP
	p.Ammo = maxAmmo
	p.RespawnAt = time.Time{}
	p.clearIntent()
	room.Members = append(room.Members, p.ID)
	return room, nil
}

// Leave 离开房间；最后一名成员离开即删除房间，杜绝空房泄漏
// 返回仍有成员的原房间（供调用方广播），房间已删或本就无房间时返回 nil
func (m *RoomRegistry) Leave(p *Player) *Room {
	if p.RoomID == "" {
		return nil
	}
	room, ok := m.rooms[p.RoomID]
	p.RoomID = ""
	if !ok {
		return nil // 悬挂引用：就地清理即可
	}
	room.removeMember(p.ID)
	if len(room.Members) == 0 {
		delete(m.rooms, room.ID)
		return nil
	}
	return room
}

// Delete 直接删除房间（成员引用由调用方清理）
func (m *RoomRegistry) Delete(id string) { delete(m.rooms, id) }

// Summaries 大厅房间列表，创建时间新者在前
func (m *RoomRegistry) Summaries() []RoomSummary {
	out := make([]RoomSummary, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
