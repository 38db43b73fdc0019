package server

import "encoding/json"

// Envelope 双向消息信封：{"type":..., "payload":...}
// 入站消息在边界处解析一次，未知 type 一律丢弃
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// 客户端 → 服务端载荷

type loginPayload struct {
	Name string `json:"name"`
}

type createRoomPayload struct {
	RoomID       string `json:"roomId,omitempty"`
	Name         string `json:"name,omitempty"`
	MapID        string `json:"mapId,omitempty"`
	MaxPlayers   int    `json:"maxPlayers,omitempty"`
	TimeLimitSec int    `json:"timeLimitSec,omitempty"`
	Password     string `json:"password,omitempty"`
}

type joinRoomPayload struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password,omitempty"`
}

// movePayload 二选一：direction 持续移动 / target 点击移动
type movePayload struct {
	Direction *Vec2 `json:"direction,omitempty"`
	Target    *Vec2 `json:"target,omitempty"`
}

// shootPayload 三种瞄准形式，取第一个有效者：direction > target > angle
type shootPayload struct {
	Direction *Vec2    `json:"direction,omitempty"`
	Target    *Vec2    `json:"target,omitempty"`
	Angle     *float64 `json:"angle,omitempty"`
}

type chatPayload struct {
	Text string `json:"text"`
}

// 服务端 → 客户端载荷

type welcomePayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type lobbyPayload struct {
	Rooms []RoomSummary `json:"rooms"`
}

type roomPayload struct {
	Room RoomView `json:"room"`
}

type chatBroadcast struct {
	FromID string `json:"fromId"`
	From   string `json:"from"`
	Text   string `json:"text"`
	SentAt int64  `json:"sentAt"`
}

type leaderboardPayload struct {
	RoomID  string             `json:"roomId"`
	Entries []LeaderboardEntry `json:"entries"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// 稳定错误码（对外契约，客户端按码分支）
const (
	codeRoomNotFound    = "NOT_FOUND"
	codeRoomExists      = "ROOM_EXISTS"
	codeRoomFull        = "ROOM_FULL"
	codeInvalidPassword = "INVALID_PASSWORD"
	codeInternal        = "INTERNAL"
)

// 广播视图

// RoomSummary 大厅列表里的房间摘要
type RoomSummary struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	MapID             string `json:"mapId"`
	PasswordProtected bool   `json:"passwordProtected"`
	MaxPlayers        int    `json:"maxPlayers"`
	MemberCount       int    `json:"memberCount"`
	CreatedAt         int64  `json:"createdAt"`
	EndsAt            int64  `json:"endsAt"`
	Ended             bool   `json:"ended"`
}

// PlayerView 广播给客户端的玩家状态
type PlayerView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	HP        int     `json:"hp"`
	Ammo      int     `json:"ammo"`
	Score     int     `json:"score"`
	Kills     int     `json:"kills"`
	Deaths    int     `json:"deaths"`
	RespawnAt int64   `json:"respawnAt,omitempty"` // 毫秒时间戳，0 表示存活
}

// ProjectileView 广播给客户端的子弹状态
type ProjectileView struct {
	ID      int64   `json:"id"`
	OwnerID string  `json:"ownerId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	VX      float64 `json:"vx"`
	VY      float64 `json:"vy"`
	Radius  float64 `json:"radius"`
}

// RoomView 房间完整视图
type RoomView struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	MapID        string           `json:"mapId"`
	MaxPlayers   int              `json:"maxPlayers"`
	CreatedAt    int64            `json:"createdAt"`
	EndsAt       int64            `json:"endsAt"`
	Ended        bool             `json:"ended"`
	RemainingSec int              `json:"remainingSec"`
	Players      []PlayerView     `json:"players"`
	Projectiles  []ProjectileView `json:"projectiles"`
}

// LeaderboardEntry 终局榜单条目，按分数降序
type LeaderboardEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Kills  int    `json:"kills"`
	Deaths int    `json:"deaths"`
}
