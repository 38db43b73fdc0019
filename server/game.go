package server

import (
	"sync"
	"time"
)

// Config 模拟参数（数值项可经 /admin/config 热更新）
type Config struct {
	ArenaW      float64
	ArenaH      float64
	SpawnMargin float64

	MoveSpeed      float64 // 每 Tick 移动距离
	MoveIntervalMs int     // 两次 move 的最小间隔，0 表示不限

	ShootCooldownMs int
	BulletSpeed     float64 // 单位/秒
	BulletRange     float64
	BulletRadius    float64
	HitRadius       float64

	Damage         int
	RespawnDelayMs int
	ScoreHit       int
	ScoreKill      int
	ScoreDeath     int // 负值
}

func DefaultConfig() Config {
	return Config{
		ArenaW:          800,
		ArenaH:          600,
		SpawnMargin:     40,
		MoveSpeed:       5,
		MoveIntervalMs:  0,
		ShootCooldownMs: 500,
		BulletSpeed:     400,
		BulletRange:     600,
		BulletRadius:    4,
		HitRadius:       20,
		Damage:          20,
		RespawnDelayMs:  2000,
		ScoreHit:        1,
		ScoreKill:       1,
		ScoreDeath:      -5,
	}
}

// Game 核心状态机：会话、房间与模拟参数的唯一写入入口
// 单互斥锁覆盖全部权威状态；持锁路径只入队出站帧，不做网络 I/O
type Game struct {
	mu       sync.Mutex
	cfg      Config
	sessions *SessionRegistry
	rooms    *RoomRegistry
	metrics  *Metrics
}

func NewGame(cfg Config) *Game {
	return &Game{
		cfg:      cfg,
		sessions: NewSessionRegistry(),
		rooms:    NewRoomRegistry(),
		metrics:  &Metrics{},
	}
}

// Connect 新连接接入：建立会话并回送 welcome 与大厅快照
func (g *Game) Connect(conn Sender) PlayerID {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.sessions.CreatePlayer(conn, &g.cfg)
	g.sendWelcome(p)
	g.sendLobby(p)
	Log.Infof("session created: id=%s name=%s", p.ID, p.Name)
	return p.ID
}

// Disconnect 连接关闭：同一临界区内退房并销毁会话，立即释放占位
func (g *Game) Disconnect(id PlayerID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.sessions.Get(id)
	if p == nil {
		return // 幂等
	}
	remaining := g.rooms.Leave(p)
	g.sessions.Remove(id)
	if remaining != nil {
		g.broadcastRoom(remaining, time.Now())
	}
	g.broadcastLobby()
	Log.Infof("session closed: id=%s", id)
}
