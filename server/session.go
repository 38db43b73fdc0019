package server

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// SessionRegistry 以连接为生命周期管理 Player 实体（唯一属主）
// 不自带锁：全部访问由 Game 的互斥锁串行化
type SessionRegistry struct {
	players map[PlayerID]*Player
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{players: make(map[PlayerID]*Player)}
}

// CreatePlayer 连接建立时创建玩家：默认呼号、满血满弹、无房间
func (s *SessionRegistry) CreatePlayer(conn Sender, cfg *Config) *Player {
	p := &Player{
		ID:          PlayerID(uuid.NewString()),
		Name:        fmt.Sprintf("Player-%04d", rand.Intn(10000)),
		Pos:         Vec2{cfg.ArenaW / 2, cfg.ArenaH / 2},
		AimDir:      Vec2{1, 0},
		HP:          maxHP,
		Ammo:        maxAmmo,
		Conn:        conn,
		moveLimiter: rate.NewLimiter(rate.Limit(60), 120),
		chatLimiter: rate.NewLimiter(rate.Limit(5), 10),
	}
	s.players[p.ID] = p
	return p
}

func (s *SessionRegistry) Get(id PlayerID) *Player { return s.players[id] }

// Remove 删除会话，幂等；调用方须先处理房间脱离
func (s *SessionRegistry) Remove(id PlayerID) { delete(s.players, id) }

// Rename 改名：去空白、按字符截断，空串回退旧名
func (s *SessionRegistry) Rename(id PlayerID, proposed string) string {
	p := s.players[id]
	if p == nil {
		return ""
	}
	name := strings.TrimSpace(proposed)
	if name == "" {
		return p.Name
	}
	if r := []rune(name); len(r) > nameMaxLen {
		name = string(r[:nameMaxLen])
	}
	p.Name = name
	return p.Name
}

// All 返回全部在线玩家（仅供持锁路径遍历）
func (s *SessionRegistry) All() map[PlayerID]*Player { return s.players }

func (s *SessionRegistry) Count() int { return len(s.players) }
