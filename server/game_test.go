package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeSender 记录出站帧，供测试断言
type fakeSender struct {
	frames [][]byte
}

func (f *fakeSender) Enqueue(b []byte) { f.frames = append(f.frames, b) }
func (f *fakeSender) Close()           {}

func (f *fakeSender) reset() { f.frames = nil }

// count 统计指定类型的出站消息条数
func (f *fakeSender) count(typ string) int {
	n := 0
	for _, b := range f.frames {
		var env Envelope
		if json.Unmarshal(b, &env) == nil && env.Type == typ {
			n++
		}
	}
	return n
}

// last 解包最后一条指定类型消息的载荷到 out，找不到返回 false
func (f *fakeSender) last(t *testing.T, typ string, out any) bool {
	t.Helper()
	for i := len(f.frames) - 1; i >= 0; i-- {
		var env Envelope
		require.NoError(t, json.Unmarshal(f.frames[i], &env))
		if env.Type == typ {
			if out != nil {
				require.NoError(t, json.Unmarshal(env.Payload, out))
			}
			return true
		}
	}
	return false
}

func newTestGame() *Game {
	return NewGame(DefaultConfig())
}

// connect 建立一个带假连接的会话
func connect(t *testing.T, g *Game) (*Player, *fakeSender) {
	t.Helper()
	fs := &fakeSender{}
	id := g.Connect(fs)
	p := g.sessions.Get(id)
	require.NotNil(t, p)
	return p, fs
}

// env 组装一条客户端入站消息
func env(t *testing.T, typ string, payload any) []byte {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		raw = b
	}
	b, err := json.Marshal(Envelope{Type: typ, Payload: raw})
	require.NoError(t, err)
	return b
}

// makeRoom 直接经注册表建房并加入玩家（绕过分发器的广播路径）
func makeRoom(t *testing.T, g *Game, cfg RoomConfig, players ...*Player) *Room {
	t.Helper()
	room, err := g.rooms.CreateRoom(cfg, time.Now())
	require.NoError(t, err)
	for _, p := range players {
		_, err := g.rooms.Join(p, room.ID, cfg.Password, &g.cfg)
		require.NoError(t, err)
	}
	return room
}
