package server

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMalformedFrameIgnored(t *testing.T) {
	g := newTestGame()
	p, fs := connect(t, g)
	fs.reset()

	g.HandleMessage(p.ID, []byte("{not json"))
	g.HandleMessage(p.ID, []byte(`{"type":"warp","payload":{}}`))
	g.HandleMessage(p.ID, []byte(`{"type":"joinRoom","payload":"not-an-object"}`))

	assert.Empty(t, fs.frames, "坏帧与未知类型不产生任何回包")
	assert.Empty(t, p.RoomID)
}

func TestLoginSetsNameAndWelcome(t *testing.T) {
	g := newTestGame()
	p, fs := connect(t, g)
	fs.reset()

	g.HandleMessage(p.ID, env(t, "login", loginPayload{Name: "  Rex  "}))

	assert.Equal(t, "Rex", p.Name)
	var wp welcomePayload
	require.True(t, fs.last(t, "welcome", &wp))
	assert.Equal(t, string(p.ID), wp.ID)
	assert.Equal(t, "Rex", wp.Name)
}

func TestCreateRoomAutoJoin(t *testing.T) {
	g := newTestGame()
	p, fs := connect(t, g)
	lobbyist, lfs := connect(t, g)
	fs.reset()
	lfs.reset()

	g.HandleMessage(p.ID, env(t, "createRoom", createRoomPayload{Name: "duel", MaxPlayers: 2}))

	require.NotEmpty(t, p.RoomID, "创建者自动入房")
	room := g.rooms.Get(p.RoomID)
	require.NotNil(t, room)
	assert.True(t, room.HasMember(p.ID))
	assert.GreaterOrEqual(t, fs.count("room"), 1, "创建者收到房间视图")
	assert.GreaterOrEqual(t, lfs.count("lobby"), 1, "大厅玩家收到房间列表更新")
	assert.Empty(t, lobbyist.RoomID)
}

func TestCreateRoomExistsError(t *testing.T) {
	g := newTestGame()
	p, fs := connect(t, g)
	makeRoom(t, g, RoomConfig{ID: "r1"})
	fs.reset()

	g.HandleMessage(p.ID, env(t, "createRoom", createRoomPayload{RoomID: "r1"}))

	var ep errorPayload
	require.True(t, fs.last(t, "error", &ep))
	assert.Equal(t, codeRoomExists, ep.Code)
	assert.Empty(t, p.RoomID)
}

// 场景：A 建 maxPlayers=2 的房，B 加入，C 再加入必须 ROOM_FULL 且 C 留在大厅
func TestJoinRoomFullScenario(t *testing.T) {
	g := newTestGame()
	a, _ := connect(t, g)
	b, _ := connect(t, g)
	c, cfs := connect(t, g)

	g.HandleMessage(a.ID, env(t, "createRoom", createRoomPayload{RoomID: "r1", MaxPlayers: 2}))
	g.HandleMessage(b.ID, env(t, "joinRoom", joinRoomPayload{RoomID: "r1"}))
	cfs.reset()
	g.HandleMessage(c.ID, env(t, "joinRoom", joinRoomPayload{RoomID: "r1"}))

	var ep errorPayload
	require.True(t, cfs.last(t, "error", &ep))
	assert.Equal(t, codeRoomFull, ep.Code)
	assert.Empty(t, c.RoomID)
	assert.Len(t, g.rooms.Get("r1").Members, 2)
}

func TestJoinRoomErrorCodes(t *testing.T) {
	g := newTestGame()
	p, fs := connect(t, g)
	makeRoom(t, g, RoomConfig{ID: "locked", Password: "secret"})

	fs.reset()
	g.HandleMessage(p.ID, env(t, "joinRoom", joinRoomPayload{RoomID: "ghost"}))
	var ep errorPayload
	require.True(t, fs.last(t, "error", &ep))
	assert.Equal(t, codeRoomNotFound, ep.Code)

	fs.reset()
	g.HandleMessage(p.ID, env(t, "joinRoom", joinRoomPayload{RoomID: "locked", Password: "wrong"}))
	require.True(t, fs.last(t, "error", &ep))
	assert.Equal(t, codeInvalidPassword, ep.Code)
	assert.Empty(t, p.RoomID)
}

func TestLeaveRoomReturnsToLobby(t *testing.T) {
	g := newTestGame()
	a, afs := connect(t, g)
	b, bfs := connect(t, g)
	makeRoom(t, g, RoomConfig{ID: "r1"}, a, b)
	afs.reset()
	bfs.reset()

	g.HandleMessage(a.ID, env(t, "leaveRoom", nil))

	assert.Empty(t, a.RoomID)
	assert.Equal(t, 1, afs.count("lobby"), "离房后收到大厅快照")
	assert.Equal(t, 1, bfs.count("room"), "剩余成员收到房间广播")
}

func TestRequestLobbyDetaches(t *testing.T) {
	g := newTestGame()
	p, fs := connect(t, g)
	makeRoom(t, g, RoomConfig{ID: "r1"}, p)
	fs.reset()

	g.HandleMessage(p.ID, env(t, "requestLobby", nil))

	assert.Empty(t, p.RoomID)
	assert.Nil(t, g.rooms.Get("r1"), "独占房随离开而删除")
	assert.GreaterOrEqual(t, fs.count("lobby"), 1)
}

func TestMoveRequiresRoomAndLife(t *testing.T) {
	g := newTestGame()
	p, _ := connect(t, g)

	g.HandleMessage(p.ID, env(t, "move", movePayload{Direction: &Vec2{1, 0}}))
	assert.Nil(t, p.MoveDir, "大厅内 move 无效")

	makeRoom(t, g, RoomConfig{ID: "r1"}, p)
	p.RespawnAt = time.Now().Add(time.Second)
	g.HandleMessage(p.ID, env(t, "move", movePayload{Direction: &Vec2{1, 0}}))
	assert.Nil(t, p.MoveDir, "重生等待中 move 无效")
}

func TestMoveDirectionPrecedence(t *testing.T) {
	g := newTestGame()
	p, _ := connect(t, g)
	makeRoom(t, g, RoomConfig{ID: "r1"}, p)

	g.HandleMessage(p.ID, env(t, "move", movePayload{
		Direction: &Vec2{3, 4},
		Target:    &Vec2{10, 10},
	}))

	require.NotNil(t, p.MoveDir, "direction 与 target 同给时 direction 优先")
	assert.Nil(t, p.MoveTarget)
	assert.InDelta(t, 1.0, p.MoveDir.Len(), 1e-9, "入站方向必须归一化")
}

func TestMoveZeroDirectionStops(t *testing.T) {
	g := newTestGame()
	p, _ := connect(t, g)
	makeRoom(t, g, RoomConfig{ID: "r1"}, p)
	g.HandleMessage(p.ID, env(t, "move", movePayload{Direction: &Vec2{0, 1}}))
	require.NotNil(t, p.MoveDir)

	g.HandleMessage(p.ID, env(t, "move", movePayload{Direction: &Vec2{0, 0}}))
	assert.Nil(t, p.MoveDir)
	assert.Nil(t, p.MoveTarget)
}

func TestMoveTargetClamped(t *testing.T) {
	g := newTestGame()
	p, _ := connect(t, g)
	makeRoom(t, g, RoomConfig{ID: "r1"}, p)

	g.HandleMessage(p.ID, env(t, "move", movePayload{Target: &Vec2{2000, -50}}))

	require.NotNil(t, p.MoveTarget)
	assert.Equal(t, Vec2{g.cfg.ArenaW, 0}, *p.MoveTarget)
}

func TestMoveRejectsNonFiniteNumbers(t *testing.T) {
	g := newTestGame()
	p, _ := connect(t, g)
	makeRoom(t, g, RoomConfig{ID: "r1"}, p)

	// 1e999 超出 float64 表示范围，解析即失败，动作被丢弃
	g.HandleMessage(p.ID, []byte(`{"type":"move","payload":{"direction":{"x":1e999,"y":0}}}`))

	assert.Nil(t, p.MoveDir)
	assert.Nil(t, p.MoveTarget)
}

func TestShootConsumesAmmo(t *testing.T) {
	g := newTestGame()
	p, _ := connect(t, g)
	room := makeRoom(t, g, RoomConfig{ID: "r1"}, p)

	g.HandleMessage(p.ID, env(t, "shoot", shootPayload{Direction: &Vec2{0, 1}}))

	assert.Equal(t, maxAmmo-1, p.Ammo, "无论命中与否弹药都消耗")
	require.Len(t, room.Projectiles, 1)
	assert.Equal(t, Vec2{0, 1}, p.AimDir)
	assert.Equal(t, p.ID, room.Projectiles[0].OwnerID)
}

func TestShootCooldown(t *testing.T) {
	g := newTestGame()
	p, _ := connect(t, g)
	room := makeRoom(t, g, RoomConfig{ID: "r1"}, p)

	g.HandleMessage(p.ID, env(t, "shoot", shootPayload{Direction: &Vec2{1, 0}}))
	g.HandleMessage(p.ID, env(t, "shoot", shootPayload{Direction: &Vec2{1, 0}}))

	assert.Equal(t, maxAmmo-1, p.Ammo, "冷却期内第二发被拒")
	assert.Len(t, room.Projectiles, 1)
}

func TestShootGates(t *testing.T) {
	g := newTestGame()
	p, _ := connect(t, g)
	room := makeRoom(t, g, RoomConfig{ID: "r1"}, p)

	p.Ammo = 0
	g.HandleMessage(p.ID, env(t, "shoot", shootPayload{Direction: &Vec2{1, 0}}))
	assert.Empty(t, room.Projectiles, "无弹药不得开火")

	p.Ammo = maxAmmo
	p.RespawnAt = time.Now().Add(time.Second)
	g.HandleMessage(p.ID, env(t, "shoot", shootPayload{Direction: &Vec2{1, 0}}))
	assert.Empty(t, room.Projectiles, "死亡状态不得开火")
	assert.Equal(t, maxAmmo, p.Ammo)
}

func TestShootAimForms(t *testing.T) {
	g := newTestGame()
	p, _ := connect(t, g)
	room := makeRoom(t, g, RoomConfig{ID: "r1"}, p)
	p.Pos = Vec2{100, 100}

	// target 形式：方向指向目标点
	g.HandleMessage(p.ID, env(t, "shoot", shootPayload{Target: &Vec2{200, 100}}))
	require.Len(t, room.Projectiles, 1)
	assert.InDelta(t, g.cfg.BulletSpeed, room.Projectiles[0].Vel.X, 1e-9)
	assert.InDelta(t, 0, room.Projectiles[0].Vel.Y, 1e-9)

	// angle 形式
	p.LastShootAt = time.Time{}
	angle := 0.0
	g.HandleMessage(p.ID, env(t, "shoot", shootPayload{Angle: &angle}))
	require.Len(t, room.Projectiles, 2)
	assert.Equal(t, Vec2{1, 0}, p.AimDir)
}

func TestChatScoping(t *testing.T) {
	g := newTestGame()
	a, afs := connect(t, g)
	b, bfs := connect(t, g)
	c, cfs := connect(t, g)
	makeRoom(t, g, RoomConfig{ID: "r1"}, a, b)
	afs.reset()
	bfs.reset()
	cfs.reset()

	g.HandleMessage(a.ID, env(t, "chat", chatPayload{Text: "push mid"}))

	var cb chatBroadcast
	require.True(t, bfs.last(t, "chat", &cb), "同房成员收到聊天")
	assert.Equal(t, "push mid", cb.Text)
	assert.Equal(t, a.Name, cb.From)
	assert.Equal(t, 0, cfs.count("chat"), "聊天不得跨出房间")

	g.HandleMessage(c.ID, env(t, "chat", chatPayload{Text: "anyone?"}))
	assert.Equal(t, 0, afs.count("chat"), "大厅聊天不得进房间")
	assert.Equal(t, 1, bfs.count("chat"), "大厅聊天不得进房间")
	assert.Equal(t, 1, cfs.count("chat"))
}

func TestChatTrimAndCap(t *testing.T) {
	g := newTestGame()
	a, _ := connect(t, g)
	b, bfs := connect(t, g)
	makeRoom(t, g, RoomConfig{ID: "r1"}, a, b)
	bfs.reset()

	g.HandleMessage(a.ID, env(t, "chat", chatPayload{Text: "   "}))
	assert.Equal(t, 0, bfs.count("chat"), "纯空白不投递")

	g.HandleMessage(a.ID, env(t, "chat", chatPayload{Text: "  " + strings.Repeat("x", chatMaxLen+50) + "  "}))
	var cb chatBroadcast
	require.True(t, bfs.last(t, "chat", &cb))
	assert.Equal(t, chatMaxLen, len([]rune(cb.Text)))
}
