package server

import (
	"errors"
	"time"
)

// frame 入站帧：来源连接 + 原始文本负载
type frame struct {
	client *Client
	data   []byte
}

// RoomInfo 管理接口展示的房间摘要
type RoomInfo struct {
	Code       string   `json:"code"`
	Mode       string   `json:"mode"`
	Players    []string `json:"players"`
	AgeSeconds float64  `json:"age_seconds"`
}

// Hub 消息路由器：所有入站信封的唯一入口
// 注册表与房间目录只在 Run 的事件循环 goroutine 里被触碰，
// 处理函数同步跑完即返回，两张 map 天然串行化，不需要锁
type Hub struct {
	cfg       Config
	registry  *Registry
	directory *Directory
	metrics   *RelayMetrics

	register   chan *Client
	unregister chan *Client
	inbound    chan frame
	snapshots  chan chan []RoomInfo

	stopCh chan struct{}
	done   chan struct{}
}

// NewHub 组装路由器与其独占的注册表、目录
// 依赖注入而非包级单例：进程启动时创建，测试时可替换传输层
func NewHub(cfg Config, m *RelayMetrics) *Hub {
	if m == nil {
		m = NewRelayMetrics()
	}
	return &Hub{
		cfg:        cfg,
		registry:   NewRegistry(),
		directory:  NewDirectory(),
		metrics:    m,
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		inbound:    make(chan frame, 256),
		snapshots:  make(chan chan []RoomInfo),
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Metrics 返回路由器的指标收集器（HTTP 输出用）
func (h *Hub) Metrics() *RelayMetrics {
	return h.metrics
}

// Run 启动事件循环，阻塞直到 Stop
// 核心循环：接入/断开/入站消息/空闲清理，全部在单线程内顺序处理
func (h *Hub) Run() {
	defer close(h.done)

	// 空闲房间清理：TTL 为 0 时禁用（nil 通道永不就绪）
	var sweepC <-chan time.Time
	if h.cfg.IdleRoomTTL > 0 {
		ticker := time.NewTicker(h.cfg.IdleRoomTTL / 2)
		defer ticker.Stop()
		sweepC = ticker.C
	}

	for {
		select {
		case c := <-h.register:
			h.handleRegister(c)
		case c := <-h.unregister:
			h.handleDisconnect(c)
		case f := <-h.inbound:
			h.handleInbound(f.client, f.data)
		case reply := <-h.snapshots:
			reply <- h.snapshotRooms()
		case <-sweepC:
			h.sweepIdleRooms()
		case <-h.stopCh:
			return
		}
	}
}

// Stop 停止事件循环并等待退出
func (h *Hub) Stop() {
	close(h.stopCh)
	<-h.done
}

// Snapshot 跨 goroutine 查询当前房间列表（管理接口用）
// 通过通道往返保持单线程所有权；路由器已停止时返回 nil
func (h *Hub) Snapshot() []RoomInfo {
	reply := make(chan []RoomInfo, 1)
	select {
	case h.snapshots <- reply:
		return <-reply
	case <-h.done:
		return nil
	}
}

// handleRegister 接入新连接：此时还没有玩家标识，等待 init
func (h *Hub) handleRegister(c *Client) {
	h.metrics.IncConnected()
	Log.Infof("client connected: %s", c.transport.Addr())
}

// handleDisconnect 连接断开的统一清理路径（优雅关闭与保活超时共用）
// 房间立即拆除，幸存者收到一次 player_disconnected
func (h *Hub) handleDisconnect(c *Client) {
	if c.state == StateClosed {
		return
	}
	wasInRoom := c.roomCode != ""
	if survivor := h.directory.Leave(c); survivor != nil {
		survivor.state = StateIdentified
		survivor.Send(&Outbound{Type: TypePlayerDisconnected})
		Log.Infof("room torn down after disconnect: peer=%s notified", survivor.playerID)
	}
	if wasInRoom {
		h.metrics.IncRoomClosed()
	}
	h.registry.Unregister(c.playerID)
	c.state = StateClosed
	c.transport.Close()
	h.metrics.IncDisconnected()
	Log.Infof("client disconnected: %s", c.transport.Addr())
}

// handleInbound 解析并分派一帧入站消息
// 畸形消息与未知类型回 error 但绝不断开；一端的坏输入不影响另一端
func (h *Hub) handleInbound(c *Client, data []byte) {
	if c.state == StateClosed {
		return
	}
	msg, err := ParseInbound(data)
	if err != nil {
		h.metrics.IncMalformed()
		Log.Warnf("malformed envelope from %s: %v", c.transport.Addr(), err)
		h.sendError(c, "Malformed message")
		return
	}

	switch m := msg.(type) {
	case InitMsg:
		h.handleInit(c)
	case CreateRoomMsg:
		h.handleCreateRoom(c, m)
	case JoinRoomMsg:
		h.handleJoinRoom(c, m)
	case GameUpdateMsg:
		h.handleGameUpdate(c, m)
	case UnrecognizedMsg:
		h.metrics.IncErrorSent()
		Log.Warnf("unknown message type %q from %s", m.Type, c.transport.Addr())
		c.SendError("Unknown message type: " + m.Type)
	}
}

// handleInit 惰性分配玩家标识；重复 init 幂等返回同一标识
// 重新生成会让旧标识下的房间占位变成孤儿，所以这里不换号
func (h *Hub) handleInit(c *Client) {
	if c.playerID == "" {
		id := h.registry.Register(c)
		c.state = StateIdentified
		Log.Infof("player registered: %s (%s)", id, c.transport.Addr())
	}
	c.Send(&Outbound{Type: TypeInitAck, PlayerID: c.playerID})
}

// handleCreateRoom 创建房间并回发房间码
func (h *Hub) handleCreateRoom(c *Client, m CreateRoomMsg) {
	if c.playerID == "" {
		h.sendError(c, "Not initialized")
		return
	}
	room, err := h.directory.Create(c, m.GameMode)
	if err != nil {
		h.sendError(c, errorText(err))
		return
	}
	c.state = StateHosting
	h.metrics.IncRoomCreated()
	c.Send(&Outbound{Type: TypeRoomCreated, RoomID: room.Code})
	Log.Infof("room created: %s mode=%s by %s", room.Code, room.Mode, c.playerID)
}

// handleJoinRoom 加入房间；满员后向双方广播 game_start
// 占用者列表创建者在前，双端据同一份列表推导玩家序号
func (h *Hub) handleJoinRoom(c *Client, m JoinRoomMsg) {
	if c.playerID == "" {
		h.sendError(c, "Not initialized")
		return
	}
	room, err := h.directory.Join(m.RoomID, c)
	if err != nil {
		h.sendError(c, errorText(err))
		return
	}
	c.state = StateJoined

	players := room.PlayerIDs()
	for _, occ := range room.Occupants() {
		occ.state = StateInMatch
		occ.Send(&Outbound{Type: TypeGameStart, Players: players})
	}
	h.metrics.IncMatchStarted()
	Log.Infof("match started: room=%s players=%v", room.Code, players)
}

// handleGameUpdate 将状态快照原样转发给同房间对端，绝不回发给发送者
// 没有对端（独守房间或不在房间）时静默丢弃，与写已关闭连接同一语义
func (h *Hub) handleGameUpdate(c *Client, m GameUpdateMsg) {
	peer := h.directory.Peer(c)
	if peer == nil {
		h.metrics.IncUpdateDropped()
		return
	}
	peer.Send(&Outbound{Type: TypeGameUpdate, State: m.State})
	h.metrics.IncUpdateRelayed()
}

// sweepIdleRooms 清理超时未满员的房间，被清理的占用者收到 error 通知
func (h *Hub) sweepIdleRooms() {
	for _, occ := range h.directory.SweepIdle(h.cfg.IdleRoomTTL) {
		occ.state = StateIdentified
		occ.SendError("Room closed: no opponent joined")
		h.metrics.IncRoomSwept()
		Log.Infof("idle room swept: occupant=%s", occ.playerID)
	}
}

// snapshotRooms 生成房间摘要列表
func (h *Hub) snapshotRooms() []RoomInfo {
	now := time.Now()
	rooms := h.directory.Rooms()
	out := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomInfo{
			Code:       r.Code,
			Mode:       r.Mode,
			Players:    r.PlayerIDs(),
			AgeSeconds: now.Sub(r.CreatedAt).Seconds(),
		})
	}
	return out
}

// sendError 回送业务错误并计数
func (h *Hub) sendError(c *Client, msg string) {
	h.metrics.IncErrorSent()
	c.SendError(msg)
}

// errorText 业务错误到人类可读消息的映射
func errorText(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, ErrRoomFull):
		return "Room is full"
	case errors.Is(err, ErrAlreadyInRoom):
		return "Already in a room"
	default:
		return "Internal error"
	}
}
