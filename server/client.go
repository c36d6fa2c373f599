package server

// connState 单条连接的协议状态机
// 状态只在 Hub 事件循环里流转，连接自身不做任何判断
type connState int

const (
	// StateUnidentified 初始态：尚未发送 init，没有玩家标识
	StateUnidentified connState = iota
	// StateIdentified 已分配 playerId，可以创建或加入房间
	StateIdentified
	// StateHosting 已创建房间，等待第二名玩家
	StateHosting
	// StateJoined 已加入他人房间（瞬时态，随即进入对局）
	StateJoined
	// StateInMatch 房间满员，对局进行中，状态快照双向中继
	StateInMatch
	// StateClosed 终态：连接已断开，所有关联状态已清理
	StateClosed
)

// Transport 是路由器可见的连接最小能力
// 抽出接口是为了在单元测试里用假连接替换真实 WebSocket
type Transport interface {
	// Enqueue 将一帧出站数据压入发送队列（非阻塞，满则丢弃）
	Enqueue(b []byte)
	// Close 关闭发送队列与底层连接
	Close()
	// Addr 远端地址，仅用于日志
	Addr() string
}

// Client 一条活跃连接的会话状态（标识、所在房间、状态机位置）
// 字段只由 Hub 事件循环读写，无需加锁
type Client struct {
	transport Transport
	playerID  string
	roomCode  string
	state     connState
}

// NewClient 包装一个传输层连接为会话
func NewClient(t Transport) *Client {
	return &Client{transport: t, state: StateUnidentified}
}

// Send 编码并入队一条出站消息；对端已关闭时静默丢弃
func (c *Client) Send(m *Outbound) {
	if b := m.Encode(); b != nil {
		c.transport.Enqueue(b)
	}
}

// SendError 回送错误信封，连接保持存活
func (c *Client) SendError(msg string) {
	c.Send(&Outbound{Type: TypeError, Message: msg})
}

// PlayerID 返回已分配的玩家标识，未 init 时为空串
func (c *Client) PlayerID() string { return c.playerID }

// RoomCode 返回当前占用的房间码，不在房间时为空串
func (c *Client) RoomCode() string { return c.roomCode }
