package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait 单帧写出的最长等待
	writeWait = 10 * time.Second
	// maxMessageSize 入站帧上限：状态快照是小 JSON，64KB 足够
	maxMessageSize = 64 * 1024
)

// ClientConn 负责发送（写）数据到客户端的轻量包装，实现 Transport
type ClientConn struct {
	ws           *websocket.Conn
	send         chan []byte
	pingInterval time.Duration
	pongWait     time.Duration
}

// NewClientConn 包装一条已升级的 WebSocket 连接
func NewClientConn(ws *websocket.Conn, cfg Config) *ClientConn {
	return &ClientConn{
		ws:           ws,
		send:         make(chan []byte, 64),
		pingInterval: cfg.PingInterval,
		pongWait:     cfg.PongWait,
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Enqueue(b []byte) {
	select {
	case c.send <- b:
	default:
		// 为了实时性，丢弃而不阻塞事件循环；快照消息丢一帧无碍
	}
}

// Close 关闭底层连接与发送队列
// 只会被 Hub 事件循环调用一次（断开处理有终态保护）
func (c *ClientConn) Close() {
	if c.send != nil {
		// 关闭发送通道以结束写协程
		close(c.send)
		c.send = nil
	}
	_ = c.ws.Close()
}

// Addr 远端地址，仅用于日志
func (c *ClientConn) Addr() string {
	return c.ws.RemoteAddr().String()
}

// writePump 独立协程，负责从 send 队列写出到 WS，并按周期发保活 ping
func (c *ClientConn) writePump() {
	send := c.send
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 已关闭发送队列，通知对端后退出
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端消息并注入 Hub；读失败（断开/保活超时）触发统一清理
func (c *ClientConn) readPump(h *Hub, client *Client) {
	defer func() {
		h.unregister <- client
	}()
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Warnf("read error from %s: %v", c.Addr(), err)
			}
			return
		}
		h.inbound <- frame{client: client, data: payload}
	}
}

// originChecker 按配置生成 Origin 校验函数
// 白名单为空表示放行所有来源（本地开发）；线上通过 ALLOWED_ORIGINS 收紧
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if _, ok := set[origin]; ok {
			return true
		}
		Log.Warnf("rejected connection from origin %q", origin)
		return false
	}
}

// ServeWS WebSocket 接入端点：升级连接、登记会话、启动读写协程
func ServeWS(h *Hub) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(h.cfg.AllowedOrigins),
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			Log.Warnf("upgrade error: %v", err)
			return
		}
		conn := NewClientConn(ws, h.cfg)
		client := NewClient(conn)
		h.register <- client

		go conn.writePump()
		go conn.readPump(h, client)
	}
}
