package server_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duelrelay/server"
)

// startRelay 起一个完整的中继服务（真实 WebSocket + 事件循环）
func startRelay(t *testing.T, cfg server.Config) (*httptest.Server, *server.Hub) {
	t.Helper()
	hub := server.NewHub(cfg, nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.ServeWS(hub))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readMsg 带超时读取一条出站信封
func readMsg(t *testing.T, conn *websocket.Conn) server.Outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m server.Outbound
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

// TestRelayEndToEnd 全链路：init → 建房 → 加入 → 双向中继 → 断线通知
func TestRelayEndToEnd(t *testing.T) {
	srv, _ := startRelay(t, server.DefaultConfig())

	// X：init 并建房
	x := dial(t, srv)
	require.NoError(t, x.WriteJSON(map[string]any{"type": "init"}))
	ack := readMsg(t, x)
	require.Equal(t, "init_ack", ack.Type)
	xID := ack.PlayerID
	require.NotEmpty(t, xID)

	require.NoError(t, x.WriteJSON(map[string]any{"type": "create_room", "gameMode": "versus"}))
	created := readMsg(t, x)
	require.Equal(t, "room_created", created.Type)
	require.NotEmpty(t, created.RoomID)

	// Y：init 并用房间码加入
	y := dial(t, srv)
	require.NoError(t, y.WriteJSON(map[string]any{"type": "init"}))
	yAck := readMsg(t, y)
	yID := yAck.PlayerID

	require.NoError(t, y.WriteJSON(map[string]any{"type": "join_room", "roomId": created.RoomID}))

	// 双方各收到一次 game_start，占用者列表一致且创建者在前
	startX := readMsg(t, x)
	startY := readMsg(t, y)
	require.Equal(t, "game_start", startX.Type)
	require.Equal(t, "game_start", startY.Type)
	assert.Equal(t, []string{xID, yID}, startX.Players)
	assert.Equal(t, []string{xID, yID}, startY.Players)

	// X 发状态快照，只有 Y 收到，负载原样
	require.NoError(t, x.WriteJSON(map[string]any{
		"type":  "game_update",
		"state": map[string]any{"x": 42, "hp": 97.5},
	}))
	update := readMsg(t, y)
	require.Equal(t, "game_update", update.Type)
	assert.JSONEq(t, `{"x":42,"hp":97.5}`, string(update.State))

	// X 断开：Y 收到 player_disconnected
	require.NoError(t, x.Close())
	gone := readMsg(t, y)
	assert.Equal(t, "player_disconnected", gone.Type)

	// 同一房间码随即失效
	z := dial(t, srv)
	require.NoError(t, z.WriteJSON(map[string]any{"type": "init"}))
	readMsg(t, z)
	require.NoError(t, z.WriteJSON(map[string]any{"type": "join_room", "roomId": created.RoomID}))
	errMsg := readMsg(t, z)
	require.Equal(t, "error", errMsg.Type)
	assert.Equal(t, "Room not found", errMsg.Message)
}

// TestRelayMalformedKeepsConnection 畸形帧收到 error 后连接依旧可用
func TestRelayMalformedKeepsConnection(t *testing.T) {
	srv, _ := startRelay(t, server.DefaultConfig())

	conn := dial(t, srv)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	errMsg := readMsg(t, conn)
	require.Equal(t, "error", errMsg.Type)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "init"}))
	ack := readMsg(t, conn)
	assert.Equal(t, "init_ack", ack.Type)
}

// TestRelayOriginAllowList 白名单之外的 Origin 在握手阶段被拒
func TestRelayOriginAllowList(t *testing.T) {
	cfg := server.DefaultConfig()
	cfg.AllowedOrigins = []string{"https://game.example"}
	srv, _ := startRelay(t, cfg)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}

	header = http.Header{"Origin": []string{"https://game.example"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = conn.Close()
}
