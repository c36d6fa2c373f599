package server

import (
	"encoding/json"
	"fmt"
)

// 出站消息类型（WebSocket 文本 JSON 的 type 判别字段）
const (
	TypeInitAck            = "init_ack"
	TypeRoomCreated        = "room_created"
	TypeGameStart          = "game_start"
	TypeGameUpdate         = "game_update"
	TypePlayerDisconnected = "player_disconnected"
	TypeError              = "error"
)

// 入站消息类型
const (
	TypeInit       = "init"
	TypeCreateRoom = "create_room"
	TypeJoinRoom   = "join_room"
)

// Inbound 入站消息的标签联合：每种消息一个变体，路由器做穷举分派
// 未识别的 type 落到 UnrecognizedMsg，不算解析失败
type Inbound interface {
	isInbound()
}

// InitMsg 请求分配玩家标识
type InitMsg struct{}

// CreateRoomMsg 创建房间（附带创建者选择的游戏模式）
type CreateRoomMsg struct {
	GameMode string
}

// JoinRoomMsg 通过房间码加入已有房间
type JoinRoomMsg struct {
	RoomID string
}

// GameUpdateMsg 状态快照：中继服务器不解释内容，仅原样转发
type GameUpdateMsg struct {
	State json.RawMessage
}

// UnrecognizedMsg 未知的 type：回 error 但保持连接
type UnrecognizedMsg struct {
	Type string
}

func (InitMsg) isInbound()         {}
func (CreateRoomMsg) isInbound()   {}
func (JoinRoomMsg) isInbound()     {}
func (GameUpdateMsg) isInbound()   {}
func (UnrecognizedMsg) isInbound() {}

// 入站 JSON 的松散外壳，先整体解出再按 type 收窄
// 示例：{"type":"join_room","roomId":"ZK4P"}
type inboundEnvelope struct {
	Type     string          `json:"type"`
	GameMode string          `json:"gameMode,omitempty"`
	RoomID   string          `json:"roomId,omitempty"`
	State    json.RawMessage `json:"state,omitempty"`
}

// ParseInbound 解析一帧入站消息
// 返回 error 仅表示畸形消息（非 JSON 或缺 type）；未知 type 返回 UnrecognizedMsg
func ParseInbound(b []byte) (Inbound, error) {
	var env inboundEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("parse envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("parse envelope: missing type")
	}
	switch env.Type {
	case TypeInit:
		return InitMsg{}, nil
	case TypeCreateRoom:
		return CreateRoomMsg{GameMode: env.GameMode}, nil
	case TypeJoinRoom:
		return JoinRoomMsg{RoomID: env.RoomID}, nil
	case TypeGameUpdate:
		return GameUpdateMsg{State: env.State}, nil
	default:
		return UnrecognizedMsg{Type: env.Type}, nil
	}
}

// Outbound 出站消息统一信封：字段按需填写，omitempty 保持线上负载精简
// 字段名沿用浏览器端既有约定（playerId/roomId/players/state/message）
type Outbound struct {
	Type     string          `json:"type"`
	PlayerID string          `json:"playerId,omitempty"`
	RoomID   string          `json:"roomId,omitempty"`
	Players  []string        `json:"players,omitempty"`
	State    json.RawMessage `json:"state,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// Encode 序列化出站消息；信封字段全部可序列化，失败视为编程错误
func (m *Outbound) Encode() []byte {
	b, err := json.Marshal(m)
	if err != nil {
		Log.Errorf("encode outbound %s: %v", m.Type, err)
		return nil
	}
	return b
}
