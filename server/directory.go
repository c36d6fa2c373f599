package server

import (
	"errors"
	"strings"
	"time"
)

// 房间目录的业务错误：路由器据此回送 error 信封，连接保持存活
var (
	ErrAlreadyInRoom = errors.New("already in a room")
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room is full")
)

// Directory 房间目录：独占 房间码 → Room 映射
// 只在 Hub 事件循环中访问，普通 map 即可；时间源可注入便于测试
type Directory struct {
	rooms map[string]*Room
	now   func() time.Time
}

// NewDirectory 创建空目录
func NewDirectory() *Directory {
	return &Directory{rooms: make(map[string]*Room), now: time.Now}
}

// normalizeCode 房间码统一大写后查表
// 浏览器端展示与输入的大小写并不一致，查找前归一化可消除一类"房间不存在"误报
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// generateCode 生成一个当前未占用的房间码，碰撞即重试
func (d *Directory) generateCode() string {
	code := randomCode(roomCodeAlphabet, roomCodeLength)
	for {
		if _, taken := d.rooms[code]; !taken {
			return code
		}
		code = randomCode(roomCodeAlphabet, roomCodeLength)
	}
}

// Create 以 owner 为唯一占用者创建房间
// owner 已在房间中则返回 ErrAlreadyInRoom（防止静默替换产生孤儿房间）
func (d *Directory) Create(owner *Client, mode string) (*Room, error) {
	if owner.roomCode != "" {
		return nil, ErrAlreadyInRoom
	}
	code := d.generateCode()
	room := newRoom(code, mode, owner, d.now())
	d.rooms[code] = room
	owner.roomCode = code
	return room, nil
}

// Join 将 joiner 加入指定房间码的房间
// 成功返回房间（含完整的有序占用者列表，创建者在前）
func (d *Directory) Join(code string, joiner *Client) (*Room, error) {
	if joiner.roomCode != "" {
		return nil, ErrAlreadyInRoom
	}
	room, ok := d.rooms[normalizeCode(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if room.Full() {
		return nil, ErrRoomFull
	}
	room.occupants = append(room.occupants, joiner)
	joiner.roomCode = room.Code
	return room, nil
}

// Leave 将连接移出其所在房间并删除该房间（对局不可恢复）
// 返回另一名占用者供路由器通知，没有则为 nil；连接不在房间时为空操作
func (d *Directory) Leave(c *Client) *Client {
	if c.roomCode == "" {
		return nil
	}
	room, ok := d.rooms[c.roomCode]
	c.roomCode = ""
	if !ok {
		return nil
	}
	survivor := room.other(c)
	if survivor != nil {
		survivor.roomCode = ""
	}
	delete(d.rooms, room.Code)
	return survivor
}

// Peer 返回连接同房间的对端（中继目标），不存在则为 nil
func (d *Directory) Peer(c *Client) *Client {
	if c.roomCode == "" {
		return nil
	}
	room, ok := d.rooms[c.roomCode]
	if !ok {
		return nil
	}
	return room.other(c)
}

// Get 按房间码查房间（已归一化），不存在返回 nil
func (d *Directory) Get(code string) *Room {
	return d.rooms[normalizeCode(code)]
}

// Len 当前存活的房间数
func (d *Directory) Len() int {
	return len(d.rooms)
}

// Rooms 遍历当前全部房间（管理接口用）
func (d *Directory) Rooms() []*Room {
	out := make([]*Room, 0, len(d.rooms))
	for _, r := range d.rooms {
		out = append(out, r)
	}
	return out
}

// SweepIdle 清理创建后超过 ttl 仍未满员的房间，返回被清理房间的占用者
// 对局中的满员房间不受影响
func (d *Directory) SweepIdle(ttl time.Duration) []*Client {
	var evicted []*Client
	cutoff := d.now().Add(-ttl)
	for code, room := range d.rooms {
		if room.Full() || room.CreatedAt.After(cutoff) {
			continue
		}
		for _, occ := range room.occupants {
			occ.roomCode = ""
			evicted = append(evicted, occ)
		}
		delete(d.rooms, code)
	}
	return evicted
}
