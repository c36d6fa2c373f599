package server

import "time"

// maxOccupants 对战房间恒为两人
const maxOccupants = 2

// Room 一场配对对局：短房间码 + 游戏模式 + 至多两名占用者
// 占用者有序（创建者在前），双端据此推导各自的玩家序号
type Room struct {
	Code      string
	Mode      string
	CreatedAt time.Time

	occupants []*Client
}

// newRoom 创建只含创建者的房间
func newRoom(code, mode string, owner *Client, now time.Time) *Room {
	return &Room{
		Code:      code,
		Mode:      mode,
		CreatedAt: now,
		occupants: []*Client{owner},
	}
}

// Full 是否已满员
func (r *Room) Full() bool {
	return len(r.occupants) >= maxOccupants
}

// Occupants 当前占用者，创建者在前
func (r *Room) Occupants() []*Client {
	return r.occupants
}

// PlayerIDs 占用者的玩家标识列表，顺序与 Occupants 一致
// 两端收到同一份列表，保证"我是几号位"的判断一致
func (r *Room) PlayerIDs() []string {
	ids := make([]string, 0, len(r.occupants))
	for _, c := range r.occupants {
		ids = append(ids, c.playerID)
	}
	return ids
}

// other 返回 c 之外的另一名占用者，没有则为 nil
func (r *Room) other(c *Client) *Client {
	for _, occ := range r.occupants {
		if occ != c {
			return occ
		}
	}
	return nil
}
