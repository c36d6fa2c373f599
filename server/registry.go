package server

import (
	"crypto/rand"
	"math/big"
)

// 标识字符集：玩家标识小写短串；房间码大写且剔除易混字符（0/O、1/I），便于口头报码
const (
	playerIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	playerIDLength   = 6
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	roomCodeLength   = 4
)

// randomCode 从给定字符集生成定长随机串
func randomCode(alphabet string, n int) string {
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			// crypto/rand 失败说明系统熵源异常，无法继续服务
			Log.Fatalf("random source unavailable: %v", err)
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf)
}

// Registry 连接注册表：playerId → 会话
// 只在 Hub 事件循环中访问，普通 map 即可
type Registry struct {
	clients map[string]*Client
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Register 为连接分配一个当前未占用的玩家标识并登记
// 碰撞即重新生成；36^6 的空间在本规模下几乎不会重试
func (r *Registry) Register(c *Client) string {
	id := randomCode(playerIDAlphabet, playerIDLength)
	for {
		if _, taken := r.clients[id]; !taken {
			break
		}
		id = randomCode(playerIDAlphabet, playerIDLength)
	}
	r.clients[id] = c
	c.playerID = id
	return id
}

// Unregister 移除标识映射；幂等，重复调用无副作用
func (r *Registry) Unregister(id string) {
	delete(r.clients, id)
}

// Get 按标识查会话，不存在返回 nil
func (r *Registry) Get(id string) *Client {
	return r.clients[id]
}

// Len 当前已登记的连接数
func (r *Registry) Len() int {
	return len(r.clients)
}
