package server

import (
	"encoding/json"
	"net/http"
)

// HandleRooms 输出当前存活房间的摘要列表（排障用）
// GET /admin/rooms
// 数据经 Hub 的快照通道获取，不直接触碰事件循环私有的目录
func HandleRooms(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		rooms := h.Snapshot()
		if rooms == nil {
			rooms = []RoomInfo{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count": len(rooms),
			"rooms": rooms,
		})
	}
}
