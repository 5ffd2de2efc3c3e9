package ws

import (
	"errors"
	"hash/fnv"
	"log"
	"sync"

	"github.com/ShimJerry/shop-contents-manage/domain/entity"
	domainErrors "github.com/ShimJerry/shop-contents-manage/domain/errors"
)

// ========== Actor Model: Hub 是生死的唯一仲裁者 ==========
// Hub 不处理任何业务消息，只管理 Room 的生命周期

// Hub 维护房间目录
type Hub struct {
	rooms    map[string]*Room
	mu       sync.RWMutex
	idleRoom chan *Room // Room 空闲信号（请求销毁）
	store    ContentStore

	// 按内容 ID 分片的锁：创建房间和绕过房间直接写库互斥
	// 加锁顺序：contentLocks -> mu
	contentLocks [contentLockShards]sync.Mutex
}

const contentLockShards = 64

// ContentStore 房间的持久化接口
type ContentStore interface {
	// GetContentState 返回文档和版本，不存在时返回 ErrContentNotFound
	GetContentState(contentID string) (entity.Content, int64, error)
	// SaveContentState 保存序列化后的文档（支持版本跳跃）
	// oldVersion: 上次持久化的版本（用于乐观锁检查）
	// newVersion: 当前内存中的版本（要写入 DB）
	SaveContentState(contentID string, state []byte, oldVersion, newVersion int64) error
}

// NewHub 创建 Hub 实例
func NewHub(store ContentStore) *Hub {
	return &Hub{
		rooms:    make(map[string]*Room),
		idleRoom: make(chan *Room, 16),
		store:    store,
	}
}

// Run Hub 事件循环
func (h *Hub) Run() {
	log.Println("[Hub] 🚀 Hub 已启动（生死仲裁者）")

	for room := range h.idleRoom {
		// handleIdleRoom 会阻塞等待刷盘完成，不能占住事件循环
		go h.handleIdleRoom(room)
	}
}

// handleIdleRoom 处理空闲房间：先刷盘停止，再从目录移除
func (h *Hub) handleIdleRoom(room *Room) {
	// 双重检查：Room 可能在我们处理期间又有人加入了
	if room.ClientCount() > 0 {
		log.Printf("[Hub] 🔄 房间 %s 已有新用户，取消销毁", room.ID)
		return
	}

	room.Stop()

	h.mu.Lock()
	defer h.mu.Unlock()

	// 只删除当初那个房间，刷盘期间可能已经创建了新房间
	if currentRoom, ok := h.rooms[room.ID]; ok && currentRoom == room {
		delete(h.rooms, room.ID)
		log.Printf("[Hub] 🗑️ 房间 %s 已销毁", room.ID)
	} else {
		log.Printf("[Hub] ⚠️ 房间 %s 销毁时发现已被替换或移除，跳过删除", room.ID)
	}
}

// GetRoom 只读获取房间，不创建（供 HTTP 请求使用）
// 正在关闭的房间也返回：它仍持有最新数据
func (h *Hub) GetRoom(roomID string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, exists := h.rooms[roomID]; exists {
		return room
	}
	return nil
}

// GetOrCreateRoom 线程安全地获取或创建房间
// 只有在数据库中存在的文档才会创建房间，否则返回 ErrContentNotFound
func (h *Hub) GetOrCreateRoom(roomID string) (*Room, error) {
	// 先尝试读锁快速路径
	h.mu.RLock()
	room, exists := h.rooms[roomID]
	h.mu.RUnlock()

	if exists {
		return h.liveRoom(room)
	}

	// 不存在，加写锁创建
	lock := h.contentLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	h.mu.Lock()
	defer h.mu.Unlock()

	// 双重检查
	if room, exists = h.rooms[roomID]; exists {
		return h.liveRoom(room)
	}

	state, version, err := h.store.GetContentState(roomID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrContentNotFound) {
			log.Printf("[Hub] ❌ 内容 %s 不存在，拒绝创建房间", roomID)
			return nil, domainErrors.ErrContentNotFound
		}
		log.Printf("[Hub] ⚠️ 加载内容 %s 失败: %v", roomID, err)
		return nil, err
	}

	room = NewRoom(roomID, state, version, h.store, h)
	h.rooms[roomID] = room

	log.Printf("[Hub] 🏠 创建房间 %s，版本: %d", roomID, version)
	return room, nil
}

// liveRoom 正在停止的房间让客户端稍后重试
func (h *Hub) liveRoom(room *Room) (*Room, error) {
	if room.IsStopping() {
		log.Printf("[Hub] ⏳ 房间 %s 正在关闭，请客户端重试", room.ID)
		return nil, domainErrors.ErrRoomClosing
	}
	return room, nil
}

// WithoutRoom 内容没有在线房间时执行 fn，执行期间不会为该内容创建房间。
// 有在线房间时不执行 fn，直接返回房间，由调用方交给房间处理；
// 房间正在关闭时先等它最后一次刷盘完成，再执行 fn
func (h *Hub) WithoutRoom(contentID string, fn func() error) (*Room, error) {
	lock := h.contentLock(contentID)
	lock.Lock()
	defer lock.Unlock()

	if room := h.GetRoom(contentID); room != nil {
		if !room.IsStopping() {
			return room, nil
		}
		<-room.Done()
	}
	return nil, fn()
}

func (h *Hub) contentLock(contentID string) *sync.Mutex {
	hasher := fnv.New32a()
	hasher.Write([]byte(contentID))
	return &h.contentLocks[hasher.Sum32()%contentLockShards]
}

// NotifyIdle 供 Room 调用，通知 Hub 房间空闲
func (h *Hub) NotifyIdle(room *Room) {
	h.idleRoom <- room
}

// CloseRoom 强制关闭房间（删除内容时调用）：先关闭房间并刷盘，再删数据库
func (h *Hub) CloseRoom(roomID string) {
	h.mu.Lock()
	room, exists := h.rooms[roomID]
	if !exists {
		h.mu.Unlock()
		log.Printf("[Hub] ℹ️ 房间 %s 不存在于内存中，无需关闭", roomID)
		return
	}
	// 先从 map 中移除（防止新用户加入）
	delete(h.rooms, roomID)
	h.mu.Unlock()

	room.StopWithReason(ErrContentDeleted, "内容已被删除")

	log.Printf("[Hub] 💀 强制关闭房间 %s（内容被删除）", roomID)
}

// Shutdown 停机时刷盘并关闭所有房间
func (h *Hub) Shutdown() {
	h.mu.Lock()
	rooms := make([]*Room, 0, len(h.rooms))
	for id, room := range h.rooms {
		rooms = append(rooms, room)
		delete(h.rooms, id)
	}
	h.mu.Unlock()

	var wg sync.WaitGroup
	for _, room := range rooms {
		wg.Add(1)
		go func(r *Room) {
			defer wg.Done()
			r.StopWithReason(ErrRoomClosing, "服务器正在停机")
		}(room)
	}
	wg.Wait()

	log.Printf("[Hub] 🛑 已关闭 %d 个房间", len(rooms))
}
