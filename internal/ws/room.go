package ws

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ShimJerry/shop-contents-manage/domain/entity"
	domainErrors "github.com/ShimJerry/shop-contents-manage/domain/errors"
	"github.com/ShimJerry/shop-contents-manage/internal/content"
	"github.com/ShimJerry/shop-contents-manage/internal/operation"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// ========== Actor Model: Room 是完全自治的独立单元 ==========
// clients map 只在 run() 循环内访问，无需锁！

// Room 一个内容文档的协同房间，文档的唯一写入者
type Room struct {
	ID      string
	Version int64

	// 文档状态，只在持有 stateMu 写锁时通过 doc 修改
	state    entity.Content
	snapshot []byte // state 的序列化结果，用于 sync 和计算增量
	doc      *content.Service

	// 私有 clients map - 只在 run() 内访问，无需锁
	clients map[*Client]bool

	// 事件通道：所有操作都变成消息
	register   chan *Client  // 加入请求
	unregister chan *Client  // 退出请求
	wake       chan struct{} // outbox 有新消息
	stopChan   chan struct{} // 停止信号
	done       chan struct{} // run() 已退出（刷盘完成）
	stopOnce   sync.Once

	// 待投递消息，按入队顺序投递。state-patch 在 stateMu 写锁内入队，保证版本顺序
	outboxMu sync.Mutex
	outbox   []*RoomBroadcast

	// 状态锁 - 保护 state/snapshot/Version/lastPersistedVersion
	stateMu sync.RWMutex

	// 人数与停止标志，供 Hub 在循环外读取
	countMu     sync.RWMutex
	clientCount int
	stopping    bool
	stopReason  *ErrorPayload

	// 刷盘相关，flushMu 保证同一时间只有一次刷盘
	flushMu              sync.Mutex
	lastPersistedVersion int64
	diverged             bool // 数据库已被别处写过，房间不再刷盘（flushMu 保护）
	flushTicker          *time.Ticker
	store                ContentStore

	// 反向引用：房间空闲时通知 Hub
	hub *Hub
}

// RoomBroadcast 待投递消息
// Target 非 nil 时只发给该客户端，否则发给除 Sender 外的所有人
type RoomBroadcast struct {
	Message    []byte
	Sender     *Client
	Target     *Client
	IsCritical bool
}

// 刷盘配置
const (
	FlushInterval  = 30 * time.Second
	FlushThreshold = 50
)

var nowMillis = func() int64 { return time.Now().UnixMilli() }

// NewRoom 创建房间并启动事件循环
func NewRoom(id string, initial entity.Content, version int64, store ContentStore, hub *Hub) *Room {
	r := newRoom(id, initial, version, store, hub)
	go r.run() // 启动房间事件循环

	log.Printf("[Room %s] 🚀 已创建并启动，版本: %d", id, version)
	return r
}

// newRoom 只构造，不启动事件循环
func newRoom(id string, initial entity.Content, version int64, store ContentStore, hub *Hub) *Room {
	if initial.Components == nil {
		initial.Components = []entity.Component{}
	}

	r := &Room{
		ID:                   id,
		Version:              version,
		state:                initial,
		clients:              make(map[*Client]bool),
		register:             make(chan *Client),
		unregister:           make(chan *Client),
		wake:                 make(chan struct{}, 1),
		stopChan:             make(chan struct{}),
		done:                 make(chan struct{}),
		lastPersistedVersion: version,
		flushTicker:          time.NewTicker(FlushInterval),
		store:                store,
		hub:                  hub,
	}
	r.snapshot, _ = json.Marshal(initial)

	r.doc = content.NewService(
		func() entity.Content { return r.state },
		func(transform func(entity.Content) entity.Content) { r.state = transform(r.state) },
		nil,
	)
	r.doc.Subscribe(r.onCommit)
	return r
}

// run 是房间的主宰，所有逻辑都在这里串行处理，所以 clients map 不需要锁！
func (r *Room) run() {
	defer func() {
		r.flushTicker.Stop()
		r.flushToDB("销毁前")
		r.shutdownClients()
		close(r.done)
		log.Printf("[Room %s] 🛑 事件循环已停止", r.ID)

		// 自行中止的房间还在 Hub 目录里，交给 Hub 移除
		if r.isDiverged() && r.hub != nil {
			go r.hub.NotifyIdle(r)
		}
	}()

	for {
		select {
		// 1. 处理客户端注册 (无锁！)
		case client := <-r.register:
			r.handleRegister(client)

		// 2. 处理客户端注销 (无锁！)
		case client := <-r.unregister:
			if _, ok := r.clients[client]; ok {
				delete(r.clients, client)
				close(client.send)
				r.updateClientCount(len(r.clients))
				r.deliver(&RoomBroadcast{Message: newServerMessage(TypeUserLeave, client.UserInfo)})
				log.Printf("[Room %s] 👋 用户 [%s] 离开，剩余人数: %d",
					r.ID, client.UserInfo.UserName, len(r.clients))

				// 房间空了，交给 Hub 决定是否销毁
				if len(r.clients) == 0 && r.hub != nil {
					go r.hub.NotifyIdle(r)
				}
			}

		// 3. 投递消息 (核心热路径 - 无锁！)
		case <-r.wake:
			r.drainOutbox()

		// 4. 定时刷盘
		case <-r.flushTicker.C:
			r.flushToDB("定时")

		// 5. 停止信号
		case <-r.stopChan:
			return
		}
	}
}

// handleRegister 先把已入队的增量投递给老成员，再在同一个快照上给新成员发 sync，
// 新成员之后收到的增量版本都大于 sync 版本
func (r *Room) handleRegister(client *Client) {
	r.stateMu.RLock()
	snapshot := make([]byte, len(r.snapshot))
	copy(snapshot, r.snapshot)
	version := r.Version
	pending := r.takeOutbox()
	r.stateMu.RUnlock()

	for _, msg := range pending {
		r.deliver(msg)
	}

	users := make([]UserInfo, 0, len(r.clients))
	for c := range r.clients {
		users = append(users, c.UserInfo)
	}

	r.deliver(&RoomBroadcast{Message: newServerMessage(TypeUserJoin, client.UserInfo)})

	r.clients[client] = true
	r.updateClientCount(len(r.clients))

	client.send <- newServerMessage(TypeSync, SyncPayload{
		Content: snapshot,
		Version: version,
		Users:   users,
	})

	log.Printf("[Room %s] 👋 用户 [%s] 加入，当前人数: %d，同步版本: %d",
		r.ID, client.UserInfo.UserName, len(r.clients), version)
}

func (r *Room) drainOutbox() {
	for _, msg := range r.takeOutbox() {
		r.deliver(msg)
	}
}

func (r *Room) takeOutbox() []*RoomBroadcast {
	r.outboxMu.Lock()
	defer r.outboxMu.Unlock()
	pending := r.outbox
	r.outbox = nil
	return pending
}

// deliver 只在 run() 内调用
func (r *Room) deliver(msg *RoomBroadcast) {
	if msg.Message == nil {
		return
	}

	if msg.Target != nil {
		if _, ok := r.clients[msg.Target]; ok {
			r.sendTo(msg.Target, msg.Message, true)
		}
		return
	}

	for client := range r.clients {
		if msg.Sender != nil && client == msg.Sender {
			continue
		}
		r.sendTo(client, msg.Message, msg.IsCritical)
	}
}

func (r *Room) sendTo(client *Client, message []byte, critical bool) {
	select {
	case client.send <- message:
		// 发送成功
	default:
		// 缓冲区满
		if critical {
			log.Printf("[Room %s] ⚠️ 关键消息阻塞，踢出 [%s]",
				r.ID, client.UserInfo.UserName)
			delete(r.clients, client)
			close(client.send)
			r.updateClientCount(len(r.clients))
		}
		// 非关键消息直接丢弃
	}
}

// shutdownClients 停止时把剩余消息和关闭原因发出去，然后断开所有连接
func (r *Room) shutdownClients() {
	r.drainOutbox()

	r.countMu.RLock()
	reason := r.stopReason
	r.countMu.RUnlock()

	var farewell []byte
	if reason != nil {
		farewell = newServerMessage(TypeError, reason)
	}

	for client := range r.clients {
		if farewell != nil {
			select {
			case client.send <- farewell:
			default:
			}
		}
		close(client.send)
		delete(r.clients, client)
	}
	r.updateClientCount(0)
}

// enqueue 追加待投递消息并唤醒 run()
func (r *Room) enqueue(msg *RoomBroadcast) {
	r.outboxMu.Lock()
	r.outbox = append(r.outbox, msg)
	r.outboxMu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// ========== 对外暴露的接口 ==========

// Register 注册客户端到房间，房间正在关闭时返回 ErrRoomClosing
func (r *Room) Register(client *Client) error {
	if r.IsStopping() {
		return domainErrors.ErrRoomClosing
	}

	client.Room = r
	select {
	case r.register <- client:
		return nil
	case <-r.stopChan:
		client.Room = nil
		return domainErrors.ErrRoomClosing
	}
}

// Unregister 注销客户端，房间已停止时直接返回
func (r *Room) Unregister(client *Client) {
	select {
	case r.unregister <- client:
	case <-r.stopChan:
	}
}

// Broadcast 广播消息
func (r *Room) Broadcast(message []byte, sender *Client, isCritical bool) {
	r.enqueue(&RoomBroadcast{
		Message:    message,
		Sender:     sender,
		IsCritical: isCritical,
	})
}

// SendTo 单播，与广播共用同一个投递顺序
func (r *Room) SendTo(client *Client, message []byte) {
	r.enqueue(&RoomBroadcast{Message: message, Target: client, IsCritical: true})
}

// Stop 停止房间（由 Hub 调用），阻塞到刷盘完成
func (r *Room) Stop() {
	r.StopWithReason("", "")
}

// StopWithReason 停止房间并把原因以 error 消息发给所有成员
func (r *Room) StopWithReason(code ErrorCode, message string) {
	r.requestStop(code, message)
	<-r.done
}

// requestStop 只发出停止信号，不等待 run() 退出，可以在 run() 内部调用
func (r *Room) requestStop(code ErrorCode, message string) {
	r.countMu.Lock()
	r.stopping = true
	if code != "" && r.stopReason == nil {
		r.stopReason = &ErrorPayload{Code: code, Message: message}
	}
	r.countMu.Unlock()

	r.stopOnce.Do(func() { close(r.stopChan) })
}

// Done run() 退出（最后一次刷盘完成）后关闭
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// ClientCount 当前人数
func (r *Room) ClientCount() int {
	r.countMu.RLock()
	defer r.countMu.RUnlock()
	return r.clientCount
}

// IsStopping 是否正在关闭
func (r *Room) IsStopping() bool {
	r.countMu.RLock()
	defer r.countMu.RUnlock()
	return r.stopping
}

func (r *Room) updateClientCount(n int) {
	r.countMu.Lock()
	r.clientCount = n
	r.countMu.Unlock()
}

// ========== 需要锁保护的状态操作 ==========

// ApplyOperation 校验版本后执行命令，返回提交后的版本
func (r *Room) ApplyOperation(op *operation.Operation, expectedVersion int64) (int64, error) {
	if err := op.Validate(); err != nil {
		return 0, err
	}

	r.stateMu.Lock()
	defer r.stateMu.Unlock()

	// 停止标志先于最后一次刷盘设置，而刷盘要等 stateMu，
	// 所以这里没看到停止标志的提交一定会被最后一次刷盘带上
	if r.IsStopping() {
		return r.Version, domainErrors.ErrRoomClosing
	}

	if r.Version != expectedVersion {
		return r.Version, &domainErrors.VersionConflictError{
			CurrentVersion:  r.Version,
			ExpectedVersion: expectedVersion,
		}
	}

	if err := op.Apply(r.doc); err != nil {
		return r.Version, err
	}

	// 阈值刷盘
	if r.Version-r.lastPersistedVersion >= FlushThreshold {
		go r.flushToDB("阈值触发")
	}

	return r.Version, nil
}

// onCommit 文档每提交一次调用一次（持有 stateMu 写锁）：版本 +1，入队增量
func (r *Room) onCommit(next entity.Content) {
	data, err := json.Marshal(next)
	if err != nil {
		log.Printf("[Room %s] ⚠️ 序列化文档失败: %v", r.ID, err)
		return
	}

	patch, err := jsonpatch.CreateMergePatch(r.snapshot, data)
	if err != nil {
		// 退化为整份文档
		log.Printf("[Room %s] ⚠️ 生成增量失败: %v", r.ID, err)
		patch = data
	}

	r.snapshot = data
	r.Version++

	r.enqueue(&RoomBroadcast{
		Message: newServerMessage(TypeStatePatch, StatePatchPayload{
			Patch:   patch,
			Version: r.Version,
		}),
		IsCritical: true,
	})
}

// GetSnapshot 获取当前快照（序列化后的文档）
func (r *Room) GetSnapshot() ([]byte, int64) {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()

	snapshot := make([]byte, len(r.snapshot))
	copy(snapshot, r.snapshot)

	return snapshot, r.Version
}

// GetContent 当前文档
// 所有修改都产生新切片，返回值可以安全地在锁外读取
func (r *Room) GetContent() (entity.Content, int64) {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.state, r.Version
}

// flushToDB 刷盘
func (r *Room) flushToDB(reason string) {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	if r.diverged {
		return
	}

	r.stateMu.RLock()
	if r.Version == r.lastPersistedVersion {
		r.stateMu.RUnlock()
		return
	}

	snapshot := make([]byte, len(r.snapshot))
	copy(snapshot, r.snapshot)
	version := r.Version
	oldVersion := r.lastPersistedVersion
	r.stateMu.RUnlock()

	if err := r.store.SaveContentState(r.ID, snapshot, oldVersion, version); err != nil {
		if errors.Is(err, domainErrors.ErrOptimisticLock) {
			// 数据库版本已经前进，之后的刷盘都不可能成功：关闭房间让客户端重新加载
			r.diverged = true
			log.Printf("[Room %s] ❌ %s刷盘发现数据库已被修改（基于版本 %d），关闭房间", r.ID, reason, oldVersion)
			r.requestStop(ErrVersionConflict, "内容已在别处被修改，请重新加载")
			return
		}
		log.Printf("[Room %s] ⚠️ %s刷盘失败: %v", r.ID, reason, err)
		return
	}

	r.stateMu.Lock()
	if version > r.lastPersistedVersion {
		r.lastPersistedVersion = version
		log.Printf("[Room %s] ✅ %s刷盘, 版本: %d", r.ID, reason, version)
	}
	r.stateMu.Unlock()
}

func (r *Room) isDiverged() bool {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()
	return r.diverged
}
