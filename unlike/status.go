package unlike

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Status 推送给观察者的状态快照
type Status struct {
	Running   bool   `json:"running"`
	Cycles    int    `json:"cycles"`
	Processed int    `json:"processed"`
	Action    string `json:"action"`
}

// StatusEvent 推送消息的外层结构：{type:"status", data:{...}}
type StatusEvent struct {
	Type string `json:"type"`
	Data Status `json:"data"`
}

// NewStatusEvent 包装状态推送
func NewStatusEvent(s Status) StatusEvent {
	return StatusEvent{Type: "status", Data: s}
}

// Broadcaster 把状态扇出给所有订阅者。
// 投递是 fire-and-forget：订阅者的缓冲区满了就丢弃，永远不会阻塞状态机。
// 它的生命周期跨越多个控制器实例，页面重载后观察者不需要重新订阅。
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan Status
	nextID int
	last   Status
}

// NewBroadcaster 创建广播器
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Status)}
}

// Subscribe 订阅状态推送，返回的 cancel 函数会关闭通道
func (b *Broadcaster) Subscribe(buffer int) (<-chan Status, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Status, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish 推送状态
func (b *Broadcaster) Publish(s Status) {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.last = s
	for id, ch := range b.subs {
		select {
		case ch <- s:
		default:
			logrus.WithField("subscriber", id).Debug("状态推送被丢弃：订阅者缓冲区已满")
		}
	}
}

// Last 最近一次推送的状态
func (b *Broadcaster) Last() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}
