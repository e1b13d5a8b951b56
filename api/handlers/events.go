package handlers

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/BaSui01/flowcanvas/api"
)

// =============================================================================
// 📡 运行事件广播
// =============================================================================

// EventHub 将运行事件广播给所有订阅者。发布不阻塞：
// 订阅者缓冲区满时丢弃该订阅者的这条事件。
type EventHub struct {
	mu      sync.RWMutex
	subs    map[chan api.Event]struct{}
	buffer  int
	closed  bool
	dropped atomic.Int64
	logger  *zap.Logger
}

// NewEventHub 创建事件广播器，buffer 为每个订阅者的缓冲长度
func NewEventHub(buffer int, logger *zap.Logger) *EventHub {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHub{
		subs:   make(map[chan api.Event]struct{}),
		buffer: buffer,
		logger: logger.With(zap.String("component", "event_hub")),
	}
}

// Subscribe 注册订阅者，返回事件通道和取消函数。
// Hub 关闭后通道会被关闭。
func (h *EventHub) Subscribe() (<-chan api.Event, func()) {
	ch := make(chan api.Event, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// Publish 广播事件
func (h *EventHub) Publish(evt api.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
			h.dropped.Add(1)
			h.logger.Debug("dropped event for slow subscriber",
				zap.String("type", string(evt.Type)),
				zap.String("run_id", evt.RunID),
			)
		}
	}
}

// Subscribers 返回当前订阅者数量
func (h *EventHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped 返回累计丢弃的事件数
func (h *EventHub) Dropped() int64 {
	return h.dropped.Load()
}

// Close 关闭所有订阅通道，之后的 Publish 不再投递
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		close(ch)
		delete(h.subs, ch)
	}
}
