package realtime

import (
	"sync"
	"sync/atomic"
)

// 默认出站队列参数
const (
	DefaultOutboxCapacity  = 64
	DefaultOutboxThreshold = 0.8
)

// Outbox 单个WebSocket客户端的出站消息队列
// 写入方永不阻塞：队列满时丢弃消息，慢客户端不会拖慢广播
type Outbox struct {
	data         chan []byte
	capacity     int
	threshold    float64
	backpressure int32 // atomic，0=正常，1=背压

	totalIn  int64 // atomic
	totalOut int64 // atomic
	dropped  int64 // atomic

	onBackpressure        func(usage float64)
	onBackpressureRelieve func(usage float64)

	mu sync.RWMutex
}

// NewOutbox 创建出站队列
func NewOutbox(capacity int, threshold float64) *Outbox {
	if capacity <= 0 {
		capacity = DefaultOutboxCapacity
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultOutboxThreshold
	}
	return &Outbox{
		data:      make(chan []byte, capacity),
		capacity:  capacity,
		threshold: threshold,
	}
}

// SetBackpressureCallback 设置背压触发回调
func (b *Outbox) SetBackpressureCallback(callback func(usage float64)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onBackpressure = callback
}

// SetBackpressureRelieveCallback 设置背压解除回调
func (b *Outbox) SetBackpressureRelieveCallback(callback func(usage float64)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onBackpressureRelieve = callback
}

// Push 非阻塞入队，队列已满时丢弃并返回false
func (b *Outbox) Push(msg []byte) bool {
	select {
	case b.data <- msg:
		atomic.AddInt64(&b.totalIn, 1)
		b.checkBackpressure()
		return true
	default:
		atomic.AddInt64(&b.dropped, 1)
		return false
	}
}

// TryPopWithDone 在done关闭前弹出一条消息
// 返回消息、是否成功、是否因为done关闭
func (b *Outbox) TryPopWithDone(done <-chan struct{}) ([]byte, bool, bool) {
	select {
	case msg := <-b.data:
		atomic.AddInt64(&b.totalOut, 1)
		b.checkBackpressure()
		return msg, true, false
	case <-done:
		return nil, false, true
	}
}

// Len 当前队列长度
func (b *Outbox) Len() int {
	return len(b.data)
}

// Usage 使用率
func (b *Outbox) Usage() float64 {
	return float64(len(b.data)) / float64(b.capacity)
}

// Threshold 背压阈值
func (b *Outbox) Threshold() float64 {
	return b.threshold
}

// IsBackpressure 是否处于背压状态
func (b *Outbox) IsBackpressure() bool {
	return atomic.LoadInt32(&b.backpressure) == 1
}

// Dropped 已丢弃的消息数
func (b *Outbox) Dropped() int64 {
	return atomic.LoadInt64(&b.dropped)
}

// Stats 统计信息
func (b *Outbox) Stats() (totalIn, totalOut, dropped int64, usage float64) {
	return atomic.LoadInt64(&b.totalIn),
		atomic.LoadInt64(&b.totalOut),
		atomic.LoadInt64(&b.dropped),
		b.Usage()
}

// Drain 排空队列，返回剩余消息
func (b *Outbox) Drain() [][]byte {
	var items [][]byte
	for {
		select {
		case msg := <-b.data:
			items = append(items, msg)
			atomic.AddInt64(&b.totalOut, 1)
		default:
			return items
		}
	}
}

// checkBackpressure 使用率达到阈值时触发背压，降到阈值一半以下时解除
func (b *Outbox) checkBackpressure() {
	usage := b.Usage()

	if usage >= b.threshold {
		if atomic.CompareAndSwapInt32(&b.backpressure, 0, 1) {
			b.mu.RLock()
			callback := b.onBackpressure
			b.mu.RUnlock()
			if callback != nil {
				go callback(usage)
			}
		}
	} else if usage < b.threshold*0.5 {
		if atomic.CompareAndSwapInt32(&b.backpressure, 1, 0) {
			b.mu.RLock()
			callback := b.onBackpressureRelieve
			b.mu.RUnlock()
			if callback != nil {
				go callback(usage)
			}
		}
	}
}
