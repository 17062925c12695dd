package syncer

import (
	"sync"
	"time"
)

// DefaultDebounceWindow 推送防抖的静默窗口
const DefaultDebounceWindow = 500 * time.Millisecond

// Debouncer 取消并重启式的防抖器，任意时刻最多只有一个待触发的计时器
type Debouncer struct {
	window time.Duration
	fn     func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending bool
	stopped bool
}

// NewDebouncer 创建防抖器，window<=0时使用默认窗口
func NewDebouncer(window time.Duration, fn func()) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{window: window, fn: fn}
}

// Trigger 取消已有计时器并重新计时，停止后返回false
func (d *Debouncer) Trigger() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = true
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen) })
	return true
}

// Flush 立即执行待触发的回调，没有待触发时返回false
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.stopped || !d.pending {
		d.mu.Unlock()
		return false
	}
	d.cancelLocked()
	d.mu.Unlock()

	d.fn()
	return true
}

// Pending 是否有待触发的回调
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop 取消待触发的回调，之后的Trigger都会被拒绝
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.cancelLocked()
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// 过期的计时器（已被重启、Flush或Stop）直接丢弃
	if d.stopped || !d.pending || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}

func (d *Debouncer) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.pending = false
}
