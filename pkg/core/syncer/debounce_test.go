package syncer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_CollapsesBurst(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(40*time.Millisecond, func() { calls.Add(1) })

	for i := 0; i < 5; i++ {
		assert.True(t, d.Trigger())
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, d.Pending())
}

func TestDebouncer_FlushRunsOnce(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	assert.True(t, d.Flush())
	assert.False(t, d.Flush())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	d.Stop()
	assert.False(t, d.Trigger())

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestDebouncer_DefaultWindow(t *testing.T) {
	d := NewDebouncer(0, func() {})
	assert.Equal(t, DefaultDebounceWindow, d.window)
}
