package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOutbox_Defaults(t *testing.T) {
	b := NewOutbox(0, 2)
	assert.Equal(t, DefaultOutboxThreshold, b.Threshold())
	assert.Equal(t, DefaultOutboxCapacity, cap(b.data))
}

func TestOutbox_DropsWhenFull(t *testing.T) {
	b := NewOutbox(2, 1)

	assert.True(t, b.Push([]byte("a")))
	assert.True(t, b.Push([]byte("b")))
	assert.False(t, b.Push([]byte("c")))

	in, out, dropped, usage := b.Stats()
	assert.Equal(t, int64(2), in)
	assert.Zero(t, out)
	assert.Equal(t, int64(1), dropped)
	assert.Equal(t, 1.0, usage)

	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, b.Drain())
	assert.Zero(t, b.Len())
}

func TestOutbox_TryPopWithDone(t *testing.T) {
	b := NewOutbox(4, 0.8)
	done := make(chan struct{})

	b.Push([]byte("x"))
	msg, ok, stopped := b.TryPopWithDone(done)
	assert.True(t, ok)
	assert.False(t, stopped)
	assert.Equal(t, []byte("x"), msg)

	close(done)
	msg, ok, stopped = b.TryPopWithDone(done)
	assert.Nil(t, msg)
	assert.False(t, ok)
	assert.True(t, stopped)
}

func TestOutbox_Backpressure(t *testing.T) {
	b := NewOutbox(4, 0.5)
	triggered := make(chan float64, 1)
	relieved := make(chan float64, 1)
	b.SetBackpressureCallback(func(usage float64) { triggered <- usage })
	b.SetBackpressureRelieveCallback(func(usage float64) { relieved <- usage })

	b.Push([]byte("1"))
	assert.False(t, b.IsBackpressure())
	b.Push([]byte("2"))
	assert.True(t, b.IsBackpressure())

	select {
	case usage := <-triggered:
		assert.Equal(t, 0.5, usage)
	case <-time.After(time.Second):
		t.Fatal("背压回调未触发")
	}

	// 降到阈值一半以下才解除
	done := make(chan struct{})
	b.TryPopWithDone(done)
	assert.True(t, b.IsBackpressure())
	b.TryPopWithDone(done)
	assert.False(t, b.IsBackpressure())

	select {
	case usage := <-relieved:
		assert.Zero(t, usage)
	case <-time.After(time.Second):
		t.Fatal("背压解除回调未触发")
	}
}
