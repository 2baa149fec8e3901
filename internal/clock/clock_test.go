package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)

// ========== Fake 测试 ==========

func TestFake_AdvanceFiresInOrder(t *testing.T) {
	f := NewFake(epoch)
	var order []string

	f.AfterFunc(300*time.Millisecond, func() { order = append(order, "c") })
	f.AfterFunc(100*time.Millisecond, func() { order = append(order, "a") })
	f.AfterFunc(100*time.Millisecond, func() { order = append(order, "b") })

	f.Advance(150 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, epoch.Add(150*time.Millisecond), f.Now())

	f.Advance(150 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, f.Pending())
}

func TestFake_Stop(t *testing.T) {
	f := NewFake(epoch)
	fired := false
	timer := f.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second stop is a no-op")

	f.Advance(2 * time.Second)
	assert.False(t, fired)
}

func TestFake_RescheduleInsideCallback(t *testing.T) {
	f := NewFake(epoch)
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		f.AfterFunc(200*time.Millisecond, tick)
	}
	f.AfterFunc(200*time.Millisecond, tick)

	f.Advance(time.Second)
	assert.Equal(t, 5, ticks)
	assert.Equal(t, 1, f.Pending())
}

func TestFake_SleepCancelled(t *testing.T) {
	f := NewFake(epoch)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- f.Sleep(ctx, time.Minute) }()

	require.NoError(t, f.WaitForTimers(context.Background(), 1))
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.Equal(t, 0, f.Pending())
}

func TestFake_SleepAdvanced(t *testing.T) {
	f := NewFake(epoch)

	errCh := make(chan error, 1)
	go func() { errCh <- f.Sleep(context.Background(), 400*time.Millisecond) }()

	require.NoError(t, f.WaitForTimers(context.Background(), 1))
	f.Advance(400 * time.Millisecond)
	assert.NoError(t, <-errCh)
}

// ========== Real 测试 ==========

func TestReal_SleepZero(t *testing.T) {
	assert.NoError(t, New().Sleep(context.Background(), 0))
}

func TestReal_SleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, New().Sleep(ctx, time.Hour), context.Canceled)
}
