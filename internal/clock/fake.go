package clock

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Fake 手动推进的时钟
// 定时回调在 Advance 调用方的 goroutine 中同步执行
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	pending []*fakeTimer
}

type fakeTimer struct {
	f       *Fake
	seq     int
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

// NewFake 创建起始于 start 的手动时钟
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now 当前时间
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AfterFunc 注册在 d 之后执行的回调
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	t := &fakeTimer{f: f, seq: f.seq, at: f.now.Add(d), fn: fn}
	f.pending = append(f.pending, t)
	return t
}

// Sleep 等待时钟被推进 d
func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	done := make(chan struct{})
	t := f.AfterFunc(d, func() { close(done) })
	select {
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Advance 推进时钟 d，按到期顺序执行所有到期回调
// 回调中新注册且在窗口内到期的定时器同样会被执行
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		next := f.nextDue(target)
		if next == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		f.now = next.at
		next.fired = true
		f.removeLocked(next)
		f.mu.Unlock()

		next.fn()
	}
}

// Pending 尚未触发且未停止的定时器数量
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// WaitForTimers 阻塞直到至少有 n 个待触发定时器，用于同步后台 goroutine
func (f *Fake) WaitForTimers(ctx context.Context, n int) error {
	for {
		if f.Pending() >= n {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func (f *Fake) nextDue(target time.Time) *fakeTimer {
	if len(f.pending) == 0 {
		return nil
	}
	sort.SliceStable(f.pending, func(i, j int) bool {
		if f.pending[i].at.Equal(f.pending[j].at) {
			return f.pending[i].seq < f.pending[j].seq
		}
		return f.pending[i].at.Before(f.pending[j].at)
	})
	if f.pending[0].at.After(target) {
		return nil
	}
	return f.pending[0]
}

func (f *Fake) removeLocked(t *fakeTimer) {
	for i, p := range f.pending {
		if p == t {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			return
		}
	}
}

// Stop 停止定时器
func (t *fakeTimer) Stop() bool {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.f.removeLocked(t)
	return true
}
