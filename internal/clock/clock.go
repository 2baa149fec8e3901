// Package clock 提供可注入的时钟与定时调度
// 真实实现基于 time 包，测试使用 Fake 手动推进时间
package clock

import (
	"context"
	"time"
)

// Clock 时钟与调度接口
type Clock interface {
	// Now 当前时间
	Now() time.Time
	// AfterFunc 在 d 之后执行 f，返回可取消的定时器
	AfterFunc(d time.Duration, f func()) Timer
	// Sleep 等待 d，ctx 取消时提前返回 ctx.Err()
	Sleep(ctx context.Context, d time.Duration) error
}

// Timer 可停止的定时器
type Timer interface {
	// Stop 停止定时器，已触发或已停止返回 false
	Stop() bool
}

// Real 基于 time 包的时钟
type Real struct{}

// New 创建真实时钟
func New() Clock {
	return Real{}
}

// Now 当前时间
func (Real) Now() time.Time {
	return time.Now()
}

// AfterFunc 在 d 之后执行 f
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Sleep 等待 d 或 ctx 取消
func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
