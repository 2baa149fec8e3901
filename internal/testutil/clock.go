// Package testutil 提供测试辅助工具
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/ashwinyue/eval-console/internal/clock"
)

// Epoch 测试时钟的起始时间
var Epoch = time.Date(2024, 12, 15, 9, 0, 0, 0, time.UTC)

// NewClock 创建起始于 Epoch 的手动时钟
func NewClock() *clock.Fake {
	return clock.NewFake(Epoch)
}

// Context 带超时的测试上下文，测试结束时取消
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// CanceledContext 已取消的上下文
func CanceledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// AwaitTimers 等待后台 goroutine 注册至少 n 个定时器
func AwaitTimers(t *testing.T, c *clock.Fake, n int) {
	t.Helper()
	if err := c.WaitForTimers(Context(t), n); err != nil {
		t.Fatalf("waiting for %d timers: %v", n, err)
	}
}
