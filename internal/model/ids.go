package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID 生成 "<prefix>_<毫秒时间戳>_<n 位随机小写字符>" 格式的 ID
func NewID(prefix string, now time.Time, n int) string {
	return fmt.Sprintf("%s_%d_%s", prefix, now.UnixMilli(), randomSuffix(n))
}

func randomSuffix(n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(strings.ReplaceAll(uuid.NewString(), "-", ""))
	}
	return b.String()[:n]
}
