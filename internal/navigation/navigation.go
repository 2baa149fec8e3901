// Package navigation 处理页面间传递的查询参数
package navigation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// 页面路径
const (
	SetupPath       = "/evaluation/setup"
	GroundTruthPath = "/ground_truth"
	ProgressPath    = "/evaluation/progress"
	ResultsPath     = "/evaluation/results"
)

// 参数名
const (
	KeyID            = "id"
	KeyAgent         = "agent"
	KeyType          = "type"
	KeyRegion        = "region"
	KeyGroundTruthID = "groundTruthId"
	KeyBackRef       = "backRef"
)

// ErrMissingContext 缺少必需的导航参数，应重定向到配置页
var ErrMissingContext = errors.New("missing navigation context")

// MissingContextError 列出缺失的参数
type MissingContextError struct {
	Missing []string
}

func (e *MissingContextError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingContext, strings.Join(e.Missing, ", "))
}

// Is 匹配 ErrMissingContext
func (e *MissingContextError) Is(target error) bool {
	return target == ErrMissingContext
}

// Params 导航参数，均为不透明字符串
type Params struct {
	ID            string `json:"id,omitempty" form:"id"`
	Agent         string `json:"agent,omitempty" form:"agent"`
	Type          string `json:"type,omitempty" form:"type"`
	Region        string `json:"region,omitempty" form:"region"`
	GroundTruthID string `json:"groundTruthId,omitempty" form:"groundTruthId"`
	BackRef       string `json:"backRef,omitempty" form:"backRef"`
}

// FromValues 从查询参数解析
func FromValues(v url.Values) Params {
	return Params{
		ID:            v.Get(KeyID),
		Agent:         v.Get(KeyAgent),
		Type:          v.Get(KeyType),
		Region:        v.Get(KeyRegion),
		GroundTruthID: v.Get(KeyGroundTruthID),
		BackRef:       v.Get(KeyBackRef),
	}
}

func (p Params) get(key string) string {
	switch key {
	case KeyID:
		return p.ID
	case KeyAgent:
		return p.Agent
	case KeyType:
		return p.Type
	case KeyRegion:
		return p.Region
	case KeyGroundTruthID:
		return p.GroundTruthID
	case KeyBackRef:
		return p.BackRef
	}
	return ""
}

// Values 编码为查询参数，空值省略
func (p Params) Values() url.Values {
	v := url.Values{}
	for _, key := range []string{KeyID, KeyAgent, KeyType, KeyGroundTruthID, KeyBackRef, KeyRegion} {
		if val := p.get(key); val != "" {
			v.Set(key, val)
		}
	}
	return v
}

// Require 检查参数是否存在，只做存在性判断
func (p Params) Require(keys ...string) error {
	var missing []string
	for _, key := range keys {
		if p.get(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &MissingContextError{Missing: missing}
	}
	return nil
}

// URL 拼接页面路径与参数
func (p Params) URL(path string) string {
	q := p.Values().Encode()
	if q == "" {
		return path
	}
	return path + "?" + q
}
