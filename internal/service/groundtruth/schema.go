package groundtruth

import (
	"strings"

	"github.com/ashwinyue/eval-console/internal/model"
)

// Unmapped 映射对话框中表示“不映射”的取值
const Unmapped = "unmapped"

// AutoMap 按标准 schema 自动映射：先大小写敏感精确匹配，再忽略大小写匹配
func AutoMap(headers []string) model.SchemaMap {
	lower := make([]string, len(headers))
	for i, h := range headers {
		lower[i] = strings.ToLower(h)
	}

	auto := make(model.SchemaMap)
	for _, f := range model.StandardSchema {
		if i := indexOfString(headers, f.Key); i >= 0 {
			auto[f.Key] = headers[i]
			continue
		}
		if i := indexOfString(lower, strings.ToLower(f.Key)); i >= 0 {
			auto[f.Key] = headers[i]
		}
	}
	return auto
}

// Assign 修改映射，空值或 "unmapped" 视为清除
func Assign(m model.SchemaMap, key, header string) model.SchemaMap {
	out := make(model.SchemaMap, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	if header == "" || header == Unmapped {
		delete(out, key)
		return out
	}
	out[key] = header
	return out
}

// isMapped 空白值与 "unmapped" 均视为未映射
func isMapped(header string) bool {
	header = strings.TrimSpace(header)
	return header != "" && header != Unmapped
}

// NormalizeMapping 去除空白与 "unmapped" 取值，返回新映射
func NormalizeMapping(m model.SchemaMap) model.SchemaMap {
	out := make(model.SchemaMap, len(m))
	for k, v := range m {
		if isMapped(v) {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}

// Missing 未映射的必填字段，按 schema 顺序
func Missing(m model.SchemaMap) []string {
	var missing []string
	for _, f := range model.StandardSchema {
		if f.Required && !isMapped(m[f.Key]) {
			missing = append(missing, f.Key)
		}
	}
	return missing
}

// ValidateMapping 必填字段全部映射时返回 nil
func ValidateMapping(m model.SchemaMap) error {
	if missing := Missing(m); len(missing) > 0 {
		return &IncompleteMappingError{Missing: missing}
	}
	return nil
}

// ReadyForEvaluation 上传的数据集必须完成必填映射
func ReadyForEvaluation(gt *model.GroundTruth) error {
	if gt.SchemaMap == nil && gt.SourceType != model.SourceTypeUploaded {
		return nil
	}
	return ValidateMapping(gt.SchemaMap)
}

func indexOfString(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
