package groundtruth

import (
	"regexp"
	"strings"

	"github.com/ashwinyue/eval-console/internal/model"
)

// 逐行、逐逗号切分，不处理引号内的逗号
var lineBreak = regexp.MustCompile(`\r?\n`)

// nonEmptyLines 去掉空白行
func nonEmptyLines(text string) []string {
	var lines []string
	for _, l := range lineBreak.Split(text, -1) {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// cleanCell 去除首尾空白与一层包裹的双引号
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}

func splitCells(line string) []string {
	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = cleanCell(p)
	}
	return parts
}

// ParseHeaders 解析首个非空行作为列名，空列名被丢弃
func ParseHeaders(text string) ([]string, error) {
	lines := nonEmptyLines(text)
	if len(lines) == 0 {
		return nil, ErrNoHeaders
	}
	var headers []string
	for _, h := range splitCells(lines[0]) {
		if h != "" {
			headers = append(headers, h)
		}
	}
	if len(headers) == 0 {
		return nil, ErrNoHeaders
	}
	return headers, nil
}

// CountRows 数据行数（非空行数减去表头）
func CountRows(text string) int {
	n := len(nonEmptyLines(text)) - 1
	if n < 0 {
		return 0
	}
	return n
}

// BuildSample 按映射抽取最多 limit 行预览
// 问题与答案均为空的行被跳过，category/id 仅在映射且存在时写入 meta
func BuildSample(text string, schemaMap model.SchemaMap, limit int) []model.SampleRow {
	lines := nonEmptyLines(text)
	if len(lines) <= 1 {
		return nil
	}

	header := splitCells(lines[0])
	indexOf := func(col string) int {
		for i, h := range header {
			if h == col {
				return i
			}
		}
		return -1
	}
	column := func(key string) int {
		if schemaMap[key] == "" {
			return -1
		}
		return indexOf(schemaMap[key])
	}

	qIdx := column(model.FieldQuestion)
	aIdx := column(model.FieldGroundTruth)
	catIdx := column(model.FieldCategory)
	idIdx := column(model.FieldID)

	var items []model.SampleRow
	for _, line := range lines[1:] {
		if len(items) >= limit {
			break
		}
		cells := splitCells(line)
		question := cellAt(cells, qIdx)
		answer := cellAt(cells, aIdx)
		if question == "" && answer == "" {
			continue
		}

		var meta map[string]string
		if catIdx >= 0 || idIdx >= 0 {
			meta = make(map[string]string, 2)
			if catIdx >= 0 {
				meta[model.FieldCategory] = cellAt(cells, catIdx)
			}
			if idIdx >= 0 {
				meta[model.FieldID] = cellAt(cells, idIdx)
			}
		}

		items = append(items, model.SampleRow{
			Index:    len(items) + 1,
			Question: question,
			Answer:   answer,
			Meta:     meta,
		})
	}
	return items
}

func cellAt(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

// InspectResult 上传对话框第一步的解析结果
type InspectResult struct {
	Headers   []string        `json:"headers" yaml:"headers"`
	RowsCount int             `json:"rows_count" yaml:"rows_count"`
	SchemaMap model.SchemaMap `json:"schema_map" yaml:"schema_map"`
	Missing   []string        `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// Inspect 解析列名、行数并自动映射
func Inspect(text string) (*InspectResult, error) {
	headers, err := ParseHeaders(text)
	if err != nil {
		return nil, err
	}
	auto := AutoMap(headers)
	return &InspectResult{
		Headers:   headers,
		RowsCount: CountRows(text),
		SchemaMap: auto,
		Missing:   Missing(auto),
	}, nil
}
