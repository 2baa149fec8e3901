package results

import (
	"fmt"
	"strings"

	"github.com/ashwinyue/eval-console/internal/model"
)

// 导出列头，顺序固定
var exportHeaders = []string{
	"Question",
	"Agent Response",
	"Ground Truth",
	"Answer Correctness",
	"Answer Relevancy",
	"Coherence",
	"Conciseness",
	"Ground Truth Coherence",
	"Ground Truth Completeness",
	"Ground Truth Specificity",
}

// quote 文本字段总是加双引号，内部引号加倍
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ExportCSV 导出逐题结果，行以 \n 连接，指标值原样输出
func ExportCSV(rows []model.DetailedResult) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(exportHeaders, ","))
	for _, r := range rows {
		cells := []string{quote(r.Question), quote(r.Response), quote(r.GroundTruth)}
		for _, k := range model.DetailedMetricKeys {
			cells = append(cells, r.Scores[k.Key])
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return strings.Join(lines, "\n")
}

// ExportFilename evaluation_<id>_detailed.csv
func ExportFilename(evaluationID string) string {
	return fmt.Sprintf("evaluation_%s_detailed.csv", evaluationID)
}
