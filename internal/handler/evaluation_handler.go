package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/eval-console/internal/model"
	"github.com/ashwinyue/eval-console/internal/navigation"
	"github.com/ashwinyue/eval-console/internal/service"
	"github.com/ashwinyue/eval-console/internal/service/evaluation"
	"github.com/ashwinyue/eval-console/internal/service/results"
)

// EvaluationHandler 评估处理器
type EvaluationHandler struct {
	svc *service.Services
}

// NewEvaluationHandler 创建评估处理器
func NewEvaluationHandler(svc *service.Services) *EvaluationHandler {
	return &EvaluationHandler{svc: svc}
}

// ResultView 结果页数据
type ResultView struct {
	Result   *model.EvaluationResult `json:"result"`
	Headline *results.Headline       `json:"headline,omitempty"`
	Metrics  []model.MetricKey       `json:"metrics"`
	Table    *results.TableView      `json:"table"`
	Rows     []model.DetailedResult  `json:"rows"`
}

func resultView(res *model.EvaluationResult, table *results.TableView) *ResultView {
	return &ResultView{
		Result:   res,
		Headline: results.HeadlineOf(res.AggregatedResults),
		Metrics:  model.DetailedMetricKeys,
		Table:    table,
		Rows:     table.Apply(res.DetailedResults),
	}
}

// tableFromQuery 由 metric、view、sort 参数构造表格状态
func tableFromQuery(c *gin.Context) (*results.TableView, error) {
	table := results.NewTableView()
	if metric := c.Query("metric"); metric != "" {
		if err := table.SelectMetric(metric); err != nil {
			return nil, err
		}
	}
	if raw := c.Query("view"); raw != "" {
		mode, err := results.ParseViewMode(raw)
		if err != nil {
			return nil, err
		}
		table.SetViewMode(mode)
	}
	if raw := c.Query("sort"); raw != "" {
		mode, err := results.ParseSortMode(raw)
		if err != nil {
			return nil, err
		}
		if table.Metric != "" {
			table.Sort = mode
		}
	}
	return table, nil
}

// StartEvaluation 启动评估，未指定数据集时使用当前选择
// POST /api/v1/evaluations
func (h *EvaluationHandler) StartEvaluation(c *gin.Context) {
	var req evaluation.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	started, err := h.svc.Evaluation.Start(c.Request.Context(), req)
	if err != nil {
		Error(c, err)
		return
	}
	Created(c, started)
}

// GetProgress 进度快照
// GET /api/v1/evaluations/:id/progress
func (h *EvaluationHandler) GetProgress(c *gin.Context) {
	p, err := h.svc.Evaluation.Progress(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, p)
}

// CancelEvaluation 取消评估
// DELETE /api/v1/evaluations/:id
func (h *EvaluationHandler) CancelEvaluation(c *gin.Context) {
	p, err := h.svc.Evaluation.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, p)
}

// GetResults 评估结果，支持逐题筛选与排序
// GET /api/v1/evaluations/results?id=&agent=&type=&metric=&view=&sort=
func (h *EvaluationHandler) GetResults(c *gin.Context) {
	params := navigation.FromValues(c.Request.URL.Query())
	if err := params.Require(navigation.KeyID, navigation.KeyAgent, navigation.KeyType); err != nil {
		Error(c, err)
		return
	}
	table, err := tableFromQuery(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	res, err := h.svc.Evaluation.Result(c.Request.Context(), params)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, resultView(res, table))
}

// ExportResults 导出逐题结果 CSV
// GET /api/v1/evaluations/results/export?id=&agent=&type=
func (h *EvaluationHandler) ExportResults(c *gin.Context) {
	params := navigation.FromValues(c.Request.URL.Query())
	res, err := h.svc.Evaluation.Result(c.Request.Context(), params)
	if err != nil {
		Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+results.ExportFilename(res.EvaluationID)+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(results.ExportCSV(res.DetailedResults)))
}
