package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/eval-console/internal/model"
	"github.com/ashwinyue/eval-console/internal/service"
	"github.com/ashwinyue/eval-console/internal/service/evaluation"
	"github.com/ashwinyue/eval-console/internal/service/run"
	"github.com/ashwinyue/eval-console/internal/service/trend"
)

// AgentHandler Agent 处理器
type AgentHandler struct {
	svc *service.Services
}

// NewAgentHandler 创建 Agent 处理器
func NewAgentHandler(svc *service.Services) *AgentHandler {
	return &AgentHandler{svc: svc}
}

// ListAgents 列出 Agent 及最近一次运行
// GET /api/v1/agents
func (h *AgentHandler) ListAgents(c *gin.Context) {
	agents, err := h.svc.Agents(c.Request.Context())
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, agents)
}

// LatestResult 直接查看最近结果
// GET /api/v1/agents/:agent/latest-result
func (h *AgentHandler) LatestResult(c *gin.Context) {
	table, err := tableFromQuery(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	res, err := h.svc.Evaluation.LatestForAgent(c.Request.Context(), c.Param("agent"))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, resultView(res, table))
}

// ListRuns 运行列表，最新在前
// GET /api/v1/agents/:agent/runs?page=1&size=20
func (h *AgentHandler) ListRuns(c *gin.Context) {
	agentID := c.Param("agent")
	if _, ok := h.svc.Fixtures.Agent(agentID); !ok {
		Error(c, evaluation.ErrAgentNotFound)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(run.DefaultPageSize)))

	p, err := h.svc.Runs.List(c.Request.Context(), agentID, page, pageSize)
	if err != nil {
		Error(c, err)
		return
	}
	SuccessWithPagination(c, p.Items, int64(p.Total), p.Page, p.PageSize)
}

// Trend 趋势图数据
// GET /api/v1/agents/:agent/trend?metrics=Answer_Correctness,Coherence
func (h *AgentHandler) Trend(c *gin.Context) {
	agentID := c.Param("agent")
	if _, ok := h.svc.Fixtures.Agent(agentID); !ok {
		Error(c, evaluation.ErrAgentNotFound)
		return
	}

	metrics := model.TrendMetricKeys
	if raw := strings.TrimSpace(c.Query("metrics")); raw != "" {
		metrics = strings.Split(raw, ",")
		if err := trend.ValidateMetrics(metrics); err != nil {
			BadRequest(c, err.Error())
			return
		}
	}

	runs, err := h.svc.Runs.Runs(c.Request.Context(), agentID)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, trend.Build(agentID, runs, metrics...))
}
