package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/eval-console/internal/service"
)

// RunHandler 运行记录处理器
type RunHandler struct {
	svc *service.Services
}

// NewRunHandler 创建运行记录处理器
func NewRunHandler(svc *service.Services) *RunHandler {
	return &RunHandler{svc: svc}
}

// ToggleExperimentRequest 切换实验标记请求
type ToggleExperimentRequest struct {
	IsExperiment *bool `json:"is_experiment" binding:"required"`
}

// ToggleExperiment 乐观切换实验标记，返回待确认的切换
// POST /api/v1/runs/:id/experiment
func (h *RunHandler) ToggleExperiment(c *gin.Context) {
	var req ToggleExperimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	t, err := h.svc.Runs.Toggle(c.Request.Context(), c.Param("id"), *req.IsExperiment)
	if err != nil {
		Error(c, err)
		return
	}
	Accepted(c, t)
}

// GetTransition 查询切换状态
// GET /api/v1/runs/toggles/:id
func (h *RunHandler) GetTransition(c *gin.Context) {
	t, err := h.svc.Runs.Transition(c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, t)
}
