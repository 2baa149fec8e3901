package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/eval-console/internal/navigation"
	"github.com/ashwinyue/eval-console/internal/service"
	"github.com/ashwinyue/eval-console/internal/service/setup"
)

// SetupHandler 评估配置处理器
type SetupHandler struct {
	svc *service.Services
}

// NewSetupHandler 创建评估配置处理器
func NewSetupHandler(svc *service.Services) *SetupHandler {
	return &SetupHandler{svc: svc}
}

// GetSetup 当前选择与可选区域
// GET /api/v1/setup
func (h *SetupHandler) GetSetup(c *gin.Context) {
	Success(c, gin.H{
		"state":   h.svc.Setup.State(),
		"regions": setup.Regions,
		"ready":   h.svc.Setup.Ready(),
	})
}

// UpdateSetup 部分更新选择
// PUT /api/v1/setup
func (h *SetupHandler) UpdateSetup(c *gin.Context) {
	var req setup.Update
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	st, err := h.svc.Setup.Apply(c.Request.Context(), req)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, st)
}

// Proceed 校验后返回数据集页面的导航参数
// POST /api/v1/setup/proceed
func (h *SetupHandler) Proceed(c *gin.Context) {
	params, err := h.svc.Setup.Proceed()
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{
		"params": params,
		"url":    params.URL(navigation.GroundTruthPath),
	})
}
