// Package handler 提供评估控制台的 HTTP 处理器
package handler

import (
	"github.com/ashwinyue/eval-console/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Agent       *AgentHandler
	Setup       *SetupHandler
	GroundTruth *GroundTruthHandler
	Evaluation  *EvaluationHandler
	Run         *RunHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Agent:       NewAgentHandler(svc),
		Setup:       NewSetupHandler(svc),
		GroundTruth: NewGroundTruthHandler(svc),
		Evaluation:  NewEvaluationHandler(svc),
		Run:         NewRunHandler(svc),
	}
}
