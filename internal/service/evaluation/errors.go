package evaluation

import (
	"errors"
	"fmt"

	"github.com/ashwinyue/eval-console/internal/navigation"
	"github.com/ashwinyue/eval-console/internal/repository"
)

var (
	// ErrValidation 启动参数不合法
	ErrValidation = errors.New("validation failed")
	// ErrEvaluationNotFound 评估任务不存在
	ErrEvaluationNotFound = repository.ErrEvaluationNotFound
	// ErrAgentNotFound Agent 不存在
	ErrAgentNotFound = errors.New("agent not found")
	// ErrMissingContext 缺少导航参数
	ErrMissingContext = navigation.ErrMissingContext
	// ErrClosed 服务已关闭
	ErrClosed = errors.New("evaluation service closed")
)

// ValidationError 带用户提示信息的校验错误
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Is 匹配 ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
