package groundtruth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ashwinyue/eval-console/internal/repository"
)

var (
	// ErrValidation 输入校验失败
	ErrValidation = errors.New("validation failed")
	// ErrInvalidMetadata 元数据不是合法的 JSON 对象
	ErrInvalidMetadata = errors.New("invalid metadata JSON")
	// ErrNotCSV 需要 .csv 文件
	ErrNotCSV = errors.New("csv file required")
	// ErrNoHeaders CSV 首行没有列名
	ErrNoHeaders = errors.New("no headers found")
	// ErrIncompleteMapping 必填字段未映射
	ErrIncompleteMapping = errors.New("incomplete schema mapping")
	// ErrDuplicateName 数据集名称重复
	ErrDuplicateName = errors.New("dataset name already exists")
	// ErrDatasetNotFound 数据集不存在
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrDatasetExists 数据集 ID 已存在
	ErrDatasetExists = errors.New("dataset id already exists")
	// ErrSnapshotVersion 快照版本高于当前支持的版本
	ErrSnapshotVersion = repository.ErrSnapshotVersion
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

// IncompleteMappingError 缺失的必填映射
type IncompleteMappingError struct {
	Missing []string
}

func (e *IncompleteMappingError) Error() string {
	return "missing required mappings: " + strings.Join(e.Missing, ", ")
}

// Is 匹配 ErrIncompleteMapping 与 ErrValidation
func (e *IncompleteMappingError) Is(target error) bool {
	return target == ErrIncompleteMapping || target == ErrValidation
}
