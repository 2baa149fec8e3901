package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/eval-console/internal/navigation"
	"github.com/ashwinyue/eval-console/internal/repository"
	"github.com/ashwinyue/eval-console/internal/service/evaluation"
	"github.com/ashwinyue/eval-console/internal/service/groundtruth"
	"github.com/ashwinyue/eval-console/internal/service/run"
	"github.com/ashwinyue/eval-console/internal/service/setup"
)

// ========== API 响应格式 ==========

// SuccessResponse 成功响应
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code     int      `json:"code"`
	Msg      string   `json:"msg"`
	Problems []string `json:"problems,omitempty"`
	Redirect string   `json:"redirect,omitempty"`
}

// Success 成功响应 (200)
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: data})
}

// Created 创建成功响应 (201)
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{Success: true, Data: data})
}

// Accepted 已受理响应 (202)
func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, SuccessResponse{Success: true, Data: data})
}

// NoContent 无内容响应 (204)
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest 400 错误响应
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Msg: msg})
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Code: 404, Msg: msg})
}

// Conflict 409 错误响应
func Conflict(c *gin.Context, msg string) {
	c.JSON(http.StatusConflict, ErrorResponse{Code: 409, Msg: msg})
}

// InternalServerError 500 错误响应
func InternalServerError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Msg: msg})
}

// RedirectToSetup 缺少导航参数时回到配置页
func RedirectToSetup(c *gin.Context, err error) {
	c.Header("Location", navigation.SetupPath)
	c.JSON(http.StatusFound, ErrorResponse{Code: 302, Msg: err.Error(), Redirect: navigation.SetupPath})
}

// Error 根据错误类型返回相应的错误响应
func Error(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var setupErr *setup.ValidationError
	switch {
	case errors.Is(err, navigation.ErrMissingContext):
		RedirectToSetup(c, err)
	case errors.As(err, &setupErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Msg: setupErr.Error(), Problems: setupErr.Problems})
	case errors.Is(err, groundtruth.ErrDuplicateName):
		Conflict(c, err.Error())
	case errors.Is(err, groundtruth.ErrValidation),
		errors.Is(err, groundtruth.ErrInvalidMetadata),
		errors.Is(err, groundtruth.ErrNotCSV),
		errors.Is(err, groundtruth.ErrNoHeaders),
		errors.Is(err, groundtruth.ErrDatasetExists),
		errors.Is(err, evaluation.ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, groundtruth.ErrDatasetNotFound),
		errors.Is(err, repository.ErrRunNotFound),
		errors.Is(err, repository.ErrEvaluationNotFound),
		errors.Is(err, evaluation.ErrAgentNotFound),
		errors.Is(err, run.ErrTransitionNotFound):
		NotFound(c, err.Error())
	default:
		InternalServerError(c, err.Error())
	}
}

// PaginationData 分页响应数据结构
type PaginationData struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages,omitempty"`
}

// SuccessWithPagination 分页成功响应
func SuccessWithPagination(c *gin.Context, items interface{}, total int64, page, pageSize int) {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data: PaginationData{
			Items:      items,
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
		},
	})
}
