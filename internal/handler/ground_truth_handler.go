package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/eval-console/internal/model"
	"github.com/ashwinyue/eval-console/internal/service"
	"github.com/ashwinyue/eval-console/internal/service/groundtruth"
)

// GroundTruthHandler Ground Truth 数据集处理器
type GroundTruthHandler struct {
	svc *service.Services
}

// NewGroundTruthHandler 创建数据集处理器
func NewGroundTruthHandler(svc *service.Services) *GroundTruthHandler {
	return &GroundTruthHandler{svc: svc}
}

// formFile 读取 multipart 字段 file，未上传时返回 nil
func formFile(c *gin.Context) (*groundtruth.FileInput, error) {
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &groundtruth.FileInput{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// formRows 解析行数，空值为 0
func formRows(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.PostForm("rows"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("rows must be a whole number")
	}
	return n, nil
}

// ListGroundTruths 检索数据集
// GET /api/v1/ground-truths?q=&tag=
func (h *GroundTruthHandler) ListGroundTruths(c *gin.Context) {
	items := h.svc.GroundTruth.Search(c.Query("q"), c.Query("tag"))
	Success(c, gin.H{
		"items":        items,
		"total":        len(items),
		"last_updated": h.svc.GroundTruth.Store().LastUpdatedAt(),
	})
}

// ListTags 全部标签
// GET /api/v1/ground-truths/tags
func (h *GroundTruthHandler) ListTags(c *gin.Context) {
	Success(c, h.svc.GroundTruth.Tags())
}

// GetGroundTruth 获取数据集
func (h *GroundTruthHandler) GetGroundTruth(c *gin.Context) {
	gt, err := h.svc.GroundTruth.Get(c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gt)
}

// GetSelection 当前选中的数据集
func (h *GroundTruthHandler) GetSelection(c *gin.Context) {
	gt, ok := h.svc.GroundTruth.Selected()
	if !ok {
		Success(c, nil)
		return
	}
	Success(c, gt)
}

// SelectRequest 选择数据集请求，空 ID 清除选择
type SelectRequest struct {
	ID string `json:"id"`
}

// Select 选择数据集
func (h *GroundTruthHandler) Select(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := h.svc.GroundTruth.Select(req.ID); err != nil {
		Error(c, err)
		return
	}
	h.GetSelection(c)
}

// Generate 由源文件生成数据集
// POST /api/v1/ground-truths/generate (multipart)
func (h *GroundTruthHandler) Generate(c *gin.Context) {
	f, err := formFile(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	rows, err := formRows(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	gt, err := h.svc.GroundTruth.Generate(c.Request.Context(), groundtruth.GenerateRequest{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Tags:        groundtruth.ParseTags(c.PostForm("tags")),
		Rows:        rows,
		Metadata:    c.PostForm("metadata"),
		File:        f,
	})
	if err != nil {
		Error(c, err)
		return
	}
	Created(c, gt)
}

// InspectUpload 解析 CSV 列名并自动映射
// POST /api/v1/ground-truths/upload/inspect (multipart)
func (h *GroundTruthHandler) InspectUpload(c *gin.Context) {
	f, err := formFile(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	res, err := h.svc.GroundTruth.InspectUpload(c.Request.Context(), f)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{
		"inspect": res,
		"schema":  model.StandardSchema,
	})
}

// Upload 上传 CSV 并按映射创建数据集
// POST /api/v1/ground-truths/upload (multipart, schema_map 为 JSON)
func (h *GroundTruthHandler) Upload(c *gin.Context) {
	f, err := formFile(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	var schemaMap model.SchemaMap
	if raw := strings.TrimSpace(c.PostForm("schema_map")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &schemaMap); err != nil {
			BadRequest(c, "schema_map must be a JSON object")
			return
		}
	}

	gt, err := h.svc.GroundTruth.Upload(c.Request.Context(), groundtruth.UploadRequest{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Tags:        groundtruth.ParseTags(c.PostForm("tags")),
		SchemaMap:   schemaMap,
		File:        f,
	})
	if err != nil {
		Error(c, err)
		return
	}
	Created(c, gt)
}

// Edit 编辑数据集，可选替换源文件
// PUT /api/v1/ground-truths/:id (multipart)
func (h *GroundTruthHandler) Edit(c *gin.Context) {
	f, err := formFile(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	rows, err := formRows(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	gt, err := h.svc.GroundTruth.Edit(c.Request.Context(), c.Param("id"), groundtruth.EditRequest{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Tags:        groundtruth.ParseTags(c.PostForm("tags")),
		Rows:        rows,
		File:        f,
	})
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gt)
}

// Duplicate 复制数据集
func (h *GroundTruthHandler) Duplicate(c *gin.Context) {
	gt, err := h.svc.GroundTruth.Duplicate(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	Created(c, gt)
}

// Delete 删除数据集
func (h *GroundTruthHandler) Delete(c *gin.Context) {
	if err := h.svc.GroundTruth.Delete(c.Request.Context(), c.Param("id")); err != nil {
		Error(c, err)
		return
	}
	NoContent(c)
}
