package groundtruth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ashwinyue/eval-console/internal/model"
	"github.com/ashwinyue/eval-console/internal/observability"
	"github.com/ashwinyue/eval-console/internal/service/file"
)

// FileStore 源文件存储
type FileStore interface {
	Save(ctx context.Context, prefix, fileName, contentType string, data []byte) (*file.StoredFile, error)
	Delete(ctx context.Context, path string) error
}

// FileInput 上传的文件
type FileInput struct {
	Name        string
	ContentType string
	Data        []byte
}

// IsCSV 扩展名为 .csv 且内容类型不是 text/plain
func (f *FileInput) IsCSV() bool {
	return f != nil && hasCSVExt(f.Name) && f.ContentType != "text/plain"
}

func hasCSVExt(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".csv")
}

func hasTextExt(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".txt")
}

// GenerateRequest 由源文件生成数据集
type GenerateRequest struct {
	Name        string
	Description string
	Tags        []string
	Rows        int
	Metadata    string // JSON，仅 CSV 源文件解析
	File        *FileInput
}

// UploadRequest 上传 CSV 并映射
type UploadRequest struct {
	Name        string
	Description string
	Tags        []string
	SchemaMap   model.SchemaMap
	File        *FileInput
}

// EditRequest 编辑数据集
type EditRequest struct {
	Name        string
	Description string
	Tags        []string
	Rows        int
	File        *FileInput // 可选，替换源文件
}

// Service 数据集服务
type Service struct {
	store   *Store
	files   FileStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// ServiceOption 配置 Service
type ServiceOption func(*Service)

// WithMetrics 注入指标
func WithMetrics(m *observability.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithServiceLogger 注入日志器
func WithServiceLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService 创建数据集服务
func NewService(store *Store, files FileStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		files:  files,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store 底层容器
func (s *Service) Store() *Store {
	return s.store
}

// ParseTags 逗号分隔的标签，去除空白与空项
func ParseTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func normalizeTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseMetadata 元数据必须是 JSON 对象
func parseMetadata(raw string) (model.JSON, error) {
	var meta model.JSON
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	if meta == nil {
		return nil, ErrInvalidMetadata
	}
	return meta, nil
}

// placeholderSample 生成 min(10, rows) 行占位样本
func placeholderSample(rows int, kind string) []model.SampleRow {
	n := rows
	if n > model.MaxSampleRows {
		n = model.MaxSampleRows
	}
	sample := make([]model.SampleRow, n)
	for i := range sample {
		sample[i] = model.SampleRow{
			Index:    i + 1,
			Question: fmt.Sprintf("%s question %d", kind, i+1),
			Answer:   fmt.Sprintf("%s answer %d", kind, i+1),
		}
	}
	return sample
}

func (s *Service) record(op string, err error) {
	s.metrics.RecordDatasetOperation(op, err)
	if err != nil && !errors.Is(err, ErrValidation) && !errors.Is(err, ErrDatasetNotFound) {
		s.logger.Error("dataset operation failed", zap.String("operation", op), zap.Error(err))
	}
}

// saveFile 保存源文件，返回路径与哈希
func (s *Service) saveFile(ctx context.Context, id string, f *FileInput) (*file.StoredFile, error) {
	stored, err := s.files.Save(ctx, id, f.Name, f.ContentType, f.Data)
	if err != nil {
		return nil, fmt.Errorf("store source file: %w", err)
	}
	return stored, nil
}

// discardFile 回滚时删除已保存的文件
func (s *Service) discardFile(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := s.files.Delete(ctx, path); err != nil {
		s.logger.Warn("failed to remove source file", zap.String("path", path), zap.Error(err))
	}
}

// ========== 生成 ==========

// Generate 由源文件生成数据集并选中
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (gt model.GroundTruth, err error) {
	defer func() { s.record("generate", err) }()

	name := strings.TrimSpace(req.Name)
	if name == "" || req.File == nil || req.Rows <= 0 {
		return gt, validationf("please provide a dataset name, a source file (.csv or .txt), and a valid number of questions (>= 1)")
	}
	if !hasCSVExt(req.File.Name) && !hasTextExt(req.File.Name) {
		return gt, validationf("source file must be .csv or .txt")
	}

	var meta model.JSON
	if req.File.IsCSV() && strings.TrimSpace(req.Metadata) != "" {
		if meta, err = parseMetadata(req.Metadata); err != nil {
			return gt, err
		}
	}

	now := s.store.clock.Now().UTC()
	gt = model.GroundTruth{
		ID:          model.NewID("gt", now, 9),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		RowsCount:   req.Rows,
		CreatedAt:   now,
		UpdatedAt:   now,
		Tags:        normalizeTags(req.Tags),
		SourceType:  model.SourceTypeGenerated,
		Metadata:    meta,
		Sample:      placeholderSample(req.Rows, "Generated"),
	}

	stored, err := s.saveFile(ctx, gt.ID, req.File)
	if err != nil {
		return model.GroundTruth{}, err
	}
	gt.FilePath = stored.Path
	gt.FileHash = stored.Hash

	if err = s.store.Add(ctx, gt); err != nil {
		s.discardFile(ctx, stored.Path)
		return model.GroundTruth{}, err
	}
	if err = s.store.Select(gt.ID); err != nil {
		return model.GroundTruth{}, err
	}

	s.logger.Info("ground truth generated", zap.String("id", gt.ID), zap.Int("rows", gt.RowsCount))
	return gt, nil
}

// ========== 上传 ==========

// InspectUpload 解析上传 CSV 的列名、行数并自动映射
func (s *Service) InspectUpload(ctx context.Context, f *FileInput) (*InspectResult, error) {
	if f == nil || !hasCSVExt(f.Name) {
		return nil, ErrNotCSV
	}
	return Inspect(string(f.Data))
}

// Upload 按映射导入 CSV 并选中
func (s *Service) Upload(ctx context.Context, req UploadRequest) (gt model.GroundTruth, err error) {
	defer func() { s.record("upload", err) }()

	if req.File == nil || !hasCSVExt(req.File.Name) {
		return gt, ErrNotCSV
	}
	text := string(req.File.Data)
	if _, err = ParseHeaders(text); err != nil {
		return gt, err
	}
	schemaMap := NormalizeMapping(req.SchemaMap)
	if err = ValidateMapping(schemaMap); err != nil {
		return gt, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.TrimSpace(req.File.Name[:len(req.File.Name)-len(".csv")])
	}
	if name == "" {
		return gt, validationf("dataset name is required")
	}

	rows := CountRows(text)
	sample := BuildSample(text, schemaMap, model.MaxSampleRows)
	if len(sample) == 0 && rows > 0 {
		sample = []model.SampleRow{{Index: 1, Question: "Sample question", Answer: "Sample answer"}}
	}

	now := s.store.clock.Now().UTC()
	gt = model.GroundTruth{
		ID:          model.NewID("gt", now, 9),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		RowsCount:   rows,
		CreatedAt:   now,
		UpdatedAt:   now,
		Tags:        normalizeTags(req.Tags),
		SourceType:  model.SourceTypeUploaded,
		SchemaMap:   schemaMap,
		Sample:      sample,
	}

	stored, err := s.saveFile(ctx, gt.ID, req.File)
	if err != nil {
		return model.GroundTruth{}, err
	}
	gt.FilePath = stored.Path
	gt.FileHash = stored.Hash

	if err = s.store.Add(ctx, gt); err != nil {
		s.discardFile(ctx, stored.Path)
		return model.GroundTruth{}, err
	}
	if err = s.store.Select(gt.ID); err != nil {
		return model.GroundTruth{}, err
	}

	s.logger.Info("ground truth uploaded", zap.String("id", gt.ID), zap.Int("rows", rows))
	return gt, nil
}

// ========== 编辑 ==========

// Edit 编辑名称、描述、标签与行数，可选替换源文件
func (s *Service) Edit(ctx context.Context, id string, req EditRequest) (gt model.GroundTruth, err error) {
	defer func() { s.record("edit", err) }()

	current, ok := s.store.Get(id)
	if !ok {
		return gt, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || req.Rows <= 0 {
		return gt, validationf("please provide a name and a valid number of rows (>= 1)")
	}
	for _, other := range s.store.List() {
		if other.ID != id && other.Name == name {
			return gt, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
	}

	description := strings.TrimSpace(req.Description)
	tags := normalizeTags(req.Tags)
	sample := placeholderSample(req.Rows, "Placeholder")
	patch := Patch{
		Name:        &name,
		Description: &description,
		Tags:        &tags,
		RowsCount:   &req.Rows,
		Sample:      &sample,
	}

	var stored *file.StoredFile
	if req.File != nil {
		if stored, err = s.saveFile(ctx, id, req.File); err != nil {
			return gt, err
		}
		patch.FilePath = &stored.Path
		patch.FileHash = &stored.Hash
	}

	gt, found, err := s.store.Update(ctx, id, patch)
	if err != nil || !found {
		if stored != nil {
			s.discardFile(ctx, stored.Path)
		}
		if err == nil {
			err = fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
		}
		return model.GroundTruth{}, err
	}
	if stored != nil && current.FilePath != "" && current.FilePath != stored.Path {
		s.discardFile(ctx, current.FilePath)
	}
	return gt, nil
}

// ========== 复制 / 删除 / 查询 ==========

// Duplicate 复制数据集并选中副本
func (s *Service) Duplicate(ctx context.Context, id string) (gt model.GroundTruth, err error) {
	defer func() { s.record("duplicate", err) }()
	return s.store.Duplicate(ctx, id)
}

// Delete 删除数据集，源文件尽力删除
func (s *Service) Delete(ctx context.Context, id string) (err error) {
	defer func() { s.record("delete", err) }()

	current, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	if _, err = s.store.Delete(ctx, id); err != nil {
		return err
	}
	// 副本与原数据集共享源文件
	if current.FilePath != "" && !s.fileInUse(current.FilePath) {
		s.discardFile(ctx, current.FilePath)
	}
	return nil
}

func (s *Service) fileInUse(path string) bool {
	for _, gt := range s.store.List() {
		if gt.FilePath == path {
			return true
		}
	}
	return false
}

// Get 按 ID 获取
func (s *Service) Get(id string) (model.GroundTruth, error) {
	gt, ok := s.store.Get(id)
	if !ok {
		return gt, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	return gt, nil
}

// Search 名称/描述检索并按标签过滤
func (s *Service) Search(query, tag string) []model.GroundTruth {
	return s.store.Search(query, tag)
}

// Tags 全部标签
func (s *Service) Tags() []string {
	return s.store.Tags()
}

// Select 选中数据集
func (s *Service) Select(id string) error {
	return s.store.Select(id)
}

// Selected 当前选中的数据集
func (s *Service) Selected() (model.GroundTruth, bool) {
	return s.store.Selected()
}
