package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage 本地文件存储
type LocalStorage struct {
	basePath  string // 基础路径
	urlPrefix string // URL前缀，用于生成访问URL
}

// NewLocalStorage 创建本地存储服务
func NewLocalStorage(basePath, urlPrefix string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &LocalStorage{
		basePath:  basePath,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
	}, nil
}

// Save 保存文件到 {basePath}/{prefix}/{uuid}{ext}
func (s *LocalStorage) Save(ctx context.Context, req *SaveRequest) (string, error) {
	relativePath := objectName(req.Prefix, req.FileName, req.ContentType, uuid.New().String())
	fullPath, err := s.resolve(relativePath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, req.Reader); err != nil {
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return relativePath, nil
}

// Get 获取文件内容
func (s *LocalStorage) Get(ctx context.Context, filePath string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(filePath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Delete 删除文件，不存在时视为成功
func (s *LocalStorage) Delete(ctx context.Context, filePath string) error {
	fullPath, err := s.resolve(filePath)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// GetURL 获取文件的访问URL
func (s *LocalStorage) GetURL(filePath string) string {
	return fmt.Sprintf("%s/%s", s.urlPrefix, filePath)
}

// resolve 拒绝逃出 basePath 的路径
func (s *LocalStorage) resolve(filePath string) (string, error) {
	fullPath := filepath.Join(s.basePath, filePath)
	rel, err := filepath.Rel(s.basePath, fullPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid file path: %s", filePath)
	}
	return fullPath, nil
}

// extensionOf 优先使用文件名后缀，否则根据内容类型推断
func extensionOf(fileName, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(fileName)); ext != "" {
		return ext
	}
	switch contentType {
	case "text/csv", "application/csv":
		return ".csv"
	case "text/plain":
		return ".txt"
	case "application/json":
		return ".json"
	default:
		return ".bin"
	}
}
