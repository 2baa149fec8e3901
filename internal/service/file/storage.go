package file

import (
	"context"
	"io"
)

// Storage 文件存储接口
type Storage interface {
	// Save 保存文件，返回文件路径
	Save(ctx context.Context, req *SaveRequest) (string, error)
	// Get 获取文件内容
	Get(ctx context.Context, filePath string) (io.ReadCloser, error)
	// Delete 删除文件
	Delete(ctx context.Context, filePath string) error
	// GetURL 获取文件的访问URL
	GetURL(filePath string) string
}

// SaveRequest 保存文件请求
type SaveRequest struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
	Prefix      string // 目录前缀，一般为数据集 ID
}

// StorageType 存储类型
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeMinIO StorageType = "minio"
)

// objectName 生成 {prefix}/{uuid}{ext}
func objectName(prefix, fileName, contentType, id string) string {
	ext := extensionOf(fileName, contentType)
	if prefix == "" {
		return id + ext
	}
	return prefix + "/" + id + ext
}
