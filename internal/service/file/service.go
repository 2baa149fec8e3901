package file

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/ashwinyue/eval-console/internal/config"
)

// Service 数据集源文件服务
type Service struct {
	storage     Storage
	storageType StorageType
}

// StoredFile 已保存的文件
type StoredFile struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// NewService 创建文件服务
func NewService(storage Storage, storageType StorageType) *Service {
	return &Service{
		storage:     storage,
		storageType: storageType,
	}
}

// NewServiceFromConfig 从配置创建文件服务
func NewServiceFromConfig(ctx context.Context, cfg config.StorageConfig) (*Service, error) {
	var storage Storage
	var err error

	switch StorageType(cfg.Type) {
	case StorageTypeLocal:
		basePath := cfg.BasePath
		if basePath == "" {
			basePath = "./data/uploads"
		}
		urlPrefix := cfg.URLPrefix
		if urlPrefix == "" {
			urlPrefix = "/uploads"
		}
		storage, err = NewLocalStorage(basePath, urlPrefix)

	case StorageTypeMinIO:
		m := cfg.MinIO
		if m.Endpoint == "" || m.AccessKey == "" || m.SecretKey == "" || m.Bucket == "" {
			return nil, fmt.Errorf("missing required MinIO config")
		}
		urlPrefix := cfg.URLPrefix
		if urlPrefix == "" {
			urlPrefix = m.Endpoint
		}
		storage, err = NewMinIOStorage(ctx, &MinIOConfig{
			Endpoint:   m.Endpoint,
			AccessKey:  m.AccessKey,
			SecretKey:  m.SecretKey,
			BucketName: m.Bucket,
			UseSSL:     m.UseSSL,
			URLPrefix:  urlPrefix,
		})

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}
	return NewService(storage, StorageType(cfg.Type)), nil
}

// Save 保存文件内容并计算哈希
func (s *Service) Save(ctx context.Context, prefix, fileName, contentType string, data []byte) (*StoredFile, error) {
	path, err := s.storage.Save(ctx, &SaveRequest{
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		Reader:      bytes.NewReader(data),
		Prefix:      prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	return &StoredFile{
		Path: path,
		Hash: Hash(data),
		URL:  s.storage.GetURL(path),
		Size: int64(len(data)),
	}, nil
}

// Open 读取文件
func (s *Service) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return s.storage.Get(ctx, path)
}

// Delete 删除文件
func (s *Service) Delete(ctx context.Context, path string) error {
	return s.storage.Delete(ctx, path)
}

// Type 存储类型
func (s *Service) Type() StorageType {
	return s.storageType
}

// Hash 返回 sha256:<hex>
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}
