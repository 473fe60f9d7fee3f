package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"study_planner_backend/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StorageProvider 导出文件的存储后端
type StorageProvider interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// LocalStorageProvider 写入本地目录，开发环境默认
type LocalStorageProvider struct {
	Dir string
}

func NewLocalStorageProvider(dir string) *LocalStorageProvider {
	if dir == "" {
		dir = "exports"
	}
	return &LocalStorageProvider{Dir: dir}
}

func (p *LocalStorageProvider) Save(_ context.Context, name string, data []byte, _ string) (string, error) {
	if err := os.MkdirAll(p.Dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(p.Dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// MinioStorageProvider 写入 MinIO 对象存储
type MinioStorageProvider struct {
	client *minio.Client
	bucket string
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check minio bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create minio bucket: %w", err)
		}
	}

	return &MinioStorageProvider{client: client, bucket: cfg.MinioBucket}, nil
}

func (p *MinioStorageProvider) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	_, err := p.client.PutObject(ctx, p.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s", p.bucket, name), nil
}

// NewStorageProvider 按配置选择存储后端
func NewStorageProvider(cfg *config.StorageConfig) (StorageProvider, error) {
	switch cfg.Type {
	case "minio":
		return NewMinioStorageProvider(cfg)
	default:
		return NewLocalStorageProvider(cfg.LocalPath), nil
	}
}
