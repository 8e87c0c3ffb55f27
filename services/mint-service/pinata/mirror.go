package pinata

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MirrorConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// MinioMirror stores pinned documents in an S3 compatible bucket under
// pins/<cid>.
type MinioMirror struct {
	client *minio.Client
	bucket string
}

func NewMinioMirror(ctx context.Context, cfg MirrorConfig) (*MinioMirror, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	// 确保存储桶存在
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return &MinioMirror{client: client, bucket: cfg.BucketName}, nil
}

func objectName(cid string) string {
	return "pins/" + cid
}

func (m *MinioMirror) Put(ctx context.Context, cid string, data []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectName(cid), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}

func (m *MinioMirror) Get(ctx context.Context, cid string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, objectName(cid), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, obj); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
