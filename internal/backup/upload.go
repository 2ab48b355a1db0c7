package backup

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/julianstephens/streakline/internal/config"
	"github.com/julianstephens/streakline/internal/logger"
)

// Uploader ships a local backup file somewhere off the machine.
type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

// MinIOUploader puts backups into an S3-compatible bucket.
type MinIOUploader struct {
	mc     *minio.Client
	bucket string
	prefix string
}

// NewMinIOUploader creates an uploader for cfg. The bucket is created on first use.
func NewMinIOUploader(cfg config.S3Config) (*MinIOUploader, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("s3 upload is not configured")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &MinIOUploader{mc: mc, bucket: cfg.Bucket, prefix: "backups/"}, nil
}

func (u *MinIOUploader) ensureBucket(ctx context.Context) error {
	exists, err := u.mc.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", u.bucket, err)
	}
	if !exists {
		if err := u.mc.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", u.bucket, err)
		}
		logger.Info("bucket created", "bucket", u.bucket)
	}
	return nil
}

// Upload stores the file under backups/<name> and returns the object key.
func (u *MinIOUploader) Upload(ctx context.Context, path string) (string, error) {
	if err := u.ensureBucket(ctx); err != nil {
		return "", err
	}

	key := u.prefix + filepath.Base(path)
	info, err := u.mc.FPutObject(ctx, u.bucket, key, path, minio.PutObjectOptions{
		ContentType: "application/vnd.sqlite3",
	})
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", u.bucket, key, err)
	}

	logger.Debug("backup uploaded", "bucket", u.bucket, "key", key, "size", info.Size)
	return key, nil
}
