package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"voicecmd/config"
	"voicecmd/logger"
)

const audioPrefix = "audio/"

// MinioClient wraps a MinIO connection bound to one bucket.
type MinioClient struct {
	client     *minio.Client
	bucketName string
	region     string
}

// NewMinioClient creates a client from cfg. No request is made yet.
func NewMinioClient(cfg *config.Config) (*MinioClient, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("create MinIO client: %w", err)
	}
	return &MinioClient{client: client, bucketName: cfg.MinioBucket, region: cfg.MinioRegion}, nil
}

// Bucket returns the bucket name.
func (m *MinioClient) Bucket() string {
	return m.bucketName
}

// EnsureBucket creates the bucket when it does not exist.
func (m *MinioClient) EnsureBucket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := m.client.BucketExists(ctx, m.bucketName)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucketName, err)
	}
	if exists {
		logger.Info("minio bucket ready", logger.String("bucket", m.bucketName))
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucketName, minio.MakeBucketOptions{Region: m.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", m.bucketName, err)
	}
	logger.Info("minio bucket created", logger.String("bucket", m.bucketName))
	return nil
}

// Archive uploads a saved recording and returns its object key. It
// satisfies the dispatcher's Archiver.
func (m *MinioClient) Archive(ctx context.Context, localPath string) (string, error) {
	key := ObjectKey(localPath, time.Now())
	_, err := m.client.FPutObject(ctx, m.bucketName, key, localPath, minio.PutObjectOptions{
		ContentType: "audio/wav",
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", localPath, err)
	}
	return key, nil
}

// ObjectKey places a recording under audio/<date>/<file name>.
func ObjectKey(localPath string, at time.Time) string {
	return audioPrefix + at.UTC().Format("2006/01/02") + "/" + filepath.Base(localPath)
}
