package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

type S3Store struct {
	client *minio.Client
	bucket string
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	// minio-go expects host:port, not a URL
	endpoint := cfg.Endpoint
	secure := cfg.UseSSL
	if strings.HasPrefix(endpoint, "https://") {
		endpoint = strings.TrimPrefix(endpoint, "https://")
		secure = true
	} else if strings.HasPrefix(endpoint, "http://") {
		endpoint = strings.TrimPrefix(endpoint, "http://")
		secure = false
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, s.mapError(err)
	}

	// GetObject is lazy; Stat surfaces a missing key.
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, nil, s.mapError(err)
	}

	return obj, objectInfo(key, stat), nil
}

func (s *S3Store) Head(ctx context.Context, key string) (*ObjectInfo, error) {
	stat, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return objectInfo(key, stat), nil
}

func objectInfo(key string, stat minio.ObjectInfo) *ObjectInfo {
	return &ObjectInfo{
		Key:          key,
		Size:         stat.Size,
		ETag:         strings.Trim(stat.ETag, "\""),
		LastModified: stat.LastModified,
		ContentType:  stat.ContentType,
	}
}

func (s *S3Store) mapError(err error) error {
	if err == nil {
		return nil
	}

	errResp := minio.ToErrorResponse(err)
	if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, s.bucket, errResp.Key)
	}
	if errResp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return err
}
