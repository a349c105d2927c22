package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/and161185/cardvault/internal/model"
)

// presignTTL is the maximum S3 presigned URL lifetime.
const presignTTL = 7 * 24 * time.Hour

// S3Config configures an S3-compatible backend.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// PublicBase, when set, is used instead of presigned URLs: <PublicBase>/<bucket>/<key>.
	PublicBase string
}

type s3API interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucket, object string, expires time.Duration, params url.Values) (*url.URL, error)
}

// S3 stores objects in a bucket through minio-go.
type S3 struct {
	api        s3API
	bucket     string
	publicBase string
}

// NewS3 connects and makes sure the bucket exists.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}
	s := &S3{api: cli, bucket: cfg.Bucket, publicBase: strings.TrimRight(cfg.PublicBase, "/")}
	if err := s.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *S3) ensureBucket(ctx context.Context, region string) error {
	ok, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("bucket %s: %w", s.bucket, err)
	}
	if ok {
		return nil
	}
	return s.api.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region})
}

func (s *S3) Put(ctx context.Context, key string, u model.Upload) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	ct := u.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	if _, err := s.api.PutObject(ctx, s.bucket, key, u.Body, u.Size, minio.PutObjectOptions{ContentType: ct}); err != nil {
		return "", err
	}
	if s.publicBase != "" {
		return s.publicBase + "/" + s.bucket + "/" + key, nil
	}
	signed, err := s.api.PresignedGetObject(ctx, s.bucket, key, presignTTL, nil)
	if err != nil {
		return "", err
	}
	return signed.String(), nil
}
