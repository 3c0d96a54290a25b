package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Store keeps artifacts in an S3 compatible bucket (MinIO in development).
type S3Store struct {
	client     *minio.Client
	bucketName string
	region     string
	initOnce   sync.Once
	initErr    error
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &S3Store{
		client:     client,
		bucketName: bucket,
		region:     region,
	}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func (s *S3Store) Write(ctx context.Context, projectUUID, name string, data []byte) error {
	if err := checkNames(projectUUID, name); err != nil {
		return err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	_, err := s.client.PutObject(ctx, s.bucketName, objectKey(projectUUID, name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: ContentTypeForName(name),
	})
	if err != nil {
		return fmt.Errorf("failed to put artifact: %w", err)
	}
	return nil
}

func (s *S3Store) Exists(ctx context.Context, projectUUID, name string) (bool, error) {
	if err := checkNames(projectUUID, name); err != nil {
		return false, err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return false, fmt.Errorf("ensure bucket: %w", err)
	}
	_, err := s.client.StatObject(ctx, s.bucketName, objectKey(projectUUID, name), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isMissing(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat artifact: %w", err)
}

func (s *S3Store) Move(ctx context.Context, srcProjectUUID, name, dstProjectUUID, dstName string) error {
	if err := checkNames(srcProjectUUID, name, dstProjectUUID, dstName); err != nil {
		return err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	src := minio.CopySrcOptions{Bucket: s.bucketName, Object: objectKey(srcProjectUUID, name)}
	dst := minio.CopyDestOptions{Bucket: s.bucketName, Object: objectKey(dstProjectUUID, dstName)}
	if _, err := s.client.CopyObject(ctx, dst, src); err != nil {
		if isMissing(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to copy artifact: %w", err)
	}
	if err := s.client.RemoveObject(ctx, s.bucketName, src.Object, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove moved artifact source: %w", err)
	}
	return nil
}

func (s *S3Store) Open(ctx context.Context, projectUUID, name string) (io.ReadCloser, error) {
	ok, err := s.Exists(ctx, projectUUID, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	obj, err := s.client.GetObject(ctx, s.bucketName, objectKey(projectUUID, name), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	return obj, nil
}

func (s *S3Store) Remove(ctx context.Context, projectUUID, name string) error {
	ok, err := s.Exists(ctx, projectUUID, name)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if err := s.client.RemoveObject(ctx, s.bucketName, objectKey(projectUUID, name), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove artifact: %w", err)
	}
	return nil
}

func (s *S3Store) RemoveProject(ctx context.Context, projectUUID string) error {
	if err := checkNames(projectUUID); err != nil {
		return err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    projectPrefix(projectUUID),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return fmt.Errorf("failed to list artifacts: %w", obj.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucketName, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to remove artifact %s: %w", obj.Key, err)
		}
	}
	return nil
}

func isMissing(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchBucket"
}
