package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

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

// S3Store keeps one JSON object per repository ref.
type S3Store struct {
	client     *minio.Client
	bucketName string
	region     string
	bucket     lazyInit
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
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
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Store{client: client, bucketName: bucket, region: region}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("store is nil")
	}
	return s.bucket.Do(func() error {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		return s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
}

func (s *S3Store) Put(ctx context.Context, snap Snapshot) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if err := validate(snap); err != nil {
		return err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.client.PutObject(ctx, s.bucketName, objectKey(snap.Key), bytes.NewReader(raw), int64(len(raw)),
		minio.PutObjectOptions{ContentType: "application/json"})
	return err
}

func (s *S3Store) Get(ctx context.Context, key string) (Snapshot, error) {
	if s == nil {
		return Snapshot{}, fmt.Errorf("store is nil")
	}
	if strings.TrimSpace(key) == "" {
		return Snapshot{}, fmt.Errorf("key is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("ensure bucket: %w", err)
	}
	obj, err := s.client.GetObject(ctx, s.bucketName, objectKey(key), minio.GetObjectOptions{})
	if err != nil {
		return Snapshot{}, err
	}
	defer obj.Close()

	raw, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, err
	}
	var out Snapshot
	if err := json.Unmarshal(raw, &out); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return out, nil
}

func objectKey(key string) string {
	return "snapshots/" + strings.TrimLeft(strings.TrimSpace(key), "/") + ".json"
}
