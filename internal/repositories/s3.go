package repositories

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/astralpath/interstellar/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Storage keeps profile pictures in an S3-compatible bucket. It is the
// backend of choice when the server itself should stay stateless; the
// bucket must be publicly readable under PublicBaseURL.
type S3Storage struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3Storage initializes the client with static credentials and an
// optional custom endpoint (for R2/MinIO-style providers).
func NewS3Storage(cfg config.S3Config) (*S3Storage, error) {
	if cfg.BucketName == "" || cfg.PublicBaseURL == "" {
		return nil, fmt.Errorf("s3 storage requires S3_BUCKET_NAME and S3_PUBLIC_BASE_URL")
	}

	awsCfg := aws.Config{
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Region:      cfg.Region,
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	log.Println("Successfully initialized S3 storage client")

	return &S3Storage{
		client:  client,
		bucket:  cfg.BucketName,
		baseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

func (s *S3Storage) Save(ctx context.Context, name string, r io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
		Body:   r,
	})
	return err
}

func (s *S3Storage) Remove(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	return err
}

func (s *S3Storage) PublicURL(name string) string {
	return s.baseURL + "/" + name
}

var _ ObjectStorage = (*S3Storage)(nil)
