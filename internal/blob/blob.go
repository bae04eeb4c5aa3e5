// Package blob uploads store images to an S3-compatible bucket.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Config holds the bucket connection settings.
type Config struct {
	Region   string
	Bucket   string
	Key      string
	Secret   string
	Endpoint string // empty for stock AWS S3
}

// ImageStore uploads images and returns their public URLs.
type ImageStore struct {
	client *s3.Client
	bucket string
	region string
	host   string
}

// NewImageStore builds the S3 client. A custom endpoint covers
// S3-compatible providers.
func NewImageStore(ctx context.Context, cfg Config) (*ImageStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.Key, cfg.Secret, "")),
	}

	host := fmt.Sprintf("s3.%s.amazonaws.com", cfg.Region)
	if cfg.Endpoint != "" {
		host = strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{URL: "https://" + host}, nil
		})
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load blob storage config: %w", err)
	}

	return &ImageStore{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		region: cfg.Region,
		host:   host,
	}, nil
}

// UploadStoreImage stores the image under a per-store key and returns its
// public URL.
func (s *ImageStore) UploadStoreImage(ctx context.Context, storeID string, body io.Reader, contentType string) (string, error) {
	ext := extensionFor(contentType)
	key := path.Join("stores", storeID, uuid.NewString()+ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		ACL:         "public-read",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload store image: %w", err)
	}

	return fmt.Sprintf("https://%s.%s/%s", s.bucket, s.host, key), nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
