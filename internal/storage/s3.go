package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"doc-composer/internal/common/config"
	"doc-composer/internal/common/logger"
)

// s3API is the slice of the S3 client the sync uses.
type s3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Storage syncs template files from an S3 bucket. The bucket layout under
// the configured prefix mirrors how templates are registered:
//
//	{prefix}/templates/{id}/{id}
//	{prefix}/static/...
type S3Storage struct {
	client s3API
	bucket string
	prefix string
	logger logger.Logger
}

func NewS3Storage(ctx context.Context, cfg config.S3Config, log logger.Logger) (*S3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &S3Storage{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: log,
	}, nil
}

// newS3StorageWithClient wires an explicit client, for tests.
func newS3StorageWithClient(client s3API, bucket, prefix string, log logger.Logger) *S3Storage {
	return &S3Storage{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/"), logger: log}
}

func (s *S3Storage) LoadTemplates(ctx context.Context, targetDir string) error {
	templates, err := s.downloadSubtree(ctx, path.Join(s.prefix, "templates"), targetDir)
	if err != nil {
		return err
	}
	if templates == 0 {
		return ErrNoTemplatesFound
	}

	// Static assets are optional; a template set without images is legal.
	assets, err := s.downloadSubtree(ctx, path.Join(s.prefix, "static"), filepath.Join(targetDir, "static"))
	if err != nil {
		return err
	}

	s.logger.Info("template sync completed", map[string]interface{}{
		"bucket":    s.bucket,
		"prefix":    s.prefix,
		"templates": templates,
		"assets":    assets,
	})
	return nil
}

// downloadSubtree mirrors every object under keyPrefix into targetDir and
// returns the number of objects copied.
func (s *S3Storage) downloadSubtree(ctx context.Context, keyPrefix, targetDir string) (int, error) {
	keyPrefix += "/"
	copied := 0

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(keyPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("listing s3://%s/%s: %w", s.bucket, keyPrefix, err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			rel := strings.TrimPrefix(key, keyPrefix)
			if rel == "" || strings.HasSuffix(rel, "/") {
				continue
			}
			if err := s.downloadObject(ctx, key, filepath.Join(targetDir, filepath.FromSlash(rel))); err != nil {
				return 0, err
			}
			copied++
		}
	}

	return copied, nil
}

func (s *S3Storage) downloadObject(ctx context.Context, key, dst string) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("fetching s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, out.Body); err != nil {
		return err
	}
	return f.Close()
}
