package aws_handler

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"pantry-server/src/config"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Storage uploads objects to an S3-compatible bucket addressed path-style.
type S3Storage struct {
	svc           s3iface.S3API
	bucket        string
	endpoint      string
	publicBaseURL string
}

func NewS3Storage(svc s3iface.S3API, cfg config.StorageConfig) *S3Storage {
	return &S3Storage{
		svc:           svc,
		bucket:        cfg.Bucket,
		endpoint:      strings.TrimRight(cfg.Endpoint, "/"),
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

func (s *S3Storage) Upload(ctx context.Context, key string, contentType string, body []byte) error {
	_, err := s.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to bucket %s: %w", key, s.bucket, err)
	}
	return nil
}

// PublicURL returns the address clients use to fetch key: the configured public
// base URL when set, otherwise endpoint/bucket/key.
func (s *S3Storage) PublicURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + escaped
	}
	return s.endpoint + "/" + s.bucket + "/" + escaped
}
