package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Config holds the settings for the S3-backed store.
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the AWS endpoint for S3-compatible stores
	// (MinIO and friends). Empty means AWS.
	Endpoint string
}

// S3 implements Store on an S3 bucket.
type S3 struct {
	uploader *s3manager.Uploader
	svc      *s3.S3
	bucket   string
}

// NewS3 builds an S3 store from config.
func NewS3(cfg S3Config) (*S3, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("blob: create aws session: %w", err)
	}
	return &S3{
		uploader: s3manager.NewUploader(sess),
		svc:      s3.New(sess),
		bucket:   cfg.Bucket,
	}, nil
}

func (s *S3) Upload(ctx context.Context, path, contentType string, body io.Reader) (string, error) {
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("blob: upload %s: %w", path, err)
	}
	return out.Location, nil
}

func (s *S3) Delete(ctx context.Context, ref string) error {
	key, err := s.keyFromURL(ref)
	if err != nil {
		return err
	}
	_, err = s.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("blob: delete %s: %w", key, err)
	}
	return nil
}

// keyFromURL recovers the object key from the reference URL produced by
// Upload, tolerating both virtual-hosted and path-style addressing.
func (s *S3) keyFromURL(ref string) (string, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("blob: parse reference %q: %w", ref, err)
	}
	key := strings.TrimPrefix(parsed.Path, "/")
	key = strings.TrimPrefix(key, s.bucket+"/")
	if key == "" {
		return "", fmt.Errorf("blob: reference %q has no object key", ref)
	}
	unescaped, err := url.PathUnescape(key)
	if err != nil {
		return key, nil
	}
	return unescaped, nil
}
