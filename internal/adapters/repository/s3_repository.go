package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/hudeditor/hudstore/internal/domain/entities"
	"github.com/hudeditor/hudstore/internal/infrastructure/config"
)

// S3Repository stores each slot as the object <prefix><slot>.json.
type S3Repository struct {
	client s3iface.S3API
	bucket string
	prefix string
}

// NewS3Repository builds an S3 client from configuration. A non-empty
// endpoint targets S3-compatible services (minio, localstack, GCS interop).
func NewS3Repository(cfg config.S3Config) (*S3Repository, error) {
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
	}
	if cfg.Profile != "" {
		awsCfg.Credentials = credentials.NewSharedCredentials("", cfg.Profile)
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("could not create aws session: %w", err)
	}
	return NewS3RepositoryWithClient(s3.New(sess), cfg.Bucket, cfg.Prefix), nil
}

// NewS3RepositoryWithClient wraps an existing client
func NewS3RepositoryWithClient(client s3iface.S3API, bucket, prefix string) *S3Repository {
	return &S3Repository{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (r *S3Repository) Save(ctx context.Context, slot entities.Slot, content []byte) error {
	_, err := r.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(r.bucket),
		Key:          aws.String(r.keyFor(slot)),
		Body:         bytes.NewReader(content),
		ContentType:  aws.String("application/json"),
		CacheControl: aws.String("no-cache"),
	})
	if err != nil {
		return fmt.Errorf("could not put %q: %w", r.keyFor(slot), err)
	}
	return nil
}

func (r *S3Repository) Load(ctx context.Context, slot entities.Slot) ([]byte, error) {
	key := r.keyFor(slot)
	output, err := r.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("%q: %w", key, entities.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("could not get %q: %w", key, err)
	}
	defer output.Body.Close()

	content, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read %q: %w", key, err)
	}
	return content, nil
}

func (r *S3Repository) Ping(ctx context.Context) error {
	_, err := r.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(r.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %q: %w", r.bucket, err)
	}
	return nil
}

func (r *S3Repository) Close() error {
	return nil
}

func (r *S3Repository) keyFor(slot entities.Slot) string {
	return r.prefix + slot.String() + ".json"
}

func isS3NotFound(err error) bool {
	if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
		return true
	}
	if rfErr, ok := err.(awserr.RequestFailure); ok && rfErr.StatusCode() == http.StatusNotFound {
		return true
	}
	return false
}
