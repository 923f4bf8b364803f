package publish

import (
	"bytes"
	"context"
	"fmt"

	apperrors "go-restaurant-grid/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads grids to an S3 bucket.
type S3Publisher struct {
	client objectPutter
	bucket string
	region string
}

// NewS3Publisher resolves credentials from the default AWS chain.
func NewS3Publisher(ctx context.Context, bucket, region string) (*S3Publisher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load AWS config", err)
	}
	return &S3Publisher{client: s3.NewFromConfig(cfg), bucket: bucket, region: region}, nil
}

func (s *S3Publisher) Name() string { return "s3" }

func (s *S3Publisher) Publish(ctx context.Context, key string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(ContentType),
	})
	if err != nil {
		return "", apperrors.NewNetworkError("s3 upload failed", err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}
