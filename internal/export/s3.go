package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/budgetguard/techops/internal/model"
)

// S3Publisher pushes export documents to an S3-compatible bucket (a network
// share workstations already mount, or an internal object store). Export
// documents contain no secrets, so broadcasting them this way is safe;
// credential artifacts must never go through this path.
type S3Publisher struct {
	logger    zerolog.Logger
	endpoint  string // custom endpoint for S3-compatible stores; empty for AWS
	region    string
	accessKey string
	secretKey string
	bucket    string
}

// NewS3Publisher creates a publisher for the given bucket.
func NewS3Publisher(logger zerolog.Logger, endpoint, region, accessKey, secretKey, bucket string) *S3Publisher {
	return &S3Publisher{
		logger:    logger.With().Str("component", "s3-publisher").Logger(),
		endpoint:  endpoint,
		region:    region,
		accessKey: accessKey,
		secretKey: secretKey,
		bucket:    bucket,
	}
}

func (p *S3Publisher) client() *s3.Client {
	opts := s3.Options{
		Region:      p.region,
		Credentials: credentials.NewStaticCredentialsProvider(p.accessKey, p.secretKey, ""),
	}
	if p.endpoint != "" {
		opts.BaseEndpoint = aws.String(p.endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// Publish uploads the document under the given key.
func (p *S3Publisher) Publish(ctx context.Context, doc *model.ExportDocument, key string) error {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export document: %w", err)
	}

	_, err = p.client().PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("upload export document to s3://%s/%s: %w", p.bucket, key, err)
	}

	p.logger.Info().Str("bucket", p.bucket).Str("key", key).Msg("export document published")
	return nil
}
