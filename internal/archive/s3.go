// Package archive stores CSV exports in S3-compatible object storage and
// hands out short-lived download links.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

const (
	LinkTTL       = 15 * time.Minute
	csvType       = "text/csv; charset=utf-8"
	defaultRegion = "us-east-1"
)

type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type getPresigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type S3Archiver struct {
	bucket    string
	client    objectPutter
	presigner getPresigner
	logger    zerolog.Logger
}

// NewS3Archiver builds the S3 client from cfg. Static credentials are used
// when both keys are set, otherwise the default AWS credential chain applies.
// A custom endpoint switches to path-style addressing for MinIO and friends.
func NewS3Archiver(ctx context.Context, cfg Config, logger zerolog.Logger) (*S3Archiver, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("archive: bucket is not configured")
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("archive: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Archiver(cfg.Bucket, client, s3.NewPresignClient(client), logger), nil
}

func newS3Archiver(bucket string, client objectPutter, presigner getPresigner, logger zerolog.Logger) *S3Archiver {
	return &S3Archiver{
		bucket:    bucket,
		client:    client,
		presigner: presigner,
		logger:    logger.With().Str("component", "archive").Str("bucket", bucket).Logger(),
	}
}

// Store uploads body under key and returns a presigned GET URL valid for
// LinkTTL.
func (a *S3Archiver) Store(ctx context.Context, key string, body []byte) (string, error) {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(csvType),
	})
	if err != nil {
		a.logger.Error().Err(err).Str("key", key).Msg("failed to upload object")
		return "", fmt.Errorf("put object: %w", err)
	}

	req, err := a.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(LinkTTL))
	if err != nil {
		a.logger.Error().Err(err).Str("key", key).Msg("failed to presign object")
		return "", fmt.Errorf("presign get object: %w", err)
	}

	a.logger.Debug().Str("key", key).Int("bytes", len(body)).Msg("object stored")
	return req.URL, nil
}
