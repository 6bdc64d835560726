package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	cfg "github.com/vibecreator/mixpost-api/configs"
)

// StorageService is the media object store. Keys are bucket-relative paths.
type StorageService interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
	Ping(ctx context.Context) error
}

type r2Service struct {
	config cfg.Config
	log    *zap.Logger
	client *s3.Client
}

// NewR2Service builds an S3 client against Cloudflare R2, or against
// cfg.R2.Endpoint when it is set.
func NewR2Service(ctx context.Context, c cfg.Config, log *zap.Logger) (StorageService, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.R2.AccessKey, c.R2.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("load storage config: %w", err)
	}

	endpoint := c.R2.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2.AccountID)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = c.R2.Endpoint != ""
	})

	return &r2Service{config: c, log: log, client: client}, nil
}

func (r *r2Service) Put(ctx context.Context, key string, body []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.config.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	}
	if _, err := r.client.PutObject(ctx, input); err != nil {
		r.log.Info("put object", zap.String("key", key), zap.Error(err))
		return &UpstreamError{Op: "upload media", Err: err}
	}
	return nil
}

func (r *r2Service) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.config.R2.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		r.log.Info("get object", zap.String("key", key), zap.Error(err))
		return nil, &UpstreamError{Op: "read media", Err: err}
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (r *r2Service) Delete(ctx context.Context, key string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.config.R2.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		r.log.Info("delete object", zap.String("key", key), zap.Error(err))
		return &UpstreamError{Op: "delete media", Err: err}
	}
	return nil
}

func (r *r2Service) URL(key string) string {
	return strings.TrimRight(r.config.R2.PublicURL, "/") + "/" + key
}

func (r *r2Service) Ping(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(r.config.R2.BucketName)})
	return err
}
