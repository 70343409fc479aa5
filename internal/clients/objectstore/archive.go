// Package objectstore archives run snapshots in an S3-compatible bucket.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// Config holds the bucket settings.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string // empty for AWS, set for R2, MinIO and friends
	Prefix    string
	AccessKey string
	SecretKey string
}

// Uploader is the part of manager.Uploader the archive uses.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// API is the part of the S3 client the archive uses.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// ErrNotFound is returned when an archived object does not exist.
var ErrNotFound = errors.New("archived object not found")

// Archive stores encoded snapshots under <prefix>/<run id>.msgpack.
type Archive struct {
	uploader Uploader
	api      API
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// New builds an archive backed by a real S3 client.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Archive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithClients(manager.NewUploader(client), client, cfg.Bucket, cfg.Prefix, log), nil
}

// NewWithClients builds an archive on top of existing clients.
func NewWithClients(uploader Uploader, api API, bucket, prefix string, log zerolog.Logger) *Archive {
	return &Archive{
		uploader: uploader,
		api:      api,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		log:      log.With().Str("client", "objectstore").Logger(),
	}
}

// Key returns the object key of a run snapshot.
func (a *Archive) Key(runID string) string {
	return path.Join(a.prefix, runID+".msgpack")
}

// Put uploads a snapshot and returns its key.
func (a *Archive) Put(ctx context.Context, runID string, data []byte, contentType string) (string, error) {
	key := a.Key(runID)
	_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	a.log.Info().Str("key", key).Int("bytes", len(data)).Msg("Snapshot archived")
	return key, nil
}

// Get downloads an archived object.
func (a *Archive) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := a.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// List returns the keys under the archive prefix, sorted.
func (a *Archive) List(ctx context.Context) ([]string, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(a.bucket)}
	if a.prefix != "" {
		input.Prefix = aws.String(a.prefix + "/")
	}

	var keys []string
	for {
		out, err := a.api.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list archive: %w", err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}

	sort.Strings(keys)
	return keys, nil
}
