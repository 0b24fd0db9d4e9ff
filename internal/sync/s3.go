package sync

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const jsonlContentType = "application/x-ndjson"

// objectPutter is the slice of *s3.Client that S3Destination needs.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Destination overwrites one object with the latest backup. With
// KeepHistory set, every run is also kept under a dated key next to it.
type S3Destination struct {
	KeepHistory bool

	api    objectPutter
	bucket string
	key    string
	now    func() time.Time
}

// NewS3Destination loads the default AWS credential chain for region. A
// non-empty endpoint points the client at an S3-compatible server such as
// MinIO and switches to path-style addressing.
func NewS3Destination(ctx context.Context, bucket, key, region, endpoint string) (*S3Destination, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	api := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Destination(api, bucket, key), nil
}

func newS3Destination(api objectPutter, bucket, key string) *S3Destination {
	return &S3Destination{
		api:    api,
		bucket: bucket,
		key:    strings.TrimPrefix(key, "/"),
		now:    time.Now,
	}
}

func (d *S3Destination) Name() string {
	return fmt.Sprintf("s3://%s/%s", d.bucket, d.key)
}

// historyKey places a run's copy beside the main object:
// backups/testispark.jsonl becomes backups/history/20250314T093000Z.jsonl.
func (d *S3Destination) historyKey(t time.Time) string {
	ext := path.Ext(d.key)
	if ext == "" {
		ext = ".jsonl"
	}
	return path.Join(path.Dir(d.key), "history", t.UTC().Format("20060102T150405Z")+ext)
}

func (d *S3Destination) Write(ctx context.Context, data []byte) error {
	keys := []string{d.key}
	if d.KeepHistory {
		keys = append(keys, d.historyKey(d.now()))
	}
	for _, k := range keys {
		_, err := d.api.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(d.bucket),
			Key:         aws.String(k),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(jsonlContentType),
		})
		if err != nil {
			return fmt.Errorf("uploading s3://%s/%s: %w", d.bucket, k, err)
		}
	}
	return nil
}
