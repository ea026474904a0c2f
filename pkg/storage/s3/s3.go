// Package s3 reads source logs from and writes windows to S3 or an
// S3-compatible store.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	tgconfig "github.com/logflow/tracegen/pkg/config"
)

// Scheme is the URL scheme of S3 locations.
const Scheme = "s3://"

const defaultTimeout = 5 * time.Minute

// Client provides the S3 operations tracegen needs.
type Client struct {
	cfg    tgconfig.S3Config
	client *s3.Client
}

// NewClient creates a new S3 client.
func NewClient(ctx context.Context, cfg tgconfig.S3Config) (*Client, error) {
	var opts []func(*config.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	// Use explicit credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		cfg:    cfg,
		client: s3.NewFromConfig(awsCfg, s3Opts...),
	}, nil
}

// IsURL reports whether location is an s3:// URL.
func IsURL(location string) bool {
	return strings.HasPrefix(location, Scheme)
}

// ParseURL splits s3://bucket/key into its bucket and key. The key may be
// empty.
func ParseURL(location string) (bucket, key string, err error) {
	if !IsURL(location) {
		return "", "", fmt.Errorf("not an s3 url: %q", location)
	}
	rest := strings.TrimPrefix(location, Scheme)
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in %q", location)
	}
	return bucket, key, nil
}

// JoinKey joins a key prefix and a name with a single slash.
func JoinKey(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// Reader returns a reader for a key in bucket, and the object size.
func (c *Client) Reader(ctx context.Context, bucket, key string) (io.ReadCloser, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)

	output, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		cancel()
		return nil, 0, fmt.Errorf("failed to get object %s/%s: %w", bucket, key, err)
	}

	// Wrap to cancel context on close
	return &cancelOnCloseReader{
		ReadCloser: output.Body,
		cancel:     cancel,
	}, aws.ToInt64(output.ContentLength), nil
}

type cancelOnCloseReader struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *cancelOnCloseReader) Close() error {
	r.cancel()
	return r.ReadCloser.Close()
}

// Put uploads body as a single object.
func (c *Client) Put(ctx context.Context, bucket, key string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s/%s: %w", bucket, key, err)
	}
	return nil
}
