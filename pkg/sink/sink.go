// Package sink writes rendered windows to a local directory or an S3 prefix.
package sink

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/logflow/tracegen/pkg/config"
	tgerrors "github.com/logflow/tracegen/pkg/errors"
	"github.com/logflow/tracegen/pkg/logger"
	"github.com/logflow/tracegen/pkg/storage/s3"
)

// Sink receives rendered windows.
type Sink interface {
	Write(ctx context.Context, name string, lines []string) error
	// Location returns where a window with the given name ends up.
	Location(name string) string
}

// New returns a sink for target. Targets starting with s3:// are written to
// S3; anything else is a local directory, created on first write.
func New(ctx context.Context, target string, cfg config.S3Config) (Sink, error) {
	if !s3.IsURL(target) {
		return NewFileSink(target), nil
	}
	bucket, prefix, err := s3.ParseURL(target)
	if err != nil {
		return nil, tgerrors.InvalidArgument("output", target, err.Error())
	}
	client, err := s3.NewClient(ctx, cfg)
	if err != nil {
		return nil, tgerrors.Wrap(err, tgerrors.CodeConfigInvalid, "failed to create S3 client")
	}
	return NewS3Sink(client, bucket, prefix), nil
}

func join(lines []string) []byte {
	n := 0
	for _, l := range lines {
		n += len(l)
	}
	var sb strings.Builder
	sb.Grow(n)
	for _, l := range lines {
		sb.WriteString(l)
	}
	return []byte(sb.String())
}

// FileSink writes each window to a file in Dir, replacing any existing file.
type FileSink struct {
	Dir string
}

// NewFileSink creates a sink writing into dir.
func NewFileSink(dir string) *FileSink {
	if dir == "" {
		dir = "."
	}
	return &FileSink{Dir: dir}
}

// Location returns the file path for name.
func (s *FileSink) Location(name string) string {
	return filepath.Join(s.Dir, name)
}

// Write writes lines to Dir/name.
func (s *FileSink) Write(ctx context.Context, name string, lines []string) error {
	path := s.Location(name)
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return tgerrors.WriteFailed(path, err)
	}
	if err := os.WriteFile(path, join(lines), 0644); err != nil {
		return tgerrors.WriteFailed(path, err)
	}
	logger.Get(ctx).Debugw("window written", "path", path, "traces", len(lines))
	return nil
}

// uploader is the part of the S3 client used by S3Sink.
type uploader interface {
	Put(ctx context.Context, bucket, key string, body []byte) error
}

// S3Sink uploads each window as one object under Prefix.
type S3Sink struct {
	client uploader
	Bucket string
	Prefix string
}

// NewS3Sink creates a sink uploading to bucket under prefix.
func NewS3Sink(client *s3.Client, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, Bucket: bucket, Prefix: prefix}
}

// Location returns the s3:// URL for name.
func (s *S3Sink) Location(name string) string {
	return s3.Scheme + s.Bucket + "/" + s3.JoinKey(s.Prefix, name)
}

// Write uploads lines to Bucket/Prefix/name.
func (s *S3Sink) Write(ctx context.Context, name string, lines []string) error {
	key := s3.JoinKey(s.Prefix, name)
	if err := s.client.Put(ctx, s.Bucket, key, join(lines)); err != nil {
		return tgerrors.WriteFailed(s.Location(name), err)
	}
	logger.Get(ctx).Debugw("window uploaded", "bucket", s.Bucket, "key", key, "traces", len(lines))
	return nil
}
