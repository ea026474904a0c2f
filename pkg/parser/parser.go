// Package parser reads process mining event logs into the in-memory model.
package parser

import (
	"context"
	"io"
	"time"

	"github.com/logflow/tracegen/internal/model"
	"github.com/logflow/tracegen/pkg/util"
)

// Parser defines the interface for reading a complete event log.
type Parser interface {
	// Parse reads all traces from r. It should respect context cancellation.
	Parse(ctx context.Context, r io.Reader) (*model.Log, error)
}

// Format represents a supported input format.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatXES
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatXES:
		return "xes"
	default:
		return "unknown"
	}
}

// ParseFormat parses a format string.
func ParseFormat(s string) Format {
	switch s {
	case "xes", "XES":
		return FormatXES
	default:
		return FormatUnknown
	}
}

// DetectFormat determines the input format from the file extension.
// Compressed files (.gz) are handled by stripping the compression extension first.
func DetectFormat(path string) Format {
	switch util.BaseFormat(path) {
	case ".xes":
		return FormatXES
	default:
		return FormatUnknown
	}
}

// Config holds common parser configuration.
type Config struct {
	// BufferSize is the size of the read buffer in bytes.
	BufferSize int

	// Location is applied to timestamps that carry no zone offset.
	Location *time.Location
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize: 64 * 1024,
		Location:   time.UTC,
	}
}

// NewParser creates a parser for the given format.
func NewParser(format Format, cfg Config) (Parser, error) {
	switch format {
	case FormatXES:
		return NewXESParser(cfg), nil
	default:
		return nil, ErrUnsupportedFormat
	}
}
