// Package archive exports discovery observability data (impressions and
// boost audit trails) as batch objects to S3-compatible storage for
// long-term retention and offline analysis.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/pazarnet/discovery/internal/audit"
	"github.com/pazarnet/discovery/internal/impression"
)

// ErrNothingToExport is returned when the requested window holds no records.
var ErrNothingToExport = errors.New("no records in the requested window")

// ObjectStore is the slice of the S3 API the exporter needs. *s3.Client
// satisfies it; tests substitute a fake.
type ObjectStore interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ImpressionSource supplies impressions for a time window.
type ImpressionSource interface {
	ImpressionsSince(ctx context.Context, cutoff time.Time) ([]impression.Impression, error)
}

// Config holds credentials and addressing for the archive bucket.
type Config struct {
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // S3-compatible endpoint (R2, MinIO, AWS)
}

// Exporter writes export batches to object storage.
type Exporter struct {
	store   ObjectStore
	bucket  string
	timeNow func() time.Time // For testability
}

// New creates an exporter against an S3-compatible endpoint.
func New(cfg Config) (*Exporter, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if cfg.AccessKeyID == "" {
		return nil, errors.New("access key ID is required")
	}
	if cfg.SecretAccessKey == "" {
		return nil, errors.New("secret access key is required")
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}

	client := s3.New(s3.Options{
		Region: "auto",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		BaseEndpoint: aws.String(cfg.Endpoint),
		UsePathStyle: true,
	})

	return NewWithStore(client, cfg.Bucket), nil
}

// NewWithStore creates an exporter over an existing object store. Used by
// tests and by callers that share one S3 client.
func NewWithStore(store ObjectStore, bucket string) *Exporter {
	return &Exporter{
		store:   store,
		bucket:  bucket,
		timeNow: time.Now,
	}
}

// Result describes one completed export.
type Result struct {
	Key   string `json:"key"`   // Object key in the archive bucket
	Count int    `json:"count"` // Number of records exported
}

// ExportImpressions writes all impressions since the cutoff as a single
// JSON object under discovery/impressions/<date>/<uuid>.json.
func (e *Exporter) ExportImpressions(ctx context.Context, source ImpressionSource, since time.Time) (*Result, error) {
	impressions, err := source.ImpressionsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load impressions: %w", err)
	}
	if len(impressions) == 0 {
		return nil, ErrNothingToExport
	}

	data, err := json.Marshal(impressions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode impressions: %w", err)
	}

	key := e.objectKey("impressions", "json")
	if err := e.put(ctx, key, "application/json", data); err != nil {
		return nil, err
	}
	return &Result{Key: key, Count: len(impressions)}, nil
}

// ExportAudit writes one actor's audit trail as an object under
// discovery/audit/<date>/<uuid>.<format>.
func (e *Exporter) ExportAudit(ctx context.Context, repo audit.Repository, opts audit.ExportOptions) (*Result, error) {
	data, err := audit.ExportEntries(repo, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to export audit entries: %w", err)
	}

	contentType := "application/json"
	ext := "json"
	if opts.Format == audit.ExportFormatCSV {
		contentType = "text/csv"
		ext = "csv"
	}

	key := e.objectKey("audit", ext)
	if err := e.put(ctx, key, contentType, data); err != nil {
		return nil, err
	}

	// Count rows rather than re-querying: JSON exports are arrays, CSV has
	// a header line.
	count := exportedCount(data, opts.Format)
	return &Result{Key: key, Count: count}, nil
}

// objectKey builds discovery/<kind>/<date>/<uuid>.<ext>.
func (e *Exporter) objectKey(kind, ext string) string {
	date := e.timeNow().UTC().Format("2006-01-02")
	return fmt.Sprintf("discovery/%s/%s/%s.%s", kind, date, uuid.New().String(), ext)
}

func (e *Exporter) put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := e.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(e.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		Body:          bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to put archive object %s: %w", key, err)
	}
	return nil
}

func exportedCount(data []byte, format audit.ExportFormat) int {
	if format == audit.ExportFormatCSV {
		count := 0
		for _, b := range data {
			if b == '\n' {
				count++
			}
		}
		if count > 0 {
			count-- // header row
		}
		return count
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0
	}
	return len(entries)
}
