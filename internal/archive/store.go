// Package archive writes CSV export snapshots to S3, keeping the message
// log available past whatever the running database retains.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store archives export snapshots to S3 under a date-partitioned prefix and
// tracks them in a monthly manifest.
type Store struct {
	bucket string
	client S3API
	logger *logging.Logger
	now    func() time.Time
}

// NewStore creates the archive store. With an empty bucket or nil client
// the store reports itself disabled.
func NewStore(client S3API, bucket string, logger *logging.Logger) *Store {
	return &Store{
		bucket: bucket,
		client: client,
		logger: logger.Named("archive"),
		now:    time.Now,
	}
}

// Enabled reports whether archival is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.client != nil
}

// ArchiveCSV writes one CSV snapshot and returns its object key.
func (s *Store) ArchiveCSV(ctx context.Context, data []byte) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("archive: no bucket configured")
	}

	now := s.now().UTC()
	key := fmt.Sprintf("exports/v1/by-date/%d/%02d/%02d/%s.csv",
		now.Year(), now.Month(), now.Day(), uuid.NewString())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("archive: s3 put %s: %w", key, err)
	}

	s.logger.Info("export archived", "key", key, "bytes", len(data))

	entry := manifestEntry{
		Key:        key,
		ArchivedAt: now.Format(time.RFC3339),
		SizeBytes:  len(data),
	}
	if err := s.appendManifest(ctx, entry); err != nil {
		// The snapshot itself is stored; the manifest line can be rebuilt
		// from a bucket listing.
		s.logger.Warn("manifest append failed", "error", err, "key", key)
	}

	return key, nil
}

type manifestEntry struct {
	Key        string `json:"key"`
	ArchivedAt string `json:"archived_at"`
	SizeBytes  int    `json:"size_bytes"`
}

// appendManifest adds a JSONL line to the monthly manifest. S3 has no
// append, so the file is read back and rewritten.
func (s *Store) appendManifest(ctx context.Context, entry manifestEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}

	now := s.now().UTC()
	manifestKey := fmt.Sprintf("exports/v1/manifests/%d-%02d.jsonl", now.Year(), now.Month())

	var existing []byte
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(manifestKey),
	})
	if err != nil {
		s.logger.Debug("manifest not readable, starting fresh", "key", manifestKey, "error", err)
	} else {
		existing, _ = io.ReadAll(resp.Body)
		resp.Body.Close()
	}

	var buf bytes.Buffer
	if len(existing) > 0 {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.Write(line)
	buf.WriteByte('\n')

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(manifestKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}
	return nil
}
