package safety

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/brightbuddy-ai/platform/pkg/logging"
)

// S3API is the subset of the S3 client used by Archiver.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver writes incident records to S3 for long-term audit retention.
// Archival is best effort and never blocks incident persistence.
type Archiver struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
}

// NewArchiver creates an incident archiver. If bucket is empty, all
// operations are no-ops.
func NewArchiver(s3Client S3API, bucket string, logger *logging.Logger) *Archiver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Archiver{bucket: bucket, s3Client: s3Client, logger: logger}
}

// Enabled returns true if archival is configured.
func (a *Archiver) Enabled() bool {
	return a != nil && a.bucket != "" && a.s3Client != nil
}

// Archive writes one incident as JSON, keyed by its creation date.
func (a *Archiver) Archive(ctx context.Context, incident *Incident) error {
	if !a.Enabled() {
		return nil
	}

	data, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("safety: marshal incident for archive: %w", err)
	}

	created, err := time.Parse(time.RFC3339Nano, incident.CreatedAt)
	if err != nil {
		created = time.Now().UTC()
	}
	key := fmt.Sprintf("incidents/v1/by-date/%d/%02d/%02d/%s.json",
		created.Year(), created.Month(), created.Day(), incident.ID)

	_, err = a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("safety: s3 put %s: %w", key, err)
	}

	a.logger.Info("archived incident",
		"incident_id", incident.ID,
		"s3_key", key,
		"severity", incident.Severity,
	)
	return nil
}
