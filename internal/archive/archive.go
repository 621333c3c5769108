// Package archive writes raw bulletins to S3 as gzip-compressed JSONL so
// the original feed can be replayed through new decoder versions.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/klauspost/compress/gzip"

	"github.com/floodline/hazard-etl/internal/domain"
	"github.com/floodline/hazard-etl/internal/observability"
)

// objectPutter is the slice of the S3 API the archiver uses.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver batches raw bulletins into one gzip JSONL object per call.
// It implements pipeline.BulletinArchiver.
type Archiver struct {
	client  objectPutter
	bucket  string
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New connects to S3 and returns the archiver. An endpoint override points
// uploads at an S3-compatible store (MinIO in compose, localstack in CI).
func New(ctx context.Context, bucket, endpoint string, logger *slog.Logger, metrics *observability.Metrics) (*Archiver, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &Archiver{
		client:  client,
		bucket:  bucket,
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Archive writes the batch as one object under a date-partitioned key.
// One object per batch keeps PUT volume proportional to batches, not
// bulletins.
func (a *Archiver) Archive(ctx context.Context, bulletins []domain.RawBulletin) error {
	if len(bulletins) == 0 {
		return nil
	}

	body, err := encodeJSONLGzip(bulletins)
	if err != nil {
		a.metrics.ArchiveUploads.WithLabelValues("error").Inc()
		return err
	}

	now := a.clock.Now().UTC()
	key := fmt.Sprintf("raw/%s/%s.jsonl.gz", now.Format("2006/01/02"), uuid.NewString())

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(a.bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(body),
		ContentLength:   aws.Int64(int64(len(body))),
		ContentType:     aws.String("application/x-ndjson"),
		ContentEncoding: aws.String("gzip"),
	})
	if err != nil {
		a.metrics.ArchiveUploads.WithLabelValues("error").Inc()
		return fmt.Errorf("put archive object %s: %w", key, err)
	}

	a.metrics.ArchiveUploads.WithLabelValues("success").Inc()
	a.logger.Debug("bulletin batch archived", "key", key, "bulletins", len(bulletins), "bytes", len(body))
	return nil
}

// encodeJSONLGzip renders one bulletin per line, gzip-compressed. Speed
// over ratio: the archiver sits on the hot path of every batch.
func encodeJSONLGzip(bulletins []domain.RawBulletin) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return nil, fmt.Errorf("init gzip writer: %w", err)
	}

	enc := json.NewEncoder(zw)
	for i := range bulletins {
		if err := enc.Encode(bulletins[i]); err != nil {
			return nil, fmt.Errorf("encode bulletin: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("flush gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}
