package sink

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"time"

	"github.com/leapstack-labs/leapclean/internal/config"
	"github.com/leapstack-labs/leapclean/pkg/core"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// s3Writer uploads the table as one object to S3-compatible storage.
// Objects are partitioned by date:
// <prefix>/<dataset>/year=YYYY/month=MM/day=DD/<dataset>_YYYYMMDD_HHMMSS.<format>
type s3Writer struct {
	client  *minio.Client
	bucket  string
	prefix  string
	dataset string
	format  string
	region  string
	now     func() time.Time
	logger  *slog.Logger
}

func newS3Writer(name string, cfg config.DestinationConfig, logger *slog.Logger) (Writer, error) {
	key := "destinations." + name
	if cfg.Bucket == "" {
		return nil, &core.ConfigurationError{Key: key + ".bucket", Reason: "is required for s3 destinations"}
	}
	if cfg.Endpoint == "" {
		return nil, &core.ConfigurationError{Key: key + ".endpoint", Reason: "is required for s3 destinations"}
	}
	format := cfg.Format
	if format == "" {
		format = config.DefaultObjectFormat
	}
	if format != "csv" && format != "json" {
		return nil, &core.ConfigurationError{Key: key + ".format", Value: format, Reason: "must be one of csv, json"}
	}

	// Endpoint may be host:port or a URL; an https scheme forces TLS
	endpoint := cfg.Endpoint
	secure := cfg.UseSSL != nil && *cfg.UseSSL
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			secure = true
		}
	}

	var creds *credentials.Credentials
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		creds = credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	} else {
		creds = credentials.NewEnvAWS()
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	return &s3Writer{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		dataset: name,
		format:  format,
		region:  cfg.Region,
		now:     time.Now,
		logger:  logger,
	}, nil
}

// objectKey returns the partitioned key for an upload at ts.
func (w *s3Writer) objectKey(ts time.Time) string {
	return path.Join(
		w.prefix,
		w.dataset,
		fmt.Sprintf("year=%d", ts.Year()),
		fmt.Sprintf("month=%02d", ts.Month()),
		fmt.Sprintf("day=%02d", ts.Day()),
		fmt.Sprintf("%s_%s.%s", w.dataset, ts.Format("20060102_150405"), w.format),
	)
}

func (w *s3Writer) Write(ctx context.Context, t *core.Table) (Result, error) {
	var buf bytes.Buffer
	contentType := "text/csv"
	if w.format == "json" {
		contentType = "application/x-ndjson"
		if err := encodeJSON(&buf, t, true, ""); err != nil {
			return Result{}, fmt.Errorf("failed to encode table: %w", err)
		}
	} else if err := encodeCSV(&buf, t, ','); err != nil {
		return Result{}, fmt.Errorf("failed to encode table: %w", err)
	}

	if err := w.ensureBucket(ctx); err != nil {
		return Result{}, err
	}

	key := w.objectKey(w.now())
	w.logger.Info("uploading data to object storage", slog.String("bucket", w.bucket), slog.String("key", key))

	size := int64(buf.Len())
	if _, err := w.client.PutObject(ctx, w.bucket, key, bytes.NewReader(buf.Bytes()), size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return Result{}, fmt.Errorf("failed to upload s3://%s/%s: %w", w.bucket, key, err)
	}

	location := fmt.Sprintf("s3://%s/%s", w.bucket, key)
	w.logger.Info("object upload successful",
		slog.Int("rows", t.NumRows()),
		slog.Int("columns", t.NumCols()),
		slog.String("size", fmt.Sprintf("%.2f KB", float64(size)/1024)),
		slog.String("location", location),
	)
	return Result{Location: location, Rows: t.NumRows()}, nil
}

// ensureBucket creates the bucket when it does not exist yet.
func (w *s3Writer) ensureBucket(ctx context.Context) error {
	exists, err := w.client.BucketExists(ctx, w.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", w.bucket, err)
	}
	if exists {
		return nil
	}
	if err := w.client.MakeBucket(ctx, w.bucket, minio.MakeBucketOptions{Region: w.region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", w.bucket, err)
	}
	return nil
}
