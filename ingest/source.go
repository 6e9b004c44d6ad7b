package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rlch/moviekg"
)

const s3Scheme = "s3://"

var (
	// ErrNoDataset is returned when no dataset location is configured.
	ErrNoDataset = errors.New("no dataset location specified")
	// ErrInvalidS3Location is returned for malformed s3:// locations.
	ErrInvalidS3Location = errors.New("invalid s3 location")
)

// Open returns a reader for a local path or an s3://bucket/key location.
func Open(ctx context.Context, location string, cfg moviekg.S3Config) (io.ReadCloser, error) {
	if location == "" {
		return nil, ErrNoDataset
	}

	if strings.HasPrefix(location, s3Scheme) {
		return openS3(ctx, location, cfg)
	}

	f, err := os.Open(filepath.Clean(location))
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}

	return f, nil
}

// Load opens location and parses it as CSV.
func Load(ctx context.Context, location string, cfg moviekg.S3Config) (Dataset, error) {
	r, err := Open(ctx, location, cfg)
	if err != nil {
		return Dataset{}, err
	}

	defer func() { _ = r.Close() }()

	ds, err := ReadCSV(r)
	if err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", location, err)
	}

	return ds, nil
}

// ParseS3Location splits s3://bucket/key into bucket and key.
func ParseS3Location(location string) (string, string, error) {
	rest, ok := strings.CutPrefix(location, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidS3Location, location)
	}

	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidS3Location, location)
	}

	return bucket, key, nil
}

func openS3(ctx context.Context, location string, cfg moviekg.S3Config) (io.ReadCloser, error) {
	bucket, key, err := ParseS3Location(location)
	if err != nil {
		return nil, err
	}

	var opts []func(*config.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	if cfg.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(cfg.Endpoint))
	}

	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// S3-compatible endpoints (MinIO and friends) need path-style addressing.
		o.UsePathStyle = cfg.Endpoint != ""
	})

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", location, err)
	}

	return out.Body, nil
}
