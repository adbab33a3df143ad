package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3 persists every key as an object in a bucket, using path-style
// addressing so a custom (e.g. MinIO) endpoint works the same as real S3.
type S3 struct {
	client *s3.Client
	bucket string
}

// S3Config carries the bucket, region, and optional custom endpoint.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string // empty selects AWS's default resolver
}

// NewS3 builds an S3 provider using ambient AWS credentials (environment,
// shared config file, or instance role), matching the original provider's
// reliance on default credential discovery.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &S3{client: client, bucket: cfg.Bucket}, nil
}

func (s *S3) PutSegment(camera, filename string, data []byte) error {
	return s.put(segmentKey(camera, filename), data)
}

func (s *S3) SegmentExists(camera, filename string) (bool, error) {
	_, err := s.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(segmentKey(camera, filename)),
	})
	if err == nil {
		return true, nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return false, nil
	}
	return false, fmt.Errorf("storage: head segment: %w", err)
}

func (s *S3) AppendArchiveIndexEntry(camera, filename string, duration time.Duration) error {
	key := archiveIndexKey(camera)

	body, err := s.get(key)
	if err != nil && !errors.Is(err, errNotFound) {
		return fmt.Errorf("storage: read archive index: %w", err)
	}

	text := string(body)
	if text == "" {
		text = archiveIndexHeader
	}

	if archiveIndexContains(text, filename) {
		return nil
	}

	text += fmt.Sprintf("#EXTINF:%s,\n%s\n", strconv.FormatFloat(duration.Seconds(), 'f', 3, 64), filename)

	return s.put(key, []byte(text))
}

func (s *S3) PutEventMetadata(eventID string, data []byte) error {
	return s.put(eventKey(eventID), data)
}

var errNotFound = errors.New("storage: object not found")

func (s *S3) put(key string, data []byte) error {
	_, err := s.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("storage: put %s: %w", key, err)
	}
	return nil
}

func (s *S3) get(key string) ([]byte, error) {
	out, err := s.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound") {
			return nil, errNotFound
		}
		return nil, fmt.Errorf("storage: get %s: %w", key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

var _ Provider = (*S3)(nil)
