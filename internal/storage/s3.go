package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"debate-adjudicator/internal/apperr"
	appconfig "debate-adjudicator/internal/config"
)

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Client archives uploaded transcripts in an S3-compatible bucket (MinIO in
// development).
type Client struct {
	s3     objectAPI
	bucket string
}

func New(ctx context.Context, c appconfig.MinIO) (*Client, error) {
	if c.Endpoint == "" || c.Bucket == "" {
		return nil, errors.New("storage: MINIO_ENDPOINT and MINIO_BUCKET are required")
	}
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}
	endpoint := c.Endpoint
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	return &Client{s3: client, bucket: c.Bucket}, nil
}

// PutTranscript stores data under a fresh key and returns its s3:// ref.
func (c *Client) PutTranscript(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	key := fmt.Sprintf("transcripts/%s%s", uuid.New().String(), strings.ToLower(path.Ext(filename)))
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &c.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    map[string]string{"original-filename": filename},
	})
	if err != nil {
		return "", fmt.Errorf("storage: put %s: %w", key, err)
	}
	ref := fmt.Sprintf("s3://%s/%s", c.bucket, key)
	slog.Info("archived transcript", "ref", ref, "bytes", len(data))
	return ref, nil
}

// Object is an open archived transcript. The caller closes Body.
type Object struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

func (c *Client) GetTranscript(ctx context.Context, ref string) (*Object, error) {
	bucket, key, err := parseS3Ref(ref)
	if err != nil {
		return nil, err
	}
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, apperr.New(apperr.NotFound, "archived transcript not found")
		}
		slog.Error("failed to get s3 object", "ref", ref, "error", err)
		return nil, fmt.Errorf("storage: get %s: %w", ref, err)
	}
	return &Object{
		Body:          out.Body,
		ContentType:   aws.ToString(out.ContentType),
		ContentLength: aws.ToInt64(out.ContentLength),
	}, nil
}

func parseS3Ref(ref string) (string, string, error) {
	const p = "s3://"
	if !strings.HasPrefix(ref, p) {
		return "", "", fmt.Errorf("bad s3 ref (missing s3://): %q", ref)
	}
	s := strings.TrimPrefix(ref, p)
	slash := strings.IndexByte(s, '/')
	if slash <= 0 || slash == len(s)-1 {
		return "", "", fmt.Errorf("bad s3 ref (need bucket/key): %q", ref)
	}
	return s[:slash], s[slash+1:], nil
}
