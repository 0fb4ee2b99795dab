package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"debate-adjudicator/internal/apperr"
	appconfig "debate-adjudicator/internal/config"
)

type memS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func (m *memS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	k := *in.Bucket + "/" + *in.Key
	m.objects[k] = b
	m.types[k] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	k := *in.Bucket + "/" + *in.Key
	b, ok := m.objects[k]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(b)),
		ContentType:   aws.String(m.types[k]),
		ContentLength: aws.Int64(int64(len(b))),
	}, nil
}

func TestPutThenGetTranscript(t *testing.T) {
	mem := &memS3{objects: map[string][]byte{}, types: map[string]string{}}
	c := &Client{s3: mem, bucket: "transcripts"}

	ref, err := c.PutTranscript(context.Background(), "Round1.PDF", "application/pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(ref, "s3://transcripts/transcripts/") || !strings.HasSuffix(ref, ".pdf") {
		t.Errorf("unexpected ref %q", ref)
	}

	obj, err := c.GetTranscript(context.Background(), ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer obj.Body.Close()
	got, _ := io.ReadAll(obj.Body)
	if string(got) != "%PDF-1.4" || obj.ContentType != "application/pdf" || obj.ContentLength != 8 {
		t.Errorf("unexpected object %q %q %d", got, obj.ContentType, obj.ContentLength)
	}
}

func TestGetTranscriptMissing(t *testing.T) {
	c := &Client{s3: &memS3{objects: map[string][]byte{}, types: map[string]string{}}, bucket: "b"}
	if _, err := c.GetTranscript(context.Background(), "s3://b/transcripts/nope.txt"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestParseS3Ref(t *testing.T) {
	tests := []struct {
		ref     string
		bucket  string
		key     string
		wantErr bool
	}{
		{"s3://bucket/transcripts/a.txt", "bucket", "transcripts/a.txt", false},
		{"http://bucket/key", "", "", true},
		{"s3://bucket", "", "", true},
		{"s3:///key", "", "", true},
		{"s3://bucket/", "", "", true},
	}
	for _, tt := range tests {
		b, k, err := parseS3Ref(tt.ref)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseS3Ref(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			continue
		}
		if b != tt.bucket || k != tt.key {
			t.Errorf("parseS3Ref(%q) = %q, %q", tt.ref, b, k)
		}
	}
}

func TestNewRequiresEndpointAndBucket(t *testing.T) {
	if _, err := New(context.Background(), appconfig.MinIO{Endpoint: "localhost:9000"}); err == nil {
		t.Fatal("expected error without bucket")
	}
}
