package utils

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	bucket, key, contentType string
	body                     []byte
	err                      error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	f.contentType = aws.ToString(in.ContentType)
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestMatchArchiveKey(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"utc", time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC), "matches/2026/03/14/m1.json"},
		{"normalized to utc", time.Date(2026, 1, 1, 1, 0, 0, 0, time.FixedZone("UTC+2", 2*3600)), "matches/2025/12/31/m1.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchArchiveKey("m1", tt.at); got != tt.want {
				t.Errorf("MatchArchiveKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArchivePutJSON(t *testing.T) {
	fake := &fakePutter{}
	a := &Archive{client: fake, bucket: "history"}

	doc := map[string]any{"match_id": "m1", "challenger_score": 2}
	if err := a.PutJSON(context.Background(), "matches/2026/03/14/m1.json", doc); err != nil {
		t.Fatalf("put: %v", err)
	}
	if fake.bucket != "history" || fake.key != "matches/2026/03/14/m1.json" {
		t.Errorf("stored at %s/%s", fake.bucket, fake.key)
	}
	if fake.contentType != "application/json" {
		t.Errorf("content type = %q", fake.contentType)
	}
	var got map[string]any
	if err := json.Unmarshal(fake.body, &got); err != nil {
		t.Fatalf("body is not json: %v", err)
	}
	if got["match_id"] != "m1" {
		t.Errorf("body = %s", fake.body)
	}
}

func TestArchivePutJSONError(t *testing.T) {
	boom := errors.New("boom")
	a := &Archive{client: &fakePutter{err: boom}, bucket: "history"}
	if err := a.PutJSON(context.Background(), "k", 1); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestNewArchiveDisabled(t *testing.T) {
	if _, err := NewArchive(context.Background(), R2Config{AccountID: "acc"}); !errors.Is(err, ErrArchiveDisabled) {
		t.Fatalf("err = %v, want ErrArchiveDisabled", err)
	}
}
