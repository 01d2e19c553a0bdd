package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeGetter struct {
	objects map[string]string
	calls   []string
}

func (f *fakeGetter) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := *in.Bucket + "/" + *in.Key
	f.calls = append(f.calls, key)
	body, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestParseS3(t *testing.T) {
	cases := []struct {
		uri    string
		bucket string
		key    string
		ok     bool
	}{
		{uri: "s3://market/processed/roles.csv", bucket: "market", key: "processed/roles.csv", ok: true},
		{uri: "S3://market/roles.csv", bucket: "market", key: "roles.csv", ok: true},
		{uri: "s3://market", ok: false},
		{uri: "s3:///roles.csv", ok: false},
		{uri: "data/roles.csv", ok: false},
	}

	for _, tc := range cases {
		bucket, key, ok := ParseS3(tc.uri)
		if ok != tc.ok || bucket != tc.bucket || key != tc.key {
			t.Fatalf("ParseS3(%q) = %q, %q, %v", tc.uri, bucket, key, ok)
		}
	}
}

func TestOpenLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.csv")
	if err := os.WriteFile(path, []byte("standard_title\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	rc, err := New(S3Config{}).Open(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "standard_title\n" {
		t.Fatalf("unexpected content: %q", data)
	}

	_, err = New(S3Config{}).Open(context.Background(), path+".missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenObject(t *testing.T) {
	getter := &fakeGetter{objects: map[string]string{"market/roles.csv": "a,b\n"}}
	opener := New(S3Config{})
	opener.s3 = getter

	rc, err := opener.Open(context.Background(), "s3://market/roles.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "a,b\n" {
		t.Fatalf("unexpected content: %q", data)
	}

	_, err = opener.Open(context.Background(), "s3://market/missing.csv")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if len(getter.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(getter.calls))
	}
}
