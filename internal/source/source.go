// Package source opens corpus inputs from the local filesystem or from S3-compatible
// object storage addressed as s3://bucket/key.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const s3Scheme = "s3://"

// ErrNotFound is returned when the addressed file or object does not exist.
var ErrNotFound = errors.New("source not found")

// S3Config configures access to object storage. Credentials come from the
// default AWS chain (env, shared config, instance role).
type S3Config struct {
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Opener resolves URIs to readers. The S3 client is created on first use.
type Opener struct {
	cfg S3Config

	mu sync.Mutex
	s3 objectGetter
}

func New(cfg S3Config) *Opener {
	return &Opener{cfg: cfg}
}

// Open returns a reader for uri. Missing inputs produce an error matching ErrNotFound.
func (o *Opener) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, fmt.Errorf("empty location: %w", ErrNotFound)
	}

	if bucket, key, ok := ParseS3(uri); ok {
		return o.openObject(ctx, bucket, key)
	}

	file, err := os.Open(uri)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, err
	}
	return file, nil
}

// ParseS3 splits an s3://bucket/key URI.
func ParseS3(uri string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(strings.ToLower(uri), s3Scheme) {
		return "", "", false
	}
	rest := uri[len(s3Scheme):]
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

func (o *Opener) openObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	client, err := o.client(ctx)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isMissingObject(err) {
			return nil, fmt.Errorf("s3://%s/%s: %w", bucket, key, ErrNotFound)
		}
		return nil, fmt.Errorf("get object s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

func (o *Opener) client(ctx context.Context) (objectGetter, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.s3 != nil {
		return o.s3, nil
	}

	opts := make([]func(*config.LoadOptions) error, 0, 1)
	if region := strings.TrimSpace(o.cfg.Region); region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimSpace(o.cfg.Endpoint)
	o.s3 = s3.NewFromConfig(awsConfig, func(opt *s3.Options) {
		if endpoint != "" {
			opt.BaseEndpoint = aws.String(endpoint)
			opt.UsePathStyle = true
		}
	})
	return o.s3, nil
}

func isMissingObject(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey" || code == "NoSuchBucket"
	}
	return false
}
