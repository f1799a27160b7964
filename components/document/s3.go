package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const S3Scheme = "s3"

var ErrInvalidS3URI = errors.New("invalid s3 uri")

// S3GetObjectAPI is the part of *s3.Client used to read records.
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 reads records from a single object.
type S3 struct {
	bucket string
	key    string
	client S3GetObjectAPI
}

var _ Source = (*S3)(nil)

type S3Option func(*S3)

func WithS3Bucket(bucket string) S3Option {
	return func(s *S3) {
		s.bucket = bucket
	}
}

func WithS3Key(key string) S3Option {
	return func(s *S3) {
		s.key = key
	}
}

func WithS3Client(clt S3GetObjectAPI) S3Option {
	return func(s *S3) {
		s.client = clt
	}
}

func NewS3(opts ...S3Option) (*S3, error) {
	ret := new(S3)
	for _, opt := range opts {
		opt(ret)
	}
	if ret.bucket == "" || ret.key == "" {
		return nil, fmt.Errorf("%w: bucket and key are required", ErrInvalidS3URI)
	}
	if ret.client == nil {
		return nil, errors.New("s3 client is required")
	}
	return ret, nil
}

func (s *S3) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	return resp.Body, nil
}

func (s *S3) Name() string {
	return path.Base(s.key)
}

func (s *S3) Meta() map[string]string {
	return map[string]string{
		"source": "s3",
		"bucket": s.bucket,
		"key":    s.key,
	}
}

// IsS3URI reports whether location uses the s3:// scheme.
func IsS3URI(location string) bool {
	return strings.HasPrefix(location, S3Scheme+"://")
}

// ParseS3URI splits s3://bucket/key into its bucket and key. The key may be
// empty, which callers treat as the bucket root.
func ParseS3URI(uri string) (bucket string, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidS3URI, err)
	}
	if u.Scheme != S3Scheme || u.Host == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidS3URI, uri)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// S3Config configures NewS3Client. Credentials always come from the standard
// AWS_* environment variables.
type S3Config struct {
	Region string `yaml:"region"`
	// Endpoint targets S3 compatible stores such as MinIO
	Endpoint     string `yaml:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

func NewS3Client(cfg S3Config) *s3.Client {
	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}
	opts := s3.Options{
		Region:       region,
		Credentials:  aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials)),
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func envCredentials(context.Context) (aws.Credentials, error) {
	id := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.Credentials{}, errors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
	}
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "Environment",
	}, nil
}
