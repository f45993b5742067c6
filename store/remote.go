package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Snapshot locations are bare local paths or file://, s3:// and
// http(s):// URLs. Local paths and s3 support both directions; http(s)
// is download-only.

// scheme returns the lowercased URL scheme, or "" for a bare path.
func scheme(path string) string {
	i := strings.Index(path, "://")
	if i < 0 {
		return ""
	}
	return strings.ToLower(path[:i])
}

func (s *EncryptedStore) get(path string) ([]byte, error) {
	switch scheme(path) {
	case "":
		return readFile(path)
	case "file":
		return readFile(strings.TrimPrefix(path, "file://"))
	case "http", "https":
		return httpGet(path)
	case "s3":
		return s.s3Get(path)
	default:
		return nil, fmt.Errorf("unsupported snapshot location: %s", path)
	}
}

func (s *EncryptedStore) put(path string, blob []byte) error {
	switch scheme(path) {
	case "":
		return writeFile(path, blob)
	case "file":
		return writeFile(strings.TrimPrefix(path, "file://"), blob)
	case "http", "https":
		return fmt.Errorf("snapshots cannot be written over HTTP")
	case "s3":
		return s.s3Put(path, blob)
	default:
		return fmt.Errorf("unsupported snapshot location: %s", path)
	}
}

func readFile(path string) ([]byte, error) {
	f, err := osOpen(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func writeFile(path string, blob []byte) error {
	f, err := osCreate(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(blob); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func httpGet(url string) ([]byte, error) {
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching snapshot: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching snapshot: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// splitS3Path splits s3://bucket/key into bucket and key.
func splitS3Path(path string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(path, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid s3 location: %s", path)
	}
	return parts[0], parts[1], nil
}

func (s *EncryptedStore) s3Client(ctx context.Context) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if s.S3Region != "" {
		opts = append(opts, config.WithRegion(s.S3Region))
	}
	if s.S3AccessKey != "" && s.S3SecretKey != "" {
		provider := credentials.NewStaticCredentialsProvider(s.S3AccessKey, s.S3SecretKey, "")
		opts = append(opts, config.WithCredentialsProvider(provider))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	if s.S3Endpoint == "" {
		return s3.NewFromConfig(cfg), nil
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.S3Endpoint)
		o.UsePathStyle = true
	}), nil
}

func (s *EncryptedStore) s3Get(path string) ([]byte, error) {
	bucket, key, err := splitS3Path(path)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	client, err := s.s3Client(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("downloading snapshot: %w", err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (s *EncryptedStore) s3Put(path string, blob []byte) error {
	bucket, key, err := splitS3Path(path)
	if err != nil {
		return err
	}

	ctx := context.Background()
	client, err := s.s3Client(ctx)
	if err != nil {
		return err
	}
	if _, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(blob),
	}); err != nil {
		return fmt.Errorf("uploading snapshot: %w", err)
	}
	return nil
}

// osOpen and osCreate wrap os.Open/os.Create so tests can swap them.
var osOpen = func(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

var osCreate = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}
