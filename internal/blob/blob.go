package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BackupPrefix is the key prefix for pushed database backups.
const BackupPrefix = "platelog/backups/"

type Store interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) (int64, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// S3Store implements Store on any S3 compatible object storage.
type S3Store struct {
	client *s3.Client
	bucket string
}

func NewS3Store(endpoint, region, bucket, accessKeyID, secretKey string) (*S3Store, error) {
	if endpoint == "" || bucket == "" || accessKeyID == "" || secretKey == "" {
		return nil, fmt.Errorf("S3 configuration incomplete: endpoint, bucket, accessKeyID, and secretKey are required")
	}
	if strings.TrimSpace(region) == "" {
		region = "us-east-1"
	}

	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL:               endpoint,
			SigningRegion:     region,
			HostnameImmutable: true,
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
		config.WithEndpointResolverWithOptions(customResolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	return &S3Store{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

func (s *S3Store) PutObject(ctx context.Context, key string, data []byte, contentType string) (int64, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return 0, fmt.Errorf("put object %s: %w", key, err)
	}
	return int64(len(data)), nil
}

func (s *S3Store) GetObject(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}
	return data, nil
}

// PushBackup uploads a local backup file and its .sha256 sidecar, when
// present. It returns the object key of the database copy.
func PushBackup(ctx context.Context, store Store, backupPath string) (string, error) {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return "", fmt.Errorf("read backup: %w", err)
	}
	key := BackupPrefix + filepath.Base(backupPath)
	if _, err := store.PutObject(ctx, key, data, "application/vnd.sqlite3"); err != nil {
		return "", err
	}
	sum, err := os.ReadFile(backupPath + ".sha256")
	if err != nil {
		if os.IsNotExist(err) {
			return key, nil
		}
		return "", fmt.Errorf("read backup checksum: %w", err)
	}
	if _, err := store.PutObject(ctx, key+".sha256", sum, "text/plain"); err != nil {
		return "", err
	}
	return key, nil
}

// PullBackup downloads a pushed backup by file name into dir, together with
// its checksum sidecar, and returns the local path.
func PullBackup(ctx context.Context, store Store, name, dir string) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." {
		return "", fmt.Errorf("backup name is required")
	}
	data, err := store.GetObject(ctx, BackupPrefix+name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}
	out := filepath.Join(dir, name)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	if sum, err := store.GetObject(ctx, BackupPrefix+name+".sha256"); err == nil {
		if err := os.WriteFile(out+".sha256", sum, 0o644); err != nil {
			return "", fmt.Errorf("write backup checksum: %w", err)
		}
	}
	return out, nil
}
