package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/fractracker/complaints/internal/models"
)

// Store reads and writes the whole ledger. A ledger that does not exist yet
// reads as empty.
type Store interface {
	Read(ctx context.Context) ([]models.SubmissionRecord, error)
	Write(ctx context.Context, records []models.SubmissionRecord) error
}

// IOError means the ledger could not be read or written. Without the ledger
// idempotency cannot be guaranteed, so it is fatal for a batch.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// FileStore keeps the ledger as a CSV file on local disk.
type FileStore struct {
	Path string
}

func (s *FileStore) Read(ctx context.Context) ([]models.SubmissionRecord, error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Write replaces the file atomically through a temporary sibling.
func (s *FileStore) Write(ctx context.Context, records []models.SubmissionRecord) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}

// ObjectStore keeps the ledger as a CSV object in an S3-compatible bucket.
type ObjectStore struct {
	Client *minio.Client
	Bucket string
	Object string
}

func NewObjectStore(ctx context.Context, endpoint, accessKey, secretKey string, useSSL bool, bucket, object string) (*ObjectStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return &ObjectStore{Client: client, Bucket: bucket, Object: object}, nil
}

func (s *ObjectStore) Read(ctx context.Context) ([]models.SubmissionRecord, error) {
	obj, err := s.Client.GetObject(ctx, s.Bucket, s.Object, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	if _, err := obj.Stat(); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil
		}
		return nil, err
	}
	return Decode(obj)
}

func (s *ObjectStore) Write(ctx context.Context, records []models.SubmissionRecord) error {
	var buf bytes.Buffer
	if err := Encode(&buf, records); err != nil {
		return err
	}
	_, err := s.Client.PutObject(ctx, s.Bucket, s.Object, &buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	return err
}
