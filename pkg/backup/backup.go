// Package backup stores document snapshots in an S3-compatible bucket.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
)

// Prefix is the key prefix of every snapshot.
const Prefix = "snapshots/"

// ErrInvalidKey is returned for keys outside the snapshot prefix.
var ErrInvalidKey = errors.New("not a snapshot key")

// ConnectionInfo describes the bucket endpoint.
type ConnectionInfo struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	UseSSL    bool
}

// Object describes one stored snapshot.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Snapshots reads and writes snapshots in one bucket.
type Snapshots struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// New connects to the endpoint. No request is made until the first call.
func New(info ConnectionInfo, logger *slog.Logger) (*Snapshots, error) {
	client, err := minio.New(info.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(info.AccessKey, info.SecretKey, ""),
		Secure: info.UseSSL,
		Region: info.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Snapshots{client: client, bucket: info.Bucket, logger: logger}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (s *Snapshots) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
		s.logger.Info("bucket created", "bucket", s.bucket)
	}
	return nil
}

// Snapshot uploads doc and returns its key.
func (s *Snapshots) Snapshot(ctx context.Context, doc ledger.Document, at time.Time) (string, error) {
	content, err := doc.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	key := SnapshotKey(at, ledger.Revision(content))
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}

	s.logger.Info("snapshot stored", "bucket", s.bucket, "key", key, "debtors", len(doc))
	return key, nil
}

// List returns every snapshot, newest first.
func (s *Snapshots) List(ctx context.Context) ([]Object, error) {
	var objects []Object
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: Prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("s3 list: %w", info.Err)
		}
		objects = append(objects, Object{Key: info.Key, Size: info.Size, LastModified: info.LastModified})
	}
	SortNewestFirst(objects)
	return objects, nil
}

// Load downloads and parses a snapshot.
func (s *Snapshots) Load(ctx context.Context, key string) (ledger.Document, error) {
	if !strings.HasPrefix(key, Prefix) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("s3 read %s: %w", key, err)
	}

	doc, err := ledger.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", key, err)
	}
	return doc, nil
}

// SnapshotKey builds snapshots/YYYY/MM/<timestamp>-<revision prefix>.json.
func SnapshotKey(at time.Time, revision string) string {
	at = at.UTC()
	if len(revision) > 12 {
		revision = revision[:12]
	}
	return fmt.Sprintf("%s%04d/%02d/%s-%s.json", Prefix, at.Year(), int(at.Month()), at.Format("20060102T150405Z"), revision)
}

// SortNewestFirst orders snapshots by key, which sorts by time.
func SortNewestFirst(objects []Object) {
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Key > objects[j].Key
	})
}
