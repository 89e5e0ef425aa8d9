package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/merofly/identity-service/internal/identity/domain"
)

// minioAPI is the narrow slice of *minio.Client the store needs,
// defined so tests can inject a fake without a running server.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type minioClientWrapper struct{ c *minio.Client }

func (w minioClientWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return w.c.BucketExists(ctx, bucketName)
}

func (w minioClientWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucketName, opts)
}

func (w minioClientWrapper) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}

var _ domain.FileStore = (*DocumentStore)(nil)

// DocumentStore keeps uploaded identity documents in a MinIO bucket and
// hands back the URL the verification flow consumes.
type DocumentStore struct {
	api     minioAPI
	bucket  string
	baseURL string
}

func NewDocumentStore(ctx context.Context, client *minio.Client, bucket, baseURL string) (*DocumentStore, error) {
	return newDocumentStoreWithAPI(ctx, minioClientWrapper{c: client}, bucket, baseURL)
}

func newDocumentStoreWithAPI(ctx context.Context, api minioAPI, bucket, baseURL string) (*DocumentStore, error) {
	s := &DocumentStore{api: api, bucket: bucket, baseURL: baseURL}

	exists, err := api.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return s, nil
}

func (s *DocumentStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.api.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}

	return s.objectURL(key), nil
}

func (s *DocumentStore) objectURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}

	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, strings.Join(segments, "/"))
}
