package minio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func NewClient(endpoint, key, secret string, useSSL bool) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(key, secret, ""),
		Secure: useSSL,
	})
}

// Storage implements ports.ObjectStorage on top of a MinIO (or any S3
// compatible) endpoint. publicURL, when set, overrides the endpoint in
// returned object URLs so clients can reach objects through a CDN or proxy.
type Storage struct {
	client    *minio.Client
	publicURL string
}

func NewStorage(client *minio.Client, publicURL string) *Storage {
	return &Storage{client: client, publicURL: strings.TrimRight(strings.TrimSpace(publicURL), "/")}
}

func (s *Storage) Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("minio: storage not configured")
	}
	_, err := s.client.PutObject(ctx, bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio: upload %s/%s: %w", bucket, objectName, err)
	}
	base := s.publicURL
	if base == "" {
		base = strings.TrimRight(s.client.EndpointURL().String(), "/")
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, objectName), nil
}
