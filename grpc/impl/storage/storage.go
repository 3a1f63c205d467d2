package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// ErrObjectNotFound is returned by ReadBytes when the object does not exist.
var ErrObjectNotFound = errors.New("object not found")

type Client interface {
	SaveBytes(ctx context.Context, bucketName string, objectName string, data []byte) error
	ReadBytes(ctx context.Context, bucketName string, objectName string) ([]byte, error)
}

type gcsClient struct {
	storageClient *storage.Client
}

func New(storageClient *storage.Client) Client {
	return &gcsClient{storageClient: storageClient}
}

func (s *gcsClient) SaveBytes(ctx context.Context, bucketName string, objectName string, data []byte) error {
	bucket := s.storageClient.Bucket(bucketName)
	writer := bucket.Object(objectName).NewWriter(ctx)
	writer.ContentType = contentType(objectName)

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}

	return nil
}

func (s *gcsClient) ReadBytes(ctx context.Context, bucketName string, objectName string) ([]byte, error) {
	reader, err := s.storageClient.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: gs://%s/%s", ErrObjectNotFound, bucketName, objectName)
		}
		return nil, fmt.Errorf("failed to open GCS object: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object: %w", err)
	}
	return data, nil
}

func contentType(objectName string) string {
	switch {
	case strings.HasSuffix(objectName, ".png"):
		return "image/png"
	case strings.HasSuffix(objectName, ".jpg"), strings.HasSuffix(objectName, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(objectName, ".webp"):
		return "image/webp"
	}
	return "application/octet-stream"
}
