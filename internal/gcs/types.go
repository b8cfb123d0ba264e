package gcs

import (
	"context"
)

// StorageService stores and retrieves report objects.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// Upload writes data under objectName and returns its gs:// URI.
	Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error)

	// FetchFromGCS downloads object bytes from the given storage URI.
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)
}
