package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

const ContentTypeJSON = "application/json"

type UploadResult struct {
	Key      string `json:"key"`
	Location string `json:"url"`
	ETag     string `json:"etag,omitempty"`
}

// FileUploader stores objects in a bucket reachable through a public base URL.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	GetPublicURL(key string) string
}

// BracketExportKey names the snapshot of a category bracket taken at.
func BracketExportKey(categoryID int64, at time.Time) string {
	return fmt.Sprintf("brackets/category-%d/%s.json", categoryID, at.UTC().Format("20060102T150405Z"))
}
