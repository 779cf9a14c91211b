package storage

import (
	"context"
	"path"
	"strings"
)

// Client abstracts the subset of object store operations the backup runners need.
type Client interface {
	UploadFile(ctx context.Context, key, filePath string, contentType string) error
	DownloadToFile(ctx context.Context, key, destPath string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

// ObjectKey joins a bucket prefix with the parts of an object name. The
// result never starts with a slash.
func ObjectKey(prefix string, parts ...string) string {
	elems := make([]string, 0, len(parts)+1)
	if p := strings.Trim(prefix, "/"); p != "" {
		elems = append(elems, p)
	}
	for _, part := range parts {
		part = strings.Trim(strings.ReplaceAll(part, "\\", "/"), "/")
		if part != "" {
			elems = append(elems, part)
		}
	}
	return path.Join(elems...)
}
