// Package filex reads local files for upload.
package filex

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// ErrTooLarge is returned when a file exceeds the size limit.
var ErrTooLarge = errors.New("file too large")

// Upload is a file loaded into memory together with its sniffed type.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReadUpload reads at most limit bytes from path. Files larger than limit
// fail with ErrTooLarge. The content type is detected from the first bytes.
func ReadUpload(path string, limit int64) (*Upload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}

	return &Upload{
		Name:        filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}
