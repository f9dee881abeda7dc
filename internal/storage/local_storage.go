package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"lyceum/internal/config"
)

// FileInfo describes a stored file.
type FileInfo struct {
	URL      string `json:"url"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	FileName string `json:"fileName"`
}

// StorageService abstracts file storage for avatars and post images.
type StorageService interface {
	UploadFile(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*FileInfo, error)
}

// LocalStorageService stores uploads on the local filesystem.
type LocalStorageService struct {
	basePath string
	baseURL  string
}

// NewLocalStorageService creates a local storage service rooted at the
// configured path, creating the directory if needed.
func NewLocalStorageService(cfg config.StorageConfig) (StorageService, error) {
	if err := os.MkdirAll(cfg.LocalPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %q: %w", cfg.LocalPath, err)
	}
	return &LocalStorageService{
		basePath: cfg.LocalPath,
		baseURL:  cfg.BaseURL,
	}, nil
}

// UploadFile saves the file under a generated name, keeping the original
// extension (or inferring one from the MIME type).
func (s *LocalStorageService) UploadFile(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*FileInfo, error) {
	ext := filepath.Ext(fileName)
	if ext == "" {
		extensions, _ := mime.ExtensionsByType(mimeType)
		if len(extensions) > 0 {
			ext = extensions[0]
		}
	}
	uniqueFileName := uuid.New().String() + ext

	dstPath := filepath.Join(s.basePath, uniqueFileName)

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %q: %w", dstPath, err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, reader)
	if err != nil {
		os.Remove(dstPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if written != fileSize {
		os.Remove(dstPath)
		return nil, fmt.Errorf("file size mismatch: expected %d, wrote %d", fileSize, written)
	}

	fileURL := strings.TrimSuffix(s.baseURL, "/") + "/" + url.PathEscape(uniqueFileName)

	return &FileInfo{
		URL:      fileURL,
		Path:     dstPath,
		Size:     fileSize,
		MimeType: mimeType,
		FileName: fileName,
	}, nil
}
