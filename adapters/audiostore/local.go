package audiostore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/repositories"
)

const defaultMaxUploadBytes = 25 << 20 // 25 MB

// LocalConfig holds configuration for the local upload area.
// Optional fields with defaults:
// - Dir: upload directory (default: os temp dir + "dream-uploads")
// - MaxUploadBytes: upload size ceiling (default: 25 MB)
type LocalConfig struct {
	Dir            string
	MaxUploadBytes int64
}

// NewLocalConfigFromEnv reads UPLOAD_DIR.
func NewLocalConfigFromEnv() LocalConfig {
	return LocalConfig{Dir: os.Getenv("UPLOAD_DIR")}
}

// LocalStore keeps uploaded recordings on the local filesystem under opaque
// keys until the pipeline has consumed them. Delete fails on an unknown or
// already-deleted key so double releases surface as errors.
type LocalStore struct {
	dir      string
	maxBytes int64
	logger   *zap.Logger
}

var _ repositories.AudioStore = (*LocalStore)(nil)

// NewLocalStore creates the store and its directory.
func NewLocalStore(config LocalConfig, logger *zap.Logger) (*LocalStore, error) {
	dir := config.Dir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "dream-uploads")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	maxBytes := config.MaxUploadBytes
	if maxBytes == 0 {
		maxBytes = defaultMaxUploadBytes
	}

	return &LocalStore{dir: dir, maxBytes: maxBytes, logger: logger}, nil
}

// Save streams one upload into the store and returns its key. Uploads over
// the ceiling are rejected and nothing is kept.
func (s *LocalStore) Save(r io.Reader, ext string) (string, error) {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "webm"
	}
	key := uuid.New().String() + "." + ext

	f, err := os.Create(s.path(key))
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(s.path(key))
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if n > s.maxBytes {
		os.Remove(s.path(key))
		return "", fmt.Errorf("upload exceeds %d byte limit", s.maxBytes)
	}

	s.logger.Debug("Upload stored", zap.String("key", key), zap.Int64("bytes", n))
	return key, nil
}

// Read returns the full contents of a stored upload.
func (s *LocalStore) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", key, err)
	}
	return data, nil
}

// Delete removes a stored upload. Deleting a missing key is an error.
func (s *LocalStore) Delete(key string) error {
	if err := os.Remove(s.path(key)); err != nil {
		return fmt.Errorf("failed to delete upload %s: %w", key, err)
	}
	s.logger.Debug("Upload deleted", zap.String("key", key))
	return nil
}

// path confines keys to the store directory.
func (s *LocalStore) path(key string) string {
	return filepath.Join(s.dir, filepath.Base(key))
}
