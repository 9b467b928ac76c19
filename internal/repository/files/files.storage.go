// FilePath: internal/repository/files/files.storage.go
package files

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const (
	maxArchiveSize     = 100 * 1024 * 1024 // 100MB
	defaultPermissions = 0755
	defaultDateFormat  = "20060102_150405"
)

// FileConfig holds configuration for the export archive
type FileConfig struct {
	BasePath string
}

// ArchiveRepo keeps delivered export payloads on disk, laid out as
// <base>/<user>/<sensor>/<timestamp>_<log id>_<file name>.
type ArchiveRepo struct {
	config FileConfig
}

// NewArchiveRepository creates the base directory if needed
func NewArchiveRepository(config FileConfig) (*ArchiveRepo, error) {
	if config.BasePath == "" {
		return nil, errors.NewValidationError("archive base path is required", nil)
	}
	if err := createDirectoryIfNotExists(config.BasePath); err != nil {
		return nil, err
	}
	return &ArchiveRepo{config: config}, nil
}

// Store writes body and returns its path relative to the archive root.
func (r *ArchiveRepo) Store(ctx context.Context, log *models.ExportLog, body []byte) (string, error) {
	if len(body) > maxArchiveSize {
		return "", errors.NewValidationError("export exceeds maximum archive size", nil)
	}

	relPath := r.generateFilePath(log)
	dirPath := filepath.Join(r.config.BasePath, filepath.Dir(relPath))
	if err := createDirectoryIfNotExists(dirPath); err != nil {
		return "", err
	}

	if err := os.WriteFile(filepath.Join(r.config.BasePath, relPath), body, 0o644); err != nil {
		return "", errors.NewInternalError("failed to write archive file", err)
	}

	nuts.L.Infof("[ArchiveRepo] Stored export: %s", relPath)
	return relPath, nil
}

// Stream copies an archived payload to w
func (r *ArchiveRepo) Stream(ctx context.Context, relPath string, w io.Writer) error {
	fullPath, err := r.resolve(relPath)
	if err != nil {
		return err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError("archived export not found", err)
		}
		return errors.NewInternalError("failed to open archive file", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return errors.NewInternalError("failed to stream archive file", err)
	}
	return nil
}

// DeleteByUser removes every archived payload of the user
func (r *ArchiveRepo) DeleteByUser(ctx context.Context, userID string) error {
	dir, err := r.resolve(sanitize(userID))
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return errors.NewInternalError("failed to delete user archive", err)
	}
	nuts.L.Infof("[ArchiveRepo] Deleted archive of user %s", userID)
	return nil
}

// DeleteOlderThan removes payloads last modified before the cutoff
func (r *ArchiveRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int, error) {
	var deletedCount int
	err := filepath.Walk(r.config.BasePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if info.ModTime().Before(before) {
			if err := os.Remove(path); err != nil {
				nuts.L.Errorf("[ArchiveRepo] Failed to delete old archive %s: %v", path, err)
				return nil
			}
			deletedCount++
		}
		return nil
	})

	if err != nil {
		return deletedCount, errors.NewInternalError("failed to delete old archives", err)
	}

	nuts.L.Infof("[ArchiveRepo] Deleted %d archives older than %v", deletedCount, before)
	return deletedCount, nil
}

func (r *ArchiveRepo) generateFilePath(log *models.ExportLog) string {
	timestamp := time.Unix(log.CreatedAt, 0).UTC().Format(defaultDateFormat)
	filename := fmt.Sprintf("%s_%s_%s", timestamp, sanitize(log.ID), sanitize(log.FileName))
	return filepath.Join(sanitize(log.UserID), sanitize(log.SensorID), filename)
}

// resolve maps a relative path into the archive root and rejects escapes.
func (r *ArchiveRepo) resolve(relPath string) (string, error) {
	root := filepath.Clean(r.config.BasePath)
	full := filepath.Join(root, relPath)
	if full != root && !strings.HasPrefix(full, root+string(os.PathSeparator)) {
		return "", errors.NewValidationError("invalid archive path", nil)
	}
	return full, nil
}

func sanitize(name string) string {
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" {
		return "_"
	}
	return name
}

func createDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		err := os.MkdirAll(path, defaultPermissions)
		if err != nil {
			return errors.NewInternalError("failed to create directory", err)
		}
	}
	return nil
}
