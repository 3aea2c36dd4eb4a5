package service

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/DeH-M/MachTrueke/internal/config"
	"github.com/DeH-M/MachTrueke/pkg/logger"
)

type UploadService interface {
	SaveImage(filename, contentType string, data []byte, subdir string) (string, error)
	DeleteLocal(url *string)
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type uploadService struct {
	cfg config.UploadConfig
	log logger.Logger
}

func NewUploadService(cfg config.UploadConfig, log logger.Logger) UploadService {
	return &uploadService{cfg: cfg, log: log}
}

// SaveImage writes an uploaded image under the configured upload dir
// with a random name and returns its public URL.
func (s *uploadService) SaveImage(filename, contentType string, data []byte, subdir string) (string, error) {
	if !allowedImageTypes[contentType] {
		return "", errors.New("unsupported image format (JPG/PNG/WEBP only)")
	}
	if len(data) > s.cfg.MaxImageMB*1024*1024 {
		return "", fmt.Errorf("image exceeds %dMB", s.cfg.MaxImageMB)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	name := uuid.New().String() + ext

	targetDir := filepath.Join(s.cfg.Dir, subdir)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		s.log.Error("Failed to create upload directory", "error", err, "dir", targetDir)
		return "", err
	}

	if err := os.WriteFile(filepath.Join(targetDir, name), data, 0o644); err != nil {
		s.log.Error("Failed to write uploaded file", "error", err)
		return "", err
	}

	return path.Join(s.cfg.PublicPath, subdir, name), nil
}

// DeleteLocal removes a previously uploaded file. URLs outside the
// public upload path (external avatars, nil) are left alone, and a
// missing file is not an error.
func (s *uploadService) DeleteLocal(url *string) {
	if url == nil || !strings.HasPrefix(*url, s.cfg.PublicPath+"/") {
		return
	}

	rel := strings.TrimPrefix(*url, s.cfg.PublicPath+"/")
	target := filepath.Join(s.cfg.Dir, filepath.FromSlash(rel))

	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		s.log.Warn("Failed to remove uploaded file", "error", err, "path", target)
	}
}
