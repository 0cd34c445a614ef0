package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
	"github.com/cespare/xxhash/v2"
)

// ReadFile reads a file and returns a File model
func ReadFile(fileInfo *models.FileInfo) (*models.File, error) {
	content, err := os.ReadFile(fileInfo.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return &models.File{
		Path:         fileInfo.Path,
		RelativePath: fileInfo.RelativePath,
		Name:         filepath.Base(fileInfo.Path),
		Extension:    GetExtension(fileInfo.Path),
		Size:         int64(len(content)),
		ModTime:      fileInfo.ModTime,
		Content:      content,
		Hash:         xxhash.Sum64(content),
	}, nil
}
