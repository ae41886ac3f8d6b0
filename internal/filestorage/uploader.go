package filestorage

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"therapylink_backend/internal/config"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the size limit")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Kind describes an upload slot: where it goes and what it may contain.
type Kind struct {
	Name     string
	Folder   string
	MaxBytes int64
	// content type -> canonical extension
	Allowed map[string]string
}

// Kinds holds the upload slots used by onboarding.
type Kinds struct {
	ProfilePhoto    Kind
	LicenseDocument Kind
}

func NewKinds(cfg *config.Config) Kinds {
	images := map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
	}
	documents := map[string]string{
		"application/pdf": ".pdf",
		"image/jpeg":      ".jpg",
		"image/png":       ".png",
	}
	return Kinds{
		ProfilePhoto:    Kind{Name: "profile-photo", Folder: "profile-photos", MaxBytes: cfg.MaxProfilePhotoBytes, Allowed: images},
		LicenseDocument: Kind{Name: "license-document", Folder: "license-documents", MaxBytes: cfg.MaxLicenseDocBytes, Allowed: documents},
	}
}

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, fileHeader *multipart.FileHeader, kind Kind) (string, error)
}

// checkUpload enforces kind's size and type limits and returns the
// extension to store the file under.
func checkUpload(fileHeader *multipart.FileHeader, kind Kind) (string, error) {
	if fileHeader == nil {
		return "", fmt.Errorf("fileHeader cannot be nil")
	}
	if kind.MaxBytes > 0 && fileHeader.Size > kind.MaxBytes {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, fileHeader.Size, kind.MaxBytes)
	}

	contentType := strings.ToLower(strings.TrimSpace(strings.Split(fileHeader.Header.Get("Content-Type"), ";")[0]))
	if ext, ok := kind.Allowed[contentType]; ok {
		return ext, nil
	}

	// Fall back to the filename when the client sent a generic content type.
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	for _, allowed := range kind.Allowed {
		if allowed == ext {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: %q for %s", ErrUnsupportedType, contentType, kind.Name)
}
