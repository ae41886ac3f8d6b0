package filestorage

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// CloudinaryUploader stores uploads in Cloudinary under rootFolder/kind.Folder.
type CloudinaryUploader struct {
	cld        *cloudinary.Cloudinary
	rootFolder string
	logger     *zap.Logger
}

var _ Uploader = (*CloudinaryUploader)(nil)

func NewCloudinaryUploader(cloudName, apiKey, apiSecret, rootFolder string, logger *zap.Logger) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryUploader{cld: cld, rootFolder: rootFolder, logger: logger.Named("Cloudinary")}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, fileHeader *multipart.FileHeader, kind Kind) (string, error) {
	if _, err := checkUpload(fileHeader, kind); err != nil {
		return "", err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	result, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       path.Join(u.rootFolder, kind.Folder),
		ResourceType: "auto",
	})
	if err != nil {
		u.logger.Error("Cloudinary upload failed", zap.Error(err), zap.String("kind", kind.Name))
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		u.logger.Error("Cloudinary rejected upload", zap.String("message", result.Error.Message), zap.String("kind", kind.Name))
		return "", fmt.Errorf("cloudinary rejected upload: %s", result.Error.Message)
	}

	u.logger.Info("File uploaded", zap.String("kind", kind.Name), zap.String("publicID", result.PublicID))
	return result.SecureURL, nil
}
