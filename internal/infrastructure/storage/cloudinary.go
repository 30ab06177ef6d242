package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"

	"github.com/99minutos/backoffice-api/internal/core/domain"
	"github.com/99minutos/backoffice-api/internal/core/ports"
)

const defaultCloudinaryFolder = "backoffice"

// CloudinaryConfig holds the account credentials and target folder.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Configured reports whether every credential is present.
func (c CloudinaryConfig) Configured() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// uploadAPI is the part of the Cloudinary upload API this backend uses.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryStorage keeps files in Cloudinary. Downloads are redirects to
// the asset's secure URL.
type CloudinaryStorage struct {
	api    uploadAPI
	folder string
}

func NewCloudinaryStorage(cfg CloudinaryConfig) (*CloudinaryStorage, error) {
	if !cfg.Configured() {
		return nil, errors.New("cloudinary credentials are not configured")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	return newCloudinaryStorage(&cld.Upload, cfg.Folder), nil
}

func newCloudinaryStorage(api uploadAPI, folder string) *CloudinaryStorage {
	if folder == "" {
		folder = defaultCloudinaryFolder
	}
	return &CloudinaryStorage{api: api, folder: folder}
}

func (s *CloudinaryStorage) Strategy() domain.StorageStrategy { return domain.StorageCloudinary }

// Store uploads with resource type auto. The ref keeps the secure URL as
// location and "<resource_type>:<public_id>" as external id.
func (s *CloudinaryStorage) Store(ctx context.Context, file ports.FileInput) (domain.StorageRef, error) {
	publicID := uuid.NewString()
	if ext := path.Ext(file.Name); ext != "" && !isImageExt(ext) {
		// Raw assets keep their extension in the public id.
		publicID += strings.ToLower(ext)
	}

	res, err := s.api.Upload(ctx, file.Body, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       s.folder,
		ResourceType: "auto",
	})
	if err != nil {
		return domain.StorageRef{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return domain.StorageRef{}, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}

	return domain.StorageRef{
		Strategy:   domain.StorageCloudinary,
		Location:   res.SecureURL,
		ExternalID: res.ResourceType + ":" + res.PublicID,
	}, nil
}

func (s *CloudinaryStorage) Retrieve(_ context.Context, ref domain.StorageRef) (*ports.StoredObject, error) {
	if ref.Location == "" {
		return nil, fmt.Errorf("%w: missing asset url", domain.ErrDocumentNotFound)
	}
	return &ports.StoredObject{RedirectURL: ref.Location}, nil
}

func (s *CloudinaryStorage) Delete(ctx context.Context, ref domain.StorageRef) error {
	resourceType, publicID, ok := strings.Cut(ref.ExternalID, ":")
	if !ok {
		publicID, resourceType = ref.ExternalID, "image"
	}
	if publicID == "" {
		return nil
	}

	res, err := s.api.Destroy(ctx, uploader.DestroyParams{PublicID: publicID, ResourceType: resourceType})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", res.Error.Message)
	}
	return nil
}

func isImageExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".svg", ".pdf":
		return true
	}
	return false
}
