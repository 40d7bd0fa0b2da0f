package storage

import (
	"context"
	"image"
	"io"
)

// StorageService defines the remote object store used to mirror uploads.
type StorageService interface {
	// UploadFile stores file under destFolder/publicID and returns the permanent identifier.
	UploadFile(ctx context.Context, file io.Reader, destFolder, publicID string) (string, error)
	DeleteFile(ctx context.Context, publicID string) error
	GetDownloadURL(ctx context.Context, publicID string) (string, error)
}

// ImageCache stores one profile image per user.
type ImageCache interface {
	Save(uid string, img image.Image) error
	// SaveEncoded decodes a JPEG or PNG upload and stores it.
	SaveEncoded(uid string, r io.Reader) error
	// Load returns the image scaled down to fit maxWidth x maxHeight.
	Load(uid string, maxWidth, maxHeight int) (image.Image, error)
	Delete(uid string) error
}
