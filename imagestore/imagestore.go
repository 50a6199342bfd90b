// Package imagestore stores citizen capture images and normalizes legacy
// image URLs onto the public CDN host.
package imagestore

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const (
	imageBaseInternal = "http://192.168.192.177:9000"
	imageBasePublic   = "https://assets.omnivision.neuradyne.in"
	imageFolder       = "billion-eyes-images"
)

// Uploader stores a base64-encoded JPEG and returns its public URL.
type Uploader interface {
	UploadBase64(ctx context.Context, base64String, publicID string) (string, error)
}

// Cloudinary is the production Uploader, configured from CLOUDINARY_URL.
type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinary builds a Cloudinary uploader from the environment.
func NewCloudinary() (*Cloudinary, error) {
	cld, err := cloudinary.New()
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &Cloudinary{cld: cld}, nil
}

// UploadBase64 uploads the capture as a JPEG data URI.
func (c *Cloudinary) UploadBase64(ctx context.Context, base64String, publicID string) (string, error) {
	dataURI := "data:image/jpeg;base64," + base64String
	res, err := c.cld.Upload.Upload(ctx, dataURI, uploader.UploadParams{
		PublicID: publicID,
		Folder:   imageFolder,
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

// NormalizeURL rewrites image URLs stored against the internal MinIO host to
// the public CDN. Absolute URLs on other hosts pass through untouched, as do
// strings that are not image paths we own.
func NormalizeURL(url string) string {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, imageBasePublic) {
		return trimmed
	}
	if strings.HasPrefix(trimmed, imageBaseInternal) {
		return strings.Replace(trimmed, imageBaseInternal, imageBasePublic, 1)
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "/"+imageFolder+"/") {
		return imageBasePublic + trimmed
	}
	return trimmed
}
