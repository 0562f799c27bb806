package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var ErrUnsupportedContentType = errors.New("unsupported image content type")

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// ExtensionFromContentType возвращает расширение для поддерживаемых типов фото.
func ExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
}

// MatchPhotoKey строит ключ объекта для фото команды; метка времени
// не даёт CDN отдавать старую картинку после замены.
func MatchPhotoKey(matchID int, side string, ext string, now time.Time) string {
	return fmt.Sprintf("matches/%d/%s_%d%s", matchID, side, now.Unix(), ext)
}
