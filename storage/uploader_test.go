package storage

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensionFromContentType(t *testing.T) {
	ext, err := ExtensionFromContentType("image/png")
	require.NoError(t, err)
	assert.Equal(t, ".png", ext)

	_, err = ExtensionFromContentType("application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedContentType)
}

func TestMatchPhotoKey(t *testing.T) {
	now := time.Unix(1700000000, 0)
	assert.Equal(t, "matches/12/home_1700000000.jpg", MatchPhotoKey(12, "home", ".jpg", now))
}

func TestPublicURL(t *testing.T) {
	base, err := url.Parse("https://cdn.example.com/bolao/")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/bolao/matches/1/home.png", PublicURL(base, "matches/1/home.png"))
	assert.Equal(t, "https://cdn.example.com/bolao/matches/1/home.png", PublicURL(base, "/matches/1/home.png"))
	assert.Equal(t, "", PublicURL(base, ""))
	assert.Equal(t, "", PublicURL(nil, "x"))
}
