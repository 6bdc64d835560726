package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaType(t *testing.T) {
	cases := map[string]MediaType{
		"image/png":       MediaTypeImage,
		"image/gif":       MediaTypeGif,
		"video/mp4":       MediaTypeVideo,
		"video/quicktime": MediaTypeVideo,
	}
	for mime, want := range cases {
		m := &Media{MimeType: mime}
		assert.Equal(t, want, m.Type(), mime)
	}
}

func TestHumanFileSize(t *testing.T) {
	assert.Equal(t, "512.00 B", HumanFileSize(512))
	assert.Equal(t, "1.50 KB", HumanFileSize(1536))
	assert.Equal(t, "2.00 MB", HumanFileSize(2<<20))
}

func TestMediaInsidePostVersionJSON(t *testing.T) {
	version := PostVersion{
		ID:        1,
		AccountID: 2,
		Content:   []ContentBlock{{Type: ContentTypeText, Value: "hi"}},
		Media: []*Media{{
			ID:       3,
			Name:     "x.gif",
			MimeType: "image/gif",
			Disk:     "r2",
			Path:     "media/x.gif",
			URL:      "https://cdn/x.gif",
			Size:     2048,
			Conversions: []MediaConversion{
				{Name: ConversionThumb, Path: "media/x-thumb.jpg", URL: "https://cdn/x-thumb.jpg"},
			},
		}},
	}

	raw, err := json.Marshal(version)
	require.NoError(t, err)

	var out struct {
		Media []map[string]any `json:"media"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out.Media, 1)
	media := out.Media[0]

	assert.Equal(t, "gif", media["type"])
	assert.Equal(t, "https://cdn/x-thumb.jpg", media["thumb_url"])
	assert.Equal(t, "https://cdn/x-thumb.jpg", media["display_url"])
	assert.Equal(t, "https://cdn/x.gif", media["url"])
	assert.Equal(t, "2.00 KB", media["size_readable"])
	assert.NotContains(t, media, "disk")
	assert.NotContains(t, media, "path")
}

func TestMediaJSONWithoutConversions(t *testing.T) {
	raw, err := json.Marshal(&Media{ID: 4, MimeType: "video/mp4", URL: "https://cdn/v.mp4"})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "video", out["type"])
	assert.Equal(t, "https://cdn/v.mp4", out["display_url"])
	assert.NotContains(t, out, "thumb_url")
	assert.Equal(t, []any{}, out["conversions"])
}
