package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
	MediaTypeGif   MediaType = "gif"
)

const ConversionThumb = "thumb"

type MediaConversion struct {
	Name string `json:"name"`
	Path string `json:"path"`
	URL  string `json:"url,omitempty"`
}

type Media struct {
	ID          int64             `db:"id" json:"id"`
	UserID      int64             `db:"user_id" json:"-"`
	Name        string            `db:"name" json:"name"`
	MimeType    string            `db:"mime_type" json:"mime_type"`
	Disk        string            `db:"disk" json:"-"`
	Path        string            `db:"path" json:"-"`
	URL         string            `db:"url" json:"url"`
	Size        int64             `db:"size" json:"size"`
	Conversions []MediaConversion `db:"conversions" json:"conversions"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// Type is derived from the MIME type by substring match; gif wins over video.
func (m *Media) Type() MediaType {
	switch {
	case strings.Contains(m.MimeType, "gif"):
		return MediaTypeGif
	case strings.Contains(m.MimeType, "video"):
		return MediaTypeVideo
	}
	return MediaTypeImage
}

func (m *Media) Conversion(name string) *MediaConversion {
	for i := range m.Conversions {
		if m.Conversions[i].Name == name {
			return &m.Conversions[i]
		}
	}
	return nil
}

// ThumbURL is empty until the conversions task has run.
func (m *Media) ThumbURL() string {
	if c := m.Conversion(ConversionThumb); c != nil {
		return c.URL
	}
	return ""
}

// DisplayURL prefers the thumbnail.
func (m *Media) DisplayURL() string {
	if thumb := m.ThumbURL(); thumb != "" {
		return thumb
	}
	return m.URL
}

type mediaJSON struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	MimeType     string            `json:"mime_type"`
	Type         MediaType         `json:"type"`
	URL          string            `json:"url"`
	ThumbURL     string            `json:"thumb_url,omitempty"`
	DisplayURL   string            `json:"display_url"`
	Size         int64             `json:"size"`
	SizeReadable string            `json:"size_readable"`
	Conversions  []MediaConversion `json:"conversions"`
	CreatedAt    time.Time         `json:"created_at"`
}

// MarshalJSON renders media the same way wherever it appears: the library,
// post versions and account avatars. Disk and path stay internal.
func (m Media) MarshalJSON() ([]byte, error) {
	conversions := m.Conversions
	if conversions == nil {
		conversions = []MediaConversion{}
	}
	return json.Marshal(mediaJSON{
		ID:           m.ID,
		Name:         m.Name,
		MimeType:     m.MimeType,
		Type:         m.Type(),
		URL:          m.URL,
		ThumbURL:     m.ThumbURL(),
		DisplayURL:   m.DisplayURL(),
		Size:         m.Size,
		SizeReadable: HumanFileSize(m.Size),
		Conversions:  conversions,
		CreatedAt:    m.CreatedAt,
	})
}

func HumanFileSize(bytes int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", size, units[i])
}
