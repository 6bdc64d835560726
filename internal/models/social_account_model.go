package models

import (
	"time"
)

type Provider string

const (
	ProviderTwitter       Provider = "twitter"
	ProviderFacebookPage  Provider = "facebook_page"
	ProviderFacebookGroup Provider = "facebook_group"
	ProviderMastodon      Provider = "mastodon"
)

var Providers = []Provider{ProviderTwitter, ProviderFacebookPage, ProviderFacebookGroup, ProviderMastodon}

func (p Provider) Valid() bool {
	for _, known := range Providers {
		if p == known {
			return true
		}
	}
	return false
}

// Capabilities are static per provider.
type Capabilities struct {
	CharacterLimit              int  `json:"character_limit"`
	MaxPhotos                   int  `json:"max_photos"`
	MaxVideos                   int  `json:"max_videos"`
	MaxGifs                     int  `json:"max_gifs"`
	SupportsSimultaneousPosting bool `json:"supports_simultaneous_posting"`
}

func (p Provider) Capabilities() Capabilities {
	switch p {
	case ProviderTwitter:
		return Capabilities{CharacterLimit: 280, MaxPhotos: 4, MaxVideos: 1, MaxGifs: 1}
	case ProviderFacebookPage, ProviderFacebookGroup:
		return Capabilities{CharacterLimit: 5000, MaxPhotos: 10, MaxVideos: 1, MaxGifs: 1, SupportsSimultaneousPosting: true}
	case ProviderMastodon:
		return Capabilities{CharacterLimit: 500, MaxPhotos: 4, MaxVideos: 1, MaxGifs: 1, SupportsSimultaneousPosting: true}
	}
	return Capabilities{}
}

type AccountData struct {
	Followers *int `json:"followers,omitempty"`
	Following *int `json:"following,omitempty"`
	Posts     *int `json:"posts,omitempty"`
}

type SocialAccount struct {
	ID             int64        `db:"id" json:"id"`
	UserID         int64        `db:"user_id" json:"user_id"`
	Name           string       `db:"name" json:"name"`
	Username       string       `db:"username" json:"username,omitempty"`
	Provider       Provider     `db:"provider" json:"provider"`
	ProviderID     string       `db:"provider_id" json:"provider_id"`
	MediaID        *int64       `db:"media_id" json:"-"`
	Media          *Media       `json:"media"`
	Data           *AccountData `db:"data" json:"data"`
	AccessToken    string       `db:"access_token" json:"-"`
	RefreshToken   string       `db:"refresh_token" json:"-"`
	TokenExpiresAt *time.Time   `db:"token_expires_at" json:"-"`
	Authorized     bool         `db:"authorized" json:"authorized"`
	Capabilities   Capabilities `json:"capabilities"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}
