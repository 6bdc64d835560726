package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	config "github.com/vibecreator/mixpost-api/configs"
	"github.com/vibecreator/mixpost-api/internal/models"
)

const (
	TWITTER_AUTH_URL  = "https://twitter.com/i/oauth2/authorize"
	TWITTER_TOKEN_URL = "https://api.twitter.com/2/oauth2/token"
	TWITTER_ME_URL    = "https://api.twitter.com/2/users/me?user.fields=profile_image_url,public_metrics"
	FACEBOOK_ME_URL   = "https://graph.facebook.com/v19.0/me?fields=id,name,picture.type(large)"
)

// Profile is the provider-side identity of a connected account.
type Profile struct {
	ID        string
	Name      string
	Username  string
	AvatarURL string
	Data      models.AccountData
}

// ProfileFetcher reads the authenticated profile with an OAuth client.
type ProfileFetcher interface {
	Fetch(ctx context.Context, provider models.Provider, client *http.Client) (*Profile, error)
}

// OAuthConfig returns the oauth2 settings of a provider, or false when the
// provider is unknown or not configured.
func OAuthConfig(cfg config.Config, provider models.Provider) (*oauth2.Config, bool) {
	var c *oauth2.Config
	switch provider {
	case models.ProviderTwitter:
		c = &oauth2.Config{
			ClientID:     cfg.Twitter.ClientID,
			ClientSecret: cfg.Twitter.ClientSecret,
			RedirectURL:  cfg.Twitter.RedirectURI,
			Scopes:       []string{"tweet.read", "tweet.write", "users.read", "offline.access"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   TWITTER_AUTH_URL,
				TokenURL:  TWITTER_TOKEN_URL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		}
	case models.ProviderFacebookPage, models.ProviderFacebookGroup:
		c = &oauth2.Config{
			ClientID:     cfg.Facebook.ClientID,
			ClientSecret: cfg.Facebook.ClientSecret,
			RedirectURL:  cfg.Facebook.RedirectURI,
			Scopes:       []string{"public_profile", "pages_show_list", "pages_manage_posts", "publish_to_groups"},
			Endpoint:     facebook.Endpoint,
		}
	case models.ProviderMastodon:
		server := strings.TrimRight(cfg.MastodonServer, "/")
		if server == "" {
			return nil, false
		}
		c = &oauth2.Config{
			ClientID:     cfg.Mastodon.ClientID,
			ClientSecret: cfg.Mastodon.ClientSecret,
			RedirectURL:  cfg.Mastodon.RedirectURI,
			Scopes:       []string{"read", "write"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  server + "/oauth/authorize",
				TokenURL: server + "/oauth/token",
			},
		}
	default:
		return nil, false
	}
	if c.ClientID == "" || c.ClientSecret == "" || c.RedirectURL == "" {
		return nil, false
	}
	return c, true
}

type httpProfileFetcher struct {
	mastodonServer string
}

func NewProfileFetcher(cfg config.Config) ProfileFetcher {
	return &httpProfileFetcher{mastodonServer: strings.TrimRight(cfg.MastodonServer, "/")}
}

func (f *httpProfileFetcher) Fetch(ctx context.Context, provider models.Provider, client *http.Client) (*Profile, error) {
	switch provider {
	case models.ProviderTwitter:
		var body struct {
			Data struct {
				ID              string `json:"id"`
				Name            string `json:"name"`
				Username        string `json:"username"`
				ProfileImageURL string `json:"profile_image_url"`
				PublicMetrics   struct {
					Followers int `json:"followers_count"`
					Following int `json:"following_count"`
					Tweets    int `json:"tweet_count"`
				} `json:"public_metrics"`
			} `json:"data"`
		}
		if err := getJSON(ctx, client, TWITTER_ME_URL, &body); err != nil {
			return nil, err
		}
		m := body.Data.PublicMetrics
		return &Profile{
			ID:        body.Data.ID,
			Name:      body.Data.Name,
			Username:  body.Data.Username,
			AvatarURL: body.Data.ProfileImageURL,
			Data:      models.AccountData{Followers: &m.Followers, Following: &m.Following, Posts: &m.Tweets},
		}, nil

	case models.ProviderFacebookPage, models.ProviderFacebookGroup:
		var body struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Picture struct {
				Data struct {
					URL string `json:"url"`
				} `json:"data"`
			} `json:"picture"`
		}
		if err := getJSON(ctx, client, FACEBOOK_ME_URL, &body); err != nil {
			return nil, err
		}
		return &Profile{ID: body.ID, Name: body.Name, AvatarURL: body.Picture.Data.URL}, nil

	case models.ProviderMastodon:
		var body struct {
			ID          string `json:"id"`
			DisplayName string `json:"display_name"`
			Username    string `json:"username"`
			Avatar      string `json:"avatar"`
			Followers   int    `json:"followers_count"`
			Following   int    `json:"following_count"`
			Statuses    int    `json:"statuses_count"`
		}
		if err := getJSON(ctx, client, f.mastodonServer+"/api/v1/accounts/verify_credentials", &body); err != nil {
			return nil, err
		}
		name := body.DisplayName
		if name == "" {
			name = body.Username
		}
		return &Profile{
			ID:        body.ID,
			Name:      name,
			Username:  body.Username,
			AvatarURL: body.Avatar,
			Data:      models.AccountData{Followers: &body.Followers, Following: &body.Following, Posts: &body.Statuses},
		}, nil
	}
	return nil, fmt.Errorf("unsupported provider %q", provider)
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
