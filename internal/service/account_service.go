package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	config "github.com/vibecreator/mixpost-api/configs"
	"github.com/vibecreator/mixpost-api/internal/models"
	"github.com/vibecreator/mixpost-api/internal/repository"
	"github.com/vibecreator/mixpost-api/internal/transfer"
	"github.com/vibecreator/mixpost-api/pkg/utils"
)

const stateTTL = 10 * time.Minute

type AccountService interface {
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	GetAuthURL(ctx context.Context, userID int64, provider string) (*transfer.OAuthURLResponse, error)
	// Callback finishes a connect flow. The user is taken from the signed state.
	Callback(ctx context.Context, provider, code, state string) (*models.SocialAccount, error)
	Refresh(ctx context.Context, userID, accountID int64) (*models.SocialAccount, error)
	Delete(ctx context.Context, userID, accountID int64) error
}

type accountService struct {
	cfg     config.Config
	log     *zap.Logger
	sa      repository.SocialAccountRepository
	mr      repository.MediaRepository
	rr      repository.ReportRepository
	media   MediaService
	profile ProfileFetcher
	key     []byte
	now     func() time.Time
}

func NewAccountService(
	cfg config.Config,
	log *zap.Logger,
	sa repository.SocialAccountRepository,
	mr repository.MediaRepository,
	rr repository.ReportRepository,
	media MediaService,
	profile ProfileFetcher) AccountService {
	return &accountService{
		cfg:     cfg,
		log:     log,
		sa:      sa,
		mr:      mr,
		rr:      rr,
		media:   media,
		profile: profile,
		key:     utils.DeriveKey(cfg.SecretKey),
		now:     time.Now,
	}
}

func (s *accountService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.attachMedia(ctx, userID, accounts...); err != nil {
		return nil, err
	}
	return orEmpty(accounts), nil
}

func (s *accountService) GetAuthURL(ctx context.Context, userID int64, provider string) (*transfer.OAuthURLResponse, error) {
	p, conf, err := s.oauthConfig(provider)
	if err != nil {
		return nil, err
	}

	state, err := utils.GenerateStateToken(s.cfg.SecretKey, strconv.FormatInt(userID, 10), string(p), stateTTL)
	if err != nil {
		return nil, err
	}

	return &transfer.OAuthURLResponse{
		URL:   conf.AuthCodeURL(state, s.authOptions(p, state)...),
		State: state,
	}, nil
}

func (s *accountService) Callback(ctx context.Context, provider, code, state string) (*models.SocialAccount, error) {
	p, conf, err := s.oauthConfig(provider)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, Invalid("code", "The code field is required.")
	}

	claims, err := utils.ValidateStateToken(s.cfg.SecretKey, state)
	if err != nil || claims.Provider != string(p) {
		return nil, Invalid("state", "The state is invalid or expired.")
	}
	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return nil, Invalid("state", "The state is invalid or expired.")
	}

	var opts []oauth2.AuthCodeOption
	if p == models.ProviderTwitter {
		opts = append(opts, oauth2.VerifierOption(s.verifier(state)))
	}
	token, err := conf.Exchange(ctx, code, opts...)
	if err != nil {
		s.log.Info("exchange oauth code", zap.String("provider", provider), zap.Error(err))
		return nil, &UpstreamError{Op: "exchange authorization code", Err: err}
	}

	profile, err := s.profile.Fetch(ctx, p, conf.Client(ctx, token))
	if err != nil {
		s.log.Info("fetch provider profile", zap.String("provider", provider), zap.Error(err))
		return nil, &UpstreamError{Op: "fetch profile", Err: err}
	}

	sa := &models.SocialAccount{UserID: userID, Provider: p, ProviderID: profile.ID}
	if err := s.save(ctx, sa, profile, token); err != nil {
		return nil, err
	}

	s.log.Info("account connected", zap.Int64("user_id", userID), zap.Int64("account_id", sa.ID), zap.String("provider", provider))
	return sa, nil
}

// Refresh re-reads the provider profile. An account whose token can no
// longer be refreshed is flagged unauthorized.
func (s *accountService) Refresh(ctx context.Context, userID, accountID int64) (*models.SocialAccount, error) {
	sa, err := s.sa.GetByID(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	if sa == nil {
		return nil, ErrNotFound
	}
	_, conf, err := s.oauthConfig(string(sa.Provider))
	if err != nil {
		return nil, err
	}

	token, err := s.decryptToken(sa)
	if err != nil {
		return nil, err
	}
	current, err := conf.TokenSource(ctx, token).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			sa.Authorized = false
			if uerr := s.sa.Update(ctx, sa); uerr != nil {
				s.log.Warn("flag unauthorized account", zap.Int64("account_id", sa.ID), zap.Error(uerr))
			}
		}
		return nil, &UpstreamError{Op: "refresh token", Err: err}
	}

	profile, err := s.profile.Fetch(ctx, sa.Provider, conf.Client(ctx, current))
	if err != nil {
		s.log.Info("fetch provider profile", zap.Int64("account_id", sa.ID), zap.Error(err))
		return nil, &UpstreamError{Op: "fetch profile", Err: err}
	}
	if err := s.save(ctx, sa, profile, current); err != nil {
		return nil, err
	}
	return sa, nil
}

func (s *accountService) Delete(ctx context.Context, userID, accountID int64) error {
	isExist, err := s.sa.Remove(ctx, userID, accountID)
	if err != nil {
		return err
	}
	if !isExist {
		return ErrNotFound
	}
	s.log.Info("account removed", zap.Int64("user_id", userID), zap.Int64("account_id", accountID))
	return nil
}

// save stores the profile and the encrypted token, then records today's
// audience size.
func (s *accountService) save(ctx context.Context, sa *models.SocialAccount, profile *Profile, token *oauth2.Token) error {
	access, err := utils.Encrypt([]byte(token.AccessToken), s.key)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}
	refresh := ""
	if token.RefreshToken != "" {
		if refresh, err = utils.Encrypt([]byte(token.RefreshToken), s.key); err != nil {
			return fmt.Errorf("encrypt refresh token: %w", err)
		}
	}

	sa.Name = profile.Name
	sa.Username = profile.Username
	data := profile.Data
	sa.Data = &data
	sa.AccessToken = access
	sa.RefreshToken = refresh
	sa.TokenExpiresAt = nil
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		sa.TokenExpiresAt = &expiry
	}
	sa.Authorized = true
	sa.Capabilities = sa.Provider.Capabilities()

	if profile.AvatarURL != "" {
		avatar, err := s.media.Download(ctx, sa.UserID, &transfer.DownloadMediaRequest{URL: profile.AvatarURL})
		if err != nil {
			s.log.Warn("download avatar", zap.String("provider", string(sa.Provider)), zap.Error(err))
		} else {
			sa.MediaID = &avatar.ID
			sa.Media = avatar
		}
	}

	if _, err := s.sa.Upsert(ctx, nil, sa); err != nil {
		return err
	}
	if sa.Media == nil {
		if err := s.attachMedia(ctx, sa.UserID, sa); err != nil {
			return err
		}
	}

	if data.Followers != nil {
		snapshot := &models.AudienceSnapshot{
			AccountID: sa.ID,
			Date:      s.now().UTC().Truncate(24 * time.Hour),
			Total:     int64(*data.Followers),
		}
		if err := s.rr.UpsertAudience(ctx, snapshot); err != nil {
			s.log.Warn("record audience", zap.Int64("account_id", sa.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *accountService) decryptToken(sa *models.SocialAccount) (*oauth2.Token, error) {
	access, err := utils.Decrypt(sa.AccessToken, s.key)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token: %w", err)
	}
	token := &oauth2.Token{AccessToken: access}
	if sa.RefreshToken != "" {
		if token.RefreshToken, err = utils.Decrypt(sa.RefreshToken, s.key); err != nil {
			return nil, fmt.Errorf("decrypt refresh token: %w", err)
		}
	}
	if sa.TokenExpiresAt != nil {
		token.Expiry = *sa.TokenExpiresAt
	}
	return token, nil
}

func (s *accountService) attachMedia(ctx context.Context, userID int64, accounts ...*models.SocialAccount) error {
	var ids []int64
	for _, a := range accounts {
		if a.MediaID != nil {
			ids = append(ids, *a.MediaID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	media, err := s.mr.ListByIDs(ctx, userID, uniqueIDs(ids))
	if err != nil {
		return err
	}
	byID := make(map[int64]*models.Media, len(media))
	for _, m := range media {
		byID[m.ID] = m
	}
	for _, a := range accounts {
		if a.MediaID != nil {
			a.Media = byID[*a.MediaID]
		}
	}
	return nil
}

func (s *accountService) oauthConfig(provider string) (models.Provider, *oauth2.Config, error) {
	p := models.Provider(provider)
	if !p.Valid() {
		return "", nil, ErrNotFound
	}
	conf, ok := OAuthConfig(s.cfg, p)
	if !ok {
		return "", nil, Invalid("provider", fmt.Sprintf("The %s provider is not configured.", provider))
	}
	return p, conf, nil
}

func (s *accountService) authOptions(p models.Provider, state string) []oauth2.AuthCodeOption {
	switch p {
	case models.ProviderTwitter:
		return []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(s.verifier(state))}
	case models.ProviderFacebookPage, models.ProviderFacebookGroup:
		return []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("display", "popup")}
	}
	return nil
}

// verifier is the PKCE code verifier bound to a state value.
func (s *accountService) verifier(state string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(state))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
