package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	config "github.com/vibecreator/mixpost-api/configs"
	"github.com/vibecreator/mixpost-api/internal/api/middleware"
	"github.com/vibecreator/mixpost-api/internal/models"
	"github.com/vibecreator/mixpost-api/internal/repository"
	"github.com/vibecreator/mixpost-api/internal/service"
	"github.com/vibecreator/mixpost-api/internal/transfer"
	"github.com/vibecreator/mixpost-api/pkg/utils"
)

const testSecret = "router-test-secret"

type fakePosts struct {
	service.PostService
	mu       sync.Mutex
	created  int
	userID   int64
	filter   models.PostFilter
	page     repository.Page
	createFn func(req *transfer.PostRequest) (*models.Post, error)
}

func (f *fakePosts) Create(_ context.Context, userID int64, req *transfer.PostRequest) (*models.Post, error) {
	f.mu.Lock()
	f.created++
	f.userID = userID
	id := int64(100 + f.created)
	createFn := f.createFn
	f.mu.Unlock()
	if createFn != nil {
		return createFn(req)
	}
	return &models.Post{ID: id, UserID: userID}, nil
}

func (f *fakePosts) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}

func (f *fakePosts) Get(_ context.Context, userID, postID int64) (*models.Post, error) {
	if postID != 1 {
		return nil, service.ErrNotFound
	}
	return &models.Post{ID: postID, UserID: userID}, nil
}

func (f *fakePosts) List(_ context.Context, userID int64, filter models.PostFilter, page repository.Page) ([]*models.Post, int, error) {
	f.userID, f.filter, f.page = userID, filter, page
	return []*models.Post{{ID: 1}, {ID: 2}}, 12, nil
}

type fakeKeys struct {
	service.ApiKeyService
	keys map[string]int64
}

func (f *fakeKeys) GetUserID(_ context.Context, apiKey string) (int64, error) {
	if id, ok := f.keys[apiKey]; ok {
		return id, nil
	}
	return 0, service.ErrUnauthorized
}

type memIdempotencyRepo struct {
	mu      sync.Mutex
	records map[string]*models.IdempotencyKey
}

func recordKey(userID int64, key string) string {
	return fmt.Sprintf("%d:%s", userID, key)
}

func (r *memIdempotencyRepo) Get(_ context.Context, userID int64, key string, since time.Time) (*models.IdempotencyKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.records[recordKey(userID, key)]
	if !ok || k.CreatedAt.Before(since) {
		return nil, nil
	}
	cp := *k
	return &cp, nil
}

func (r *memIdempotencyRepo) Claim(_ context.Context, k *models.IdempotencyKey, staleBefore time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.records[recordKey(k.UserID, k.Key)]; ok && !existing.CreatedAt.Before(staleBefore) {
		return false, nil
	}
	cp := *k
	r.records[recordKey(k.UserID, k.Key)] = &cp
	return true, nil
}

func (r *memIdempotencyRepo) Complete(_ context.Context, k *models.IdempotencyKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.records[recordKey(k.UserID, k.Key)]; ok && existing.Pending() {
		existing.StatusCode, existing.ResponseBody = k.StatusCode, k.ResponseBody
	}
	return nil
}

func (r *memIdempotencyRepo) Release(_ context.Context, userID int64, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.records[recordKey(userID, key)]; ok && existing.Pending() {
		delete(r.records, recordKey(userID, key))
	}
	return nil
}

func (r *memIdempotencyRepo) PurgeBefore(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, k := range r.records {
		if k.CreatedAt.Before(before) {
			delete(r.records, id)
			n++
		}
	}
	return n, nil
}

type fakeAccounts struct {
	service.AccountService
	state string
}

func (f *fakeAccounts) Callback(_ context.Context, provider, code, state string) (*models.SocialAccount, error) {
	f.state = state
	if code == "" {
		return nil, service.Invalid("code", "The code field is required.")
	}
	return &models.SocialAccount{ID: 3, Provider: models.Provider(provider)}, nil
}

type testServer struct {
	app   *fiber.App
	posts *fakePosts
	idem  *memIdempotencyRepo
	acc   *fakeAccounts
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.Config{SecretKey: testSecret, AppURL: "https://app.test", MaxUploadSizeMB: 1}
	ts := &testServer{
		posts: &fakePosts{},
		idem:  &memIdempotencyRepo{records: map[string]*models.IdempotencyKey{}},
		acc:   &fakeAccounts{},
	}
	system := service.NewSystemService(config.Config{
		Mastodon: config.OAuthProvider{ClientID: "id", ClientSecret: "secret"},
	}, zap.NewNop(), "test", nil)
	ts.app = NewApp(cfg, zap.NewNop(), Services{
		Posts:       ts.posts,
		Accounts:    ts.acc,
		Keys:        &fakeKeys{keys: map[string]int64{"mp_known": 9}},
		Idempotency: service.NewIdempotencyService(config.Config{IdempotencyTTL: time.Hour}, zap.NewNop(), ts.idem),
		System:      system,
	}, Options{})

	token, err := utils.GenerateToken(testSecret, "7", time.Hour)
	require.NoError(t, err)
	ts.token = token
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.token)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestUnauthenticatedRequest(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/api/posts", "", map[string]string{"Authorization": ""})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Unauthenticated."}`, string(body))
}

func TestApiKeyAuthentication(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/api/posts", "", map[string]string{"Authorization": "Bearer mp_known"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(9), ts.posts.userID)

	resp, _ = ts.do(t, http.MethodGet, "/api/posts?api_key=mp_known", "", map[string]string{"Authorization": ""})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/posts", "", map[string]string{"Authorization": "Bearer mp_unknown"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreatePost(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodPost, "/api/posts", `{"accounts":[1],"versions":[]}`, nil)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, int64(7), ts.posts.userID)
	var post models.Post
	require.NoError(t, json.Unmarshal(body, &post))
	assert.Equal(t, int64(101), post.ID)
}

func TestCreatePostValidationError(t *testing.T) {
	ts := newTestServer(t)
	ts.posts.createFn = func(*transfer.PostRequest) (*models.Post, error) {
		return nil, service.Invalid("accounts", "The accounts field is required.")
	}

	resp, body := ts.do(t, http.MethodPost, "/api/posts", `{}`, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Validation failed","errors":{"accounts":["The accounts field is required."]}}`, string(body))
}

func TestMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodPost, "/api/posts", `{"accounts":`, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Zero(t, ts.posts.created)
}

func TestGetPostNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/api/posts/2", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Not found."}`, string(body))

	resp, _ = ts.do(t, http.MethodGet, "/api/posts/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/posts/1", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListPostsFilters(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/api/posts?status=failed&tag_id=4&keyword=+launch+&page=2&per_page=5", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NotNil(t, ts.posts.filter.Status)
	assert.Equal(t, models.PostStatusFailed, *ts.posts.filter.Status)
	assert.Equal(t, int64(4), ts.posts.filter.TagID)
	assert.Equal(t, "launch", ts.posts.filter.Keyword)
	assert.Equal(t, repository.Page{Number: 2, Size: 5}, ts.posts.page)

	var page transfer.Paginated[models.Post]
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Equal(t, 12, page.Meta.Total)
	assert.Equal(t, 3, page.Meta.LastPage)
	require.NotNil(t, page.Links.Next)
	assert.Contains(t, *page.Links.Next, "https://app.test/api/posts?")
	assert.Contains(t, *page.Links.Next, "page=3")
	assert.Contains(t, *page.Links.Next, "status=failed")
}

func TestListPostsRejectsMalformedIDFilters(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/api/posts?tag_id=abc&account_id=-3&status=archived", "", nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var out struct {
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Contains(t, out.Errors, "tag_id")
	assert.Contains(t, out.Errors, "account_id")
	assert.Contains(t, out.Errors, "status")
	assert.Zero(t, ts.posts.page.Number)
}

func TestListPostsInvalidStatus(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/api/posts?status=archived", "", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestIdempotentCreateIsReplayed(t *testing.T) {
	ts := newTestServer(t)
	headers := map[string]string{service.IdempotencyHeader: "abc"}

	first, firstBody := ts.do(t, http.MethodPost, "/api/posts", `{}`, headers)
	second, secondBody := ts.do(t, http.MethodPost, "/api/posts", `{}`, headers)

	assert.Equal(t, http.StatusCreated, first.StatusCode)
	assert.Equal(t, http.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get(middleware.ReplayedHeader))
	assert.Equal(t, string(firstBody), string(secondBody))
	assert.Equal(t, 1, ts.posts.created)
}

func TestIdempotencyFailuresAreNotStored(t *testing.T) {
	ts := newTestServer(t)
	ts.posts.createFn = func(*transfer.PostRequest) (*models.Post, error) {
		return nil, service.Invalid("accounts", "The accounts field is required.")
	}
	headers := map[string]string{service.IdempotencyHeader: "abc"}

	ts.do(t, http.MethodPost, "/api/posts", `{}`, headers)
	ts.do(t, http.MethodPost, "/api/posts", `{}`, headers)

	assert.Equal(t, 2, ts.posts.created)
	assert.Empty(t, ts.idem.records)
}

func TestConcurrentRequestsWithOneIdempotencyKey(t *testing.T) {
	ts := newTestServer(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	ts.posts.createFn = func(*transfer.PostRequest) (*models.Post, error) {
		close(entered)
		<-release
		return &models.Post{ID: 101, UserID: 7}, nil
	}
	headers := map[string]string{service.IdempotencyHeader: "same-key"}

	firstStatus := make(chan int, 1)
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+ts.token)
		req.Header.Set(service.IdempotencyHeader, "same-key")
		resp, err := ts.app.Test(req, -1)
		if err != nil {
			firstStatus <- 0
			return
		}
		resp.Body.Close()
		firstStatus <- resp.StatusCode
	}()
	<-entered

	second, body := ts.do(t, http.MethodPost, "/api/posts", `{}`, headers)
	assert.Equal(t, http.StatusConflict, second.StatusCode)
	assert.Contains(t, string(body), "still in progress")

	close(release)
	assert.Equal(t, http.StatusCreated, <-firstStatus)

	third, _ := ts.do(t, http.MethodPost, "/api/posts", `{}`, headers)
	assert.Equal(t, http.StatusCreated, third.StatusCode)
	assert.Equal(t, "true", third.Header.Get(middleware.ReplayedHeader))
	assert.Equal(t, 1, ts.posts.createdCount())
}

func TestAccountCallbackIsPublic(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/api/accounts/callback/mastodon?code=xyz&state=signed", "", map[string]string{"Authorization": ""})

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "signed", ts.acc.state)
}

func TestAccountCallbackDenied(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/api/accounts/callback/mastodon?error=access_denied", "", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Empty(t, ts.acc.state)
}

func TestPostResponseRendersVersionMedia(t *testing.T) {
	ts := newTestServer(t)
	ts.posts.createFn = func(*transfer.PostRequest) (*models.Post, error) {
		return &models.Post{ID: 5, Versions: []*models.PostVersion{{
			ID:         6,
			IsOriginal: true,
			Media: []*models.Media{{
				ID: 3, MimeType: "image/png", Disk: "r2", Path: "media/x.png", URL: "https://cdn/x.png", Size: 10,
				Conversions: []models.MediaConversion{{Name: models.ConversionThumb, URL: "https://cdn/x-thumb.jpg"}},
			}},
		}}}, nil
	}

	resp, body := ts.do(t, http.MethodPost, "/api/posts", `{}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var post struct {
		Versions []struct {
			Media []map[string]any `json:"media"`
		} `json:"versions"`
	}
	require.NoError(t, json.Unmarshal(body, &post))
	require.Len(t, post.Versions, 1)
	require.Len(t, post.Versions[0].Media, 1)
	media := post.Versions[0].Media[0]
	assert.Equal(t, "image", media["type"])
	assert.Equal(t, "https://cdn/x-thumb.jpg", media["display_url"])
	assert.Equal(t, "10.00 B", media["size_readable"])
	assert.NotContains(t, media, "path")
	assert.NotContains(t, media, "disk")
}

func TestListServices(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/api/services", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var services []struct {
		Name   string `json:"name"`
		Group  string `json:"group"`
		Active bool   `json:"active"`
	}
	require.NoError(t, json.Unmarshal(body, &services))
	require.Len(t, services, 4)
	for _, svc := range services {
		assert.Equal(t, svc.Name == "mastodon", svc.Active, svc.Name)
	}
}

func TestSystemStatusIncludesTechnical(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/api/system/status", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Contains(t, status, "technical")
	assert.Contains(t, string(status["technical"]), `"num_cpu"`)
	assert.Contains(t, string(status["technical"]), `"disk_usage":null`)
}
