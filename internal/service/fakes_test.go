package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vibecreator/mixpost-api/internal/models"
	"github.com/vibecreator/mixpost-api/internal/repository"
)

// memDB is a small in-memory stand-in for the PostgreSQL repositories.
type memDB struct {
	mu       sync.Mutex
	nextID   int64
	posts    map[int64]*models.Post
	versions map[int64][]*models.PostVersion
	selected map[int64][]int64
	postTags map[int64][]int64
	accounts map[int64]*models.SocialAccount
	tags     map[int64]*models.Tag
	media    map[int64]*models.Media
	settings map[int64]*models.Settings
	keys     map[int64]*models.ApiKey
	audience []*models.AudienceSnapshot
	metrics  []*models.Metric
	idem     []*models.IdempotencyKey
}

func newMemDB() *memDB {
	return &memDB{
		posts:    map[int64]*models.Post{},
		versions: map[int64][]*models.PostVersion{},
		selected: map[int64][]int64{},
		postTags: map[int64][]int64{},
		accounts: map[int64]*models.SocialAccount{},
		tags:     map[int64]*models.Tag{},
		media:    map[int64]*models.Media{},
		settings: map[int64]*models.Settings{},
		keys:     map[int64]*models.ApiKey{},
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) addAccount(userID int64, name string, provider models.Provider) *models.SocialAccount {
	db.mu.Lock()
	defer db.mu.Unlock()
	a := &models.SocialAccount{ID: db.id(), UserID: userID, Name: name, Provider: provider, Authorized: true}
	db.accounts[a.ID] = a
	return a
}

func (db *memDB) addTag(userID int64, name, color string) *models.Tag {
	db.mu.Lock()
	defer db.mu.Unlock()
	t := &models.Tag{ID: db.id(), UserID: userID, Name: name, HexColor: color}
	db.tags[t.ID] = t
	return t
}

func (db *memDB) addMedia(userID int64, path string) *models.Media {
	db.mu.Lock()
	defer db.mu.Unlock()
	m := &models.Media{ID: db.id(), UserID: userID, Name: path, MimeType: "image/png", Path: path, URL: "https://cdn.test/" + path}
	db.media[m.ID] = m
	return m
}

type fakeTx struct{}

func (fakeTx) WithinTx(_ context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

type memPosts struct{ *memDB }

func (r memPosts) Create(_ context.Context, _ *sql.Tx, post *models.Post) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = r.id()
	post.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(post.ID) * time.Minute)
	post.UpdatedAt = post.CreatedAt
	cp := *post
	r.posts[post.ID] = &cp
	return post.ID, nil
}

func (r memPosts) GetByID(_ context.Context, userID, id int64) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || p.UserID != userID || p.DeletedAt != nil {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r memPosts) visible(userID int64) []*models.Post {
	var out []*models.Post
	for _, p := range r.posts {
		if p.UserID == userID && p.DeletedAt == nil {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}

func (r memPosts) List(_ context.Context, userID int64, f models.PostFilter, page repository.Page) ([]*models.Post, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*models.Post
	for _, p := range r.visible(userID) {
		if f.Status != nil && p.Status != *f.Status {
			continue
		}
		if f.AccountID != 0 && !containsID(r.selected[p.ID], f.AccountID) {
			continue
		}
		if f.TagID != 0 && !containsID(r.postTags[p.ID], f.TagID) {
			continue
		}
		if f.Keyword != "" && !r.hasKeyword(p.ID, f.Keyword) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.Size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r memPosts) hasKeyword(postID int64, keyword string) bool {
	for _, v := range r.versions[postID] {
		for _, b := range v.Content {
			if strings.Contains(strings.ToLower(b.Value), strings.ToLower(keyword)) {
				return true
			}
		}
	}
	return false
}

func (r memPosts) ListCalendar(_ context.Context, userID int64, f models.CalendarFilter) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Post
	for _, p := range r.visible(userID) {
		d := p.EffectiveDate()
		if d == nil || d.Before(f.From) || !d.Before(f.To) {
			continue
		}
		if f.AccountID != 0 && !containsID(r.selected[p.ID], f.AccountID) {
			continue
		}
		if f.TagID != 0 && !containsID(r.postTags[p.ID], f.TagID) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].EffectiveDate(), out[j].EffectiveDate()
		if !a.Equal(*b) {
			return a.Before(*b)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memPosts) Update(_ context.Context, _ *sql.Tx, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r memPosts) SoftDelete(_ context.Context, userID int64, ids []int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var n int64
	for _, id := range ids {
		if p, ok := r.posts[id]; ok && p.UserID == userID && p.DeletedAt == nil {
			p.DeletedAt = &now
			n++
		}
	}
	return n, nil
}

func (r memPosts) PurgeTrashed(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, p := range r.posts {
		if p.DeletedAt != nil && p.DeletedAt.Before(before) {
			delete(r.posts, id)
			n++
		}
	}
	return n, nil
}

func (r memPosts) CountByStatus(_ context.Context, userID int64) (map[models.PostStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[models.PostStatus]int64{}
	for _, p := range r.visible(userID) {
		counts[p.Status]++
	}
	return counts, nil
}

type memVersions struct{ *memDB }

func (r memVersions) Create(_ context.Context, _ *sql.Tx, v *models.PostVersion) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v.ID = r.id()
	cp := *v
	r.versions[v.PostID] = append(r.versions[v.PostID], &cp)
	return v.ID, nil
}

func (r memVersions) ListByPostIDs(_ context.Context, postIDs []int64) (map[int64][]*models.PostVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[int64][]*models.PostVersion{}
	for _, id := range postIDs {
		for _, v := range r.versions[id] {
			cp := *v
			out[id] = append(out[id], &cp)
		}
	}
	return out, nil
}

func (r memVersions) RemoveByPostID(_ context.Context, _ *sql.Tx, postID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.versions, postID)
	return nil
}

type memSelected struct{ *memDB }

func (r memSelected) Attach(_ context.Context, _ *sql.Tx, postID int64, accountIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected[postID] = append(r.selected[postID], accountIDs...)
	return nil
}

func (r memSelected) Detach(_ context.Context, _ *sql.Tx, postID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.selected, postID)
	return nil
}

func (r memSelected) ListByPostIDs(_ context.Context, postIDs []int64) (map[int64][]*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[int64][]*models.SocialAccount{}
	for _, id := range postIDs {
		for _, aid := range r.selected[id] {
			cp := *r.accounts[aid]
			out[id] = append(out[id], &cp)
		}
	}
	return out, nil
}

type memPostTags struct{ *memDB }

func (r memPostTags) Attach(_ context.Context, _ *sql.Tx, postID int64, tagIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.postTags[postID] = append(r.postTags[postID], tagIDs...)
	return nil
}

func (r memPostTags) Detach(_ context.Context, _ *sql.Tx, postID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.postTags, postID)
	return nil
}

func (r memPostTags) ListByPostIDs(_ context.Context, postIDs []int64) (map[int64][]*models.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[int64][]*models.Tag{}
	for _, id := range postIDs {
		for _, tid := range r.postTags[id] {
			if t, ok := r.tags[tid]; ok {
				cp := *t
				out[id] = append(out[id], &cp)
			}
		}
	}
	return out, nil
}

type memAccounts struct{ *memDB }

func (r memAccounts) Upsert(_ context.Context, _ *sql.Tx, sa *models.SocialAccount) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.UserID == sa.UserID && a.Provider == sa.Provider && a.ProviderID == sa.ProviderID {
			sa.ID = a.ID
		}
	}
	if sa.ID == 0 {
		sa.ID = r.id()
	}
	cp := *sa
	r.accounts[sa.ID] = &cp
	return sa.ID, nil
}

func (r memAccounts) GetByID(_ context.Context, userID, id int64) (*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || a.UserID != userID {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r memAccounts) ListByUserID(_ context.Context, userID int64) ([]*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SocialAccount
	for _, a := range r.accounts {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memAccounts) ListByIDs(_ context.Context, userID int64, ids []int64) ([]*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SocialAccount
	for _, id := range ids {
		if a, ok := r.accounts[id]; ok && a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memAccounts) Update(_ context.Context, sa *models.SocialAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sa
	r.accounts[sa.ID] = &cp
	return nil
}

func (r memAccounts) Remove(_ context.Context, userID, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || a.UserID != userID {
		return false, nil
	}
	delete(r.accounts, id)
	return true, nil
}

type memTags struct{ *memDB }

func (r memTags) Create(_ context.Context, tag *models.Tag) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tag.ID = r.id()
	cp := *tag
	r.tags[tag.ID] = &cp
	return tag.ID, nil
}

func (r memTags) GetByID(_ context.Context, userID, id int64) (*models.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tags[id]
	if !ok || t.UserID != userID {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r memTags) ListByUserID(_ context.Context, userID int64) ([]*models.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Tag
	for _, t := range r.tags {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memTags) ListByIDs(_ context.Context, userID int64, ids []int64) ([]*models.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Tag
	for _, id := range ids {
		if t, ok := r.tags[id]; ok && t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memTags) Update(_ context.Context, tag *models.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *tag
	r.tags[tag.ID] = &cp
	return nil
}

func (r memTags) Remove(_ context.Context, userID, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tags[id]
	if !ok || t.UserID != userID {
		return false, nil
	}
	delete(r.tags, id)
	return true, nil
}

type memMedia struct{ *memDB }

func (r memMedia) Create(_ context.Context, _ *sql.Tx, m *models.Media) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = r.id()
	cp := *m
	r.media[m.ID] = &cp
	return m.ID, nil
}

func (r memMedia) Find(_ context.Context, id int64) (*models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.media[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r memMedia) ListByIDs(_ context.Context, userID int64, ids []int64) ([]*models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Media
	for _, id := range ids {
		if m, ok := r.media[id]; ok && m.UserID == userID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memMedia) List(_ context.Context, userID int64, page repository.Page) ([]*models.Media, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*models.Media
	for _, m := range r.media {
		if m.UserID == userID {
			cp := *m
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := len(all)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.Size
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r memMedia) UpdateConversions(_ context.Context, id int64, conversions []models.MediaConversion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.media[id]; ok {
		m.Conversions = conversions
	}
	return nil
}

func (r memMedia) RemoveByIDs(_ context.Context, userID int64, ids []int64) ([]*models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Media
	for _, id := range ids {
		if m, ok := r.media[id]; ok && m.UserID == userID {
			out = append(out, m)
			delete(r.media, id)
		}
	}
	return out, nil
}

type memSettings struct{ *memDB }

func (r memSettings) GetByUserID(_ context.Context, userID int64) (*models.Settings, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[userID]
	if !ok {
		return nil, false, nil
	}
	cp := *s
	return &cp, true, nil
}

func (r memSettings) Upsert(_ context.Context, s *models.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.settings[s.UserID] = &cp
	return nil
}

type memKeys struct{ *memDB }

func (r memKeys) GetByHash(_ context.Context, keyHash string) (*models.ApiKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.keys {
		if k.KeyHash == keyHash {
			cp := *k
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memKeys) ListByUserID(_ context.Context, userID int64) ([]*models.ApiKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ApiKey
	for _, k := range r.keys {
		if k.UserID == userID {
			cp := *k
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memKeys) Create(_ context.Context, apiKey *models.ApiKey) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	apiKey.ID = r.id()
	cp := *apiKey
	r.keys[apiKey.ID] = &cp
	return apiKey.ID, nil
}

func (r memKeys) Touch(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if k, ok := r.keys[id]; ok {
		now := time.Now()
		k.LastUsedAt = &now
	}
	return nil
}

func (r memKeys) Remove(_ context.Context, userID, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.keys[id]
	if !ok || k.UserID != userID {
		return false, nil
	}
	delete(r.keys, id)
	return true, nil
}

type memReports struct{ *memDB }

func (r memReports) ListMetrics(_ context.Context, accountID int64, from, to time.Time) ([]*models.Metric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Metric
	for _, m := range r.metrics {
		if m.AccountID == accountID && !m.Date.Before(from) && !m.Date.After(to) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r memReports) ListAudience(_ context.Context, accountID int64, from, to time.Time) ([]*models.AudienceSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AudienceSnapshot
	for _, a := range r.audience {
		if a.AccountID == accountID && !a.Date.Before(from) && !a.Date.After(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memReports) UpsertAudience(_ context.Context, s *models.AudienceSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.audience {
		if a.AccountID == s.AccountID && a.Date.Equal(s.Date) {
			a.Total = s.Total
			return nil
		}
	}
	cp := *s
	r.audience = append(r.audience, &cp)
	return nil
}

type memIdempotency struct{ *memDB }

func (r memIdempotency) Get(_ context.Context, userID int64, key string, since time.Time) (*models.IdempotencyKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.idem {
		if k.UserID == userID && k.Key == key && !k.CreatedAt.Before(since) {
			cp := *k
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memIdempotency) Claim(_ context.Context, k *models.IdempotencyKey, staleBefore time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if k.CreatedAt.IsZero() {
		k.CreatedAt = time.Now()
	}
	cp := *k
	cp.StatusCode, cp.ResponseBody = 0, nil
	for i, existing := range r.idem {
		if existing.UserID == k.UserID && existing.Key == k.Key {
			if !existing.CreatedAt.Before(staleBefore) {
				return false, nil
			}
			r.idem[i] = &cp
			return true, nil
		}
	}
	r.idem = append(r.idem, &cp)
	return true, nil
}

func (r memIdempotency) Complete(_ context.Context, k *models.IdempotencyKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.idem {
		if existing.UserID == k.UserID && existing.Key == k.Key && existing.Pending() {
			existing.StatusCode = k.StatusCode
			existing.ResponseBody = k.ResponseBody
		}
	}
	return nil
}

func (r memIdempotency) Release(_ context.Context, userID int64, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.idem[:0]
	for _, k := range r.idem {
		if k.UserID == userID && k.Key == key && k.Pending() {
			continue
		}
		kept = append(kept, k)
	}
	r.idem = kept
	return nil
}

func (r memIdempotency) PurgeBefore(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*models.IdempotencyKey
	var n int64
	for _, k := range r.idem {
		if k.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, k)
	}
	r.idem = kept
	return n, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
