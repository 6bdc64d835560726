//go:build integration

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/models"
	"github.com/vibecreator/mixpost-api/migrations"
)

// Run with: POSTGRES_TEST_URI=postgres://... go test -tags integration ./internal/repository/
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	uri := os.Getenv("POSTGRES_TEST_URI")
	if uri == "" {
		t.Skip("POSTGRES_TEST_URI not set")
	}
	db, err := sql.Open("postgres", uri)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Apply(context.Background(), db))
	return db
}

type keywordFixture struct {
	posts    PostRepository
	versions PostVersionRepository
	userID   int64
	account  int64
}

func newKeywordFixture(t *testing.T, db *sql.DB, log *zap.Logger) keywordFixture {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	userID, err := NewUserRepository(db, log).Create(ctx, nil, &models.User{
		Email: fmt.Sprintf("keyword-%d@example.com", suffix),
		Name:  "Keyword",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Exec(`DELETE FROM users WHERE id = $1`, userID) })

	accountID, err := NewSocialAccountRepository(db, log).Upsert(ctx, nil, &models.SocialAccount{
		UserID:     userID,
		Name:       "Keyword",
		Provider:   models.ProviderMastodon,
		ProviderID: fmt.Sprintf("%d", suffix),
	})
	require.NoError(t, err)

	return keywordFixture{
		posts:    NewPostRepository(db, log),
		versions: NewPostVersionRepository(db, log),
		userID:   userID,
		account:  accountID,
	}
}

func (f keywordFixture) post(t *testing.T, texts ...string) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := f.posts.Create(ctx, nil, &models.Post{UserID: f.userID, Status: models.PostStatusDraft})
	require.NoError(t, err)
	for i, text := range texts {
		_, err := f.versions.Create(ctx, nil, &models.PostVersion{
			PostID:     id,
			AccountID:  f.account,
			IsOriginal: i == 0,
			Content:    []models.ContentBlock{{Type: models.ContentTypeText, Value: text}},
		})
		require.NoError(t, err)
	}
	return id
}

func listIDs(t *testing.T, repo PostRepository, userID int64, filter models.PostFilter) []int64 {
	t.Helper()
	posts, total, err := repo.List(context.Background(), userID, filter, Page{Number: 1, Size: 50})
	require.NoError(t, err)
	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, len(ids), total)
	return ids
}

func TestPostListKeywordAgainstPostgres(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()
	f := newKeywordFixture(t, db, log)
	other := newKeywordFixture(t, db, log)

	launch := f.post(t, "Launch day is here")
	laterVersion := f.post(t, "Morning update", "Counting down to the LAUNCH")
	f.post(t, "Weekly recap")
	deleted := f.post(t, "launch retro")
	other.post(t, "Our launch too")

	n, err := f.posts.SoftDelete(context.Background(), f.userID, []int64{deleted})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	ids := listIDs(t, f.posts, f.userID, models.PostFilter{Keyword: "launch"})
	assert.ElementsMatch(t, []int64{launch, laterVersion}, ids)

	ids = listIDs(t, f.posts, f.userID, models.PostFilter{Keyword: "  DAY "})
	assert.Equal(t, []int64{launch}, ids)

	assert.Empty(t, listIDs(t, f.posts, f.userID, models.PostFilter{Keyword: "100%"}))
	assert.Len(t, listIDs(t, f.posts, f.userID, models.PostFilter{}), 3)
}

func TestPostListKeywordTreatsWildcardsLiterally(t *testing.T) {
	db := openTestDB(t)
	f := newKeywordFixture(t, db, zap.NewNop())

	percent := f.post(t, "Save 50% today")
	f.post(t, "Save 500 today")

	ids := listIDs(t, f.posts, f.userID, models.PostFilter{Keyword: "50%"})
	assert.Equal(t, []int64{percent}, ids)

	assert.Empty(t, listIDs(t, f.posts, f.userID, models.PostFilter{Keyword: "Save_5"}))
}
