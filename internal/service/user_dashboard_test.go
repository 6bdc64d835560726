package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/models"
	"github.com/vibecreator/mixpost-api/internal/transfer"
)

type memUsers struct {
	mu    sync.Mutex
	users map[int64]*models.User
}

func (r *memUsers) GetByID(_ context.Context, id int64) (*models.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, false, nil
	}
	cp := *u
	return &cp, true, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*models.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, true, nil
		}
	}
	return nil, false, nil
}

func (r *memUsers) Create(_ context.Context, _ *sql.Tx, user *models.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = int64(len(r.users) + 1)
	cp := *user
	r.users[user.ID] = &cp
	return user.ID, nil
}

func (r *memUsers) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func TestFindOrCreateUser(t *testing.T) {
	repo := &memUsers{users: map[int64]*models.User{}}
	svc := NewUserService(zap.NewNop(), repo)

	created, err := svc.FindOrCreate(context.Background(), "  Ada@Example.com ", "")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", created.Email)
	assert.Equal(t, "ada@example.com", created.Name)

	found, err := svc.FindOrCreate(context.Background(), "ada@example.com", "Ada")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Len(t, repo.users, 1)

	_, err = svc.FindOrCreate(context.Background(), " ", "Nobody")
	assert.Contains(t, validationErrors(t, err), "email")
}

func TestUpdateUser(t *testing.T) {
	repo := &memUsers{users: map[int64]*models.User{owner: {ID: owner, Email: "ada@example.com", Name: "ada"}}}
	svc := NewUserService(zap.NewNop(), repo)

	user, err := svc.UpdateUser(context.Background(), owner, &transfer.UserRequest{Name: "  Ada Lovelace "})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", user.Name)
	assert.Equal(t, "Ada Lovelace", repo.users[owner].Name)

	_, err = svc.UpdateUser(context.Background(), owner, &transfer.UserRequest{Name: ""})
	assert.Contains(t, validationErrors(t, err), "name")

	_, err = svc.GetUserInfo(context.Background(), stranger)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDashboard(t *testing.T) {
	f := newPostFixture(t)
	for i := 0; i < 7; i++ {
		_, err := f.svc.Create(context.Background(), owner, f.request())
		require.NoError(t, err)
	}
	statuses := []models.PostStatus{
		models.PostStatusScheduled, models.PostStatusScheduled,
		models.PostStatusPublished, models.PostStatusFailed,
	}
	i := 0
	for _, p := range f.db.posts {
		if i == len(statuses) {
			break
		}
		p.Status = statuses[i]
		i++
	}
	f.db.addAccount(stranger, "Other", models.ProviderMastodon)

	accounts := NewAccountService(f.svc.cfg, zap.NewNop(), memAccounts{f.db}, memMedia{f.db}, memReports{f.db}, nil, nil)
	dashboard := NewDashboardService(zap.NewNop(), accounts, f.svc, memPosts{f.db})

	resp, err := dashboard.Dashboard(context.Background(), owner)
	require.NoError(t, err)

	assert.Len(t, resp.Accounts, 2)
	assert.Len(t, resp.RecentPosts, recentPostsLimit)
	assert.Greater(t, resp.RecentPosts[0].ID, resp.RecentPosts[1].ID)
	assert.Equal(t, int64(2), resp.ScheduledCount)
	assert.Equal(t, int64(1), resp.PublishedCount)
	assert.Equal(t, int64(1), resp.FailedCount)

	empty, err := dashboard.Dashboard(context.Background(), stranger)
	require.NoError(t, err)
	assert.Len(t, empty.Accounts, 1)
	assert.NotNil(t, empty.RecentPosts)
	assert.Empty(t, empty.RecentPosts)
	assert.Zero(t, empty.ScheduledCount)
}
