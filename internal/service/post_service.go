package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	config "github.com/vibecreator/mixpost-api/configs"
	"github.com/vibecreator/mixpost-api/internal/calendar"
	"github.com/vibecreator/mixpost-api/internal/models"
	"github.com/vibecreator/mixpost-api/internal/repository"
	"github.com/vibecreator/mixpost-api/internal/transfer"
)

type PostService interface {
	Create(ctx context.Context, userID int64, req *transfer.PostRequest) (*models.Post, error)
	Get(ctx context.Context, userID, postID int64) (*models.Post, error)
	Update(ctx context.Context, userID, postID int64, req *transfer.PostRequest) (*models.Post, error)
	Schedule(ctx context.Context, userID, postID int64, req *transfer.ScheduleRequest) (*models.Post, error)
	Retry(ctx context.Context, userID, postID int64, req *transfer.ScheduleRequest) (*models.Post, error)
	Duplicate(ctx context.Context, userID, postID int64) (*models.Post, error)
	Remove(ctx context.Context, userID, postID int64) error
	RemoveMany(ctx context.Context, userID int64, postIDs []int64) (int64, error)
	List(ctx context.Context, userID int64, f models.PostFilter, page repository.Page) ([]*models.Post, int, error)
}

type postService struct {
	cfg    config.Config
	log    *zap.Logger
	tx     repository.Transactor
	pr     repository.PostRepository
	pv     repository.PostVersionRepository
	sa     repository.SelectedAccountRepository
	pt     repository.PostTagRepository
	ac     repository.SocialAccountRepository
	tr     repository.TagRepository
	mr     repository.MediaRepository
	sr     repository.SettingsRepository
	loader *postLoader
	now    func() time.Time
}

func NewPostService(
	cfg config.Config,
	log *zap.Logger,
	tx repository.Transactor,
	pr repository.PostRepository,
	pv repository.PostVersionRepository,
	sa repository.SelectedAccountRepository,
	pt repository.PostTagRepository,
	ac repository.SocialAccountRepository,
	tr repository.TagRepository,
	mr repository.MediaRepository,
	sr repository.SettingsRepository) PostService {
	return &postService{
		cfg:    cfg,
		log:    log,
		tx:     tx,
		pr:     pr,
		pv:     pv,
		sa:     sa,
		pt:     pt,
		ac:     ac,
		tr:     tr,
		mr:     mr,
		sr:     sr,
		loader: &postLoader{versions: pv, selected: sa, postTags: pt, media: mr},
		now:    time.Now,
	}
}

// postInput is a validated create/update request.
type postInput struct {
	accounts    []int64
	tags        []int64
	versions    []*models.PostVersion
	scheduledAt *time.Time
}

func (s *postService) Create(ctx context.Context, userID int64, req *transfer.PostRequest) (*models.Post, error) {
	in, err := s.validate(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:         userID,
		Status:         models.PostStatusDraft,
		ScheduleStatus: models.ScheduleStatusPending,
		ScheduledAt:    in.scheduledAt,
	}
	if in.scheduledAt != nil {
		post.Status = models.PostStatusScheduled
	}

	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		postID, err := s.pr.Create(ctx, tx, post)
		if err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		return s.attach(ctx, tx, postID, in)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("post created", zap.Int64("post_id", post.ID), zap.Int64("user_id", userID), zap.Stringer("status", post.Status))
	return s.Get(ctx, userID, post.ID)
}

func (s *postService) Get(ctx context.Context, userID, postID int64) (*models.Post, error) {
	post, err := s.find(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if err := s.loader.load(ctx, userID, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Update replaces the whole version set and the account and tag attachments.
// The schedule is only touched when a date and time are given.
func (s *postService) Update(ctx context.Context, userID, postID int64, req *transfer.PostRequest) (*models.Post, error) {
	post, err := s.find(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	in, err := s.validate(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	if in.scheduledAt != nil {
		post.ScheduledAt = in.scheduledAt
		post.Status = models.PostStatusScheduled
	}

	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.pr.Update(ctx, tx, post); err != nil {
			return fmt.Errorf("update post: %w", err)
		}
		if err := s.pv.RemoveByPostID(ctx, tx, post.ID); err != nil {
			return fmt.Errorf("remove versions: %w", err)
		}
		if err := s.sa.Detach(ctx, tx, post.ID); err != nil {
			return fmt.Errorf("detach accounts: %w", err)
		}
		if err := s.pt.Detach(ctx, tx, post.ID); err != nil {
			return fmt.Errorf("detach tags: %w", err)
		}
		return s.attach(ctx, tx, post.ID, in)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID, post.ID)
}

func (s *postService) Schedule(ctx context.Context, userID, postID int64, req *transfer.ScheduleRequest) (*models.Post, error) {
	post, err := s.find(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	at, err := s.parseScheduledAt(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	post.Status = models.PostStatusScheduled
	post.ScheduledAt = &at
	if err := s.pr.Update(ctx, nil, post); err != nil {
		return nil, fmt.Errorf("schedule post: %w", err)
	}

	s.log.Info("post scheduled", zap.Int64("post_id", post.ID), zap.Time("scheduled_at", at))
	return s.Get(ctx, userID, post.ID)
}

// Retry reschedules a failed post. The status moves straight to scheduled;
// it never goes back to draft.
func (s *postService) Retry(ctx context.Context, userID, postID int64, req *transfer.ScheduleRequest) (*models.Post, error) {
	post, err := s.find(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusFailed {
		return nil, Invalid("status", "Only failed posts can be retried.")
	}
	at, err := s.parseScheduledAt(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	post.Status = models.PostStatusScheduled
	post.ScheduledAt = &at
	if s.cfg.RetryResetsScheduleStatus {
		post.ScheduleStatus = models.ScheduleStatusPending
	}
	if err := s.pr.Update(ctx, nil, post); err != nil {
		return nil, fmt.Errorf("retry post: %w", err)
	}

	s.log.Info("post retried", zap.Int64("post_id", post.ID), zap.Time("scheduled_at", at), zap.Stringer("schedule_status", post.ScheduleStatus))
	return s.Get(ctx, userID, post.ID)
}

// Duplicate clones a post into a new draft. Media rows are shared, only the
// attachments are copied.
func (s *postService) Duplicate(ctx context.Context, userID, postID int64) (*models.Post, error) {
	src, err := s.Get(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	in := &postInput{}
	for _, a := range src.Accounts {
		in.accounts = append(in.accounts, a.ID)
	}
	for _, t := range src.Tags {
		in.tags = append(in.tags, t.ID)
	}
	for _, v := range src.Versions {
		content := make([]models.ContentBlock, len(v.Content))
		copy(content, v.Content)
		mediaIDs := make([]int64, len(v.MediaIDs))
		copy(mediaIDs, v.MediaIDs)
		in.versions = append(in.versions, &models.PostVersion{
			AccountID:  v.AccountID,
			IsOriginal: v.IsOriginal,
			Content:    content,
			MediaIDs:   mediaIDs,
		})
	}

	post := &models.Post{
		UserID:         userID,
		Status:         models.PostStatusDraft,
		ScheduleStatus: models.ScheduleStatusPending,
	}
	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		newID, err := s.pr.Create(ctx, tx, post)
		if err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		return s.attach(ctx, tx, newID, in)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("post duplicated", zap.Int64("source_id", src.ID), zap.Int64("post_id", post.ID))
	return s.Get(ctx, userID, post.ID)
}

func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	n, err := s.pr.SoftDelete(ctx, userID, []int64{postID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveMany soft-deletes the caller's posts among postIDs; ids owned by
// someone else are ignored.
func (s *postService) RemoveMany(ctx context.Context, userID int64, postIDs []int64) (int64, error) {
	ids := uniqueIDs(postIDs)
	if len(ids) == 0 {
		return 0, Invalid("posts", "The posts field is required.")
	}
	return s.pr.SoftDelete(ctx, userID, ids)
}

func (s *postService) List(ctx context.Context, userID int64, f models.PostFilter, page repository.Page) ([]*models.Post, int, error) {
	posts, total, err := s.pr.List(ctx, userID, f, page)
	if err != nil {
		return nil, 0, err
	}
	if err := s.loader.load(ctx, userID, posts...); err != nil {
		return nil, 0, err
	}
	return orEmpty(posts), total, nil
}

func (s *postService) find(ctx context.Context, userID, postID int64) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}
	return post, nil
}

func (s *postService) attach(ctx context.Context, tx *sql.Tx, postID int64, in *postInput) error {
	for _, v := range in.versions {
		v.PostID = postID
		if _, err := s.pv.Create(ctx, tx, v); err != nil {
			return fmt.Errorf("create version: %w", err)
		}
	}
	if err := s.sa.Attach(ctx, tx, postID, in.accounts); err != nil {
		return fmt.Errorf("attach accounts: %w", err)
	}
	if err := s.pt.Attach(ctx, tx, postID, in.tags); err != nil {
		return fmt.Errorf("attach tags: %w", err)
	}
	return nil
}

func (s *postService) parseScheduledAt(ctx context.Context, userID int64, req *transfer.ScheduleRequest) (time.Time, error) {
	if req == nil || req.ScheduledAt == "" {
		return time.Time{}, Invalid("scheduled_at", "The scheduled at field is required.")
	}
	settings, err := userSettings(ctx, s.sr, userID)
	if err != nil {
		return time.Time{}, err
	}
	at, err := calendar.ParseTimestamp(req.ScheduledAt, settings.Location())
	if err != nil {
		return time.Time{}, Invalid("scheduled_at", "The scheduled at is not a valid date.")
	}
	if !at.After(s.now()) {
		return time.Time{}, Invalid("scheduled_at", "The scheduled at must be a date after now.")
	}
	return at.UTC(), nil
}

func (s *postService) validate(ctx context.Context, userID int64, req *transfer.PostRequest) (*postInput, error) {
	if req == nil {
		req = &transfer.PostRequest{}
	}
	v := &ValidationError{}
	in := &postInput{accounts: uniqueIDs(req.Accounts), tags: uniqueIDs(req.Tags)}

	if len(req.Accounts) == 0 {
		v.Add("accounts", "The accounts field is required.")
	}
	if len(in.accounts) > 0 {
		owned, err := s.ac.ListByIDs(ctx, userID, in.accounts)
		if err != nil {
			return nil, err
		}
		known := make(map[int64]bool, len(owned))
		for _, a := range owned {
			known[a.ID] = true
		}
		for i, id := range req.Accounts {
			if !known[id] {
				v.Add(fmt.Sprintf("accounts.%d", i), "The selected account is invalid.")
			}
		}
	}

	if len(req.Versions) == 0 {
		v.Add("versions", "The versions field is required.")
	}
	selected := make(map[int64]bool, len(in.accounts))
	for _, id := range in.accounts {
		selected[id] = true
	}
	seen := make(map[int64]bool, len(req.Versions))
	originals := 0
	var mediaIDs []int64
	for i, ver := range req.Versions {
		field := fmt.Sprintf("versions.%d", i)
		switch {
		case !selected[ver.AccountID]:
			v.Add(field+".account_id", "The account must be one of the selected accounts.")
		case seen[ver.AccountID]:
			v.Add(field+".account_id", "Only one version per account is allowed.")
		}
		seen[ver.AccountID] = true

		if ver.IsOriginal {
			originals++
		}
		if len(ver.Content) == 0 {
			v.Add(field+".content", "The content field is required.")
		}
		for j, block := range ver.Content {
			if block.Type == "" {
				v.Add(fmt.Sprintf("%s.content.%d.type", field, j), "The type field is required.")
			}
		}
		mediaIDs = append(mediaIDs, ver.Media...)

		in.versions = append(in.versions, &models.PostVersion{
			AccountID:  ver.AccountID,
			IsOriginal: ver.IsOriginal,
			Content:    ver.Content,
			MediaIDs:   uniqueIDs(ver.Media),
		})
	}
	if originals > 1 {
		v.Add("versions", "Only one version can be the original.")
	}
	if originals == 0 && len(in.versions) > 0 {
		in.versions[0].IsOriginal = true
	}

	if mediaIDs = uniqueIDs(mediaIDs); len(mediaIDs) > 0 {
		owned, err := s.mr.ListByIDs(ctx, userID, mediaIDs)
		if err != nil {
			return nil, err
		}
		known := make(map[int64]bool, len(owned))
		for _, m := range owned {
			known[m.ID] = true
		}
		for i, ver := range req.Versions {
			for _, id := range ver.Media {
				if !known[id] {
					v.Add(fmt.Sprintf("versions.%d.media", i), "The selected media is invalid.")
					break
				}
			}
		}
	}

	if len(in.tags) > 0 {
		owned, err := s.tr.ListByIDs(ctx, userID, in.tags)
		if err != nil {
			return nil, err
		}
		known := make(map[int64]bool, len(owned))
		for _, t := range owned {
			known[t.ID] = true
		}
		for i, id := range req.Tags {
			if !known[id] {
				v.Add(fmt.Sprintf("tags.%d", i), "The selected tag is invalid.")
			}
		}
	}

	if err := s.validateSchedule(ctx, userID, req, v, in); err != nil {
		return nil, err
	}

	if err := v.Err(); err != nil {
		return nil, err
	}
	return in, nil
}

func (s *postService) validateSchedule(ctx context.Context, userID int64, req *transfer.PostRequest, v *ValidationError, in *postInput) error {
	switch {
	case req.Date == "" && req.Time == "":
		return nil
	case req.Date == "":
		v.Add("date", "The date field is required when time is present.")
		return nil
	case req.Time == "":
		v.Add("time", "The time field is required when date is present.")
		return nil
	}

	settings, err := userSettings(ctx, s.sr, userID)
	if err != nil {
		return err
	}
	loc := settings.Location()

	valid := true
	if _, err := calendar.ParseDate(req.Date, loc); err != nil {
		v.Add("date", "The date does not match the format Y-m-d.")
		valid = false
	}
	if _, err := time.Parse(calendar.ClockLayout, req.Time); err != nil {
		v.Add("time", "The time does not match the format H:i.")
		valid = false
	}
	if !valid {
		return nil
	}

	at, err := calendar.CombineDateTime(req.Date, req.Time, loc)
	if err != nil {
		v.Add("date", "The date is not a valid date.")
		return nil
	}
	if !at.After(s.now()) {
		v.Add("date", "The scheduled date must be in the future.")
		return nil
	}
	at = at.UTC()
	in.scheduledAt = &at
	return nil
}
