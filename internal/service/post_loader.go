package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/vibecreator/mixpost-api/internal/models"
	"github.com/vibecreator/mixpost-api/internal/repository"
)

// postLoader fills versions (with media), accounts and tags of a page of
// posts in a fixed number of queries.
type postLoader struct {
	versions repository.PostVersionRepository
	selected repository.SelectedAccountRepository
	postTags repository.PostTagRepository
	media    repository.MediaRepository
}

func (l *postLoader) load(ctx context.Context, userID int64, posts ...*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	var (
		versions map[int64][]*models.PostVersion
		accounts map[int64][]*models.SocialAccount
		tags     map[int64][]*models.Tag
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		versions, err = l.versions.ListByPostIDs(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		accounts, err = l.selected.ListByPostIDs(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		tags, err = l.postTags.ListByPostIDs(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	var mediaIDs []int64
	for _, p := range posts {
		p.Versions = orEmpty(versions[p.ID])
		p.Accounts = orEmpty(accounts[p.ID])
		p.Tags = orEmpty(tags[p.ID])
		for _, v := range p.Versions {
			mediaIDs = append(mediaIDs, v.MediaIDs...)
		}
		for _, a := range p.Accounts {
			if a.MediaID != nil {
				mediaIDs = append(mediaIDs, *a.MediaID)
			}
		}
	}

	byID := make(map[int64]*models.Media)
	if mediaIDs = uniqueIDs(mediaIDs); len(mediaIDs) > 0 {
		media, err := l.media.ListByIDs(ctx, userID, mediaIDs)
		if err != nil {
			return err
		}
		for _, m := range media {
			byID[m.ID] = m
		}
	}

	for _, p := range posts {
		for _, v := range p.Versions {
			v.Media = make([]*models.Media, 0, len(v.MediaIDs))
			for _, id := range v.MediaIDs {
				if m, ok := byID[id]; ok {
					v.Media = append(v.Media, m)
				}
			}
		}
		for _, a := range p.Accounts {
			if a.MediaID != nil {
				a.Media = byID[*a.MediaID]
			}
		}
	}
	return nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
