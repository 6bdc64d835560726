package service

import (
	"context"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/calendar"
	"github.com/vibecreator/mixpost-api/internal/models"
	"github.com/vibecreator/mixpost-api/internal/repository"
	"github.com/vibecreator/mixpost-api/internal/transfer"
)

const previewLength = 100

type CalendarService interface {
	Calendar(ctx context.Context, userID int64, req *transfer.CalendarRequest) (*transfer.CalendarResponse, error)
}

type calendarService struct {
	log    *zap.Logger
	pr     repository.PostRepository
	sr     repository.SettingsRepository
	loader *postLoader
	policy *bluemonday.Policy
	now    func() time.Time
}

func NewCalendarService(
	log *zap.Logger,
	pr repository.PostRepository,
	pv repository.PostVersionRepository,
	sa repository.SelectedAccountRepository,
	pt repository.PostTagRepository,
	mr repository.MediaRepository,
	sr repository.SettingsRepository) CalendarService {
	return &calendarService{
		log:    log,
		pr:     pr,
		sr:     sr,
		loader: &postLoader{versions: pv, selected: sa, postTags: pt, media: mr},
		policy: bluemonday.StrictPolicy(),
		now:    time.Now,
	}
}

// Calendar returns every post whose effective date falls inside the grid
// covering req.Date, ordered by effective date. With req.Grid the day cells
// are included as well.
func (s *calendarService) Calendar(ctx context.Context, userID int64, req *transfer.CalendarRequest) (*transfer.CalendarResponse, error) {
	settings, err := userSettings(ctx, s.sr, userID)
	if err != nil {
		return nil, err
	}
	loc := settings.Location()
	opts := calendar.Options{
		Location:     loc,
		FirstWeekday: time.Weekday(settings.WeekStartsOn),
		Now:          s.now(),
	}

	view, err := calendar.ParseViewType(req.Type)
	if err != nil {
		return nil, Invalid("type", "The type must be month or week.")
	}

	ref := s.now().In(loc)
	if req.Date != "" {
		if ref, err = calendar.ParseDate(req.Date, loc); err != nil {
			return nil, Invalid("date", "The date does not match the format Y-m-d.")
		}
	}

	from, to := calendar.Window(ref, view, opts)
	posts, err := s.pr.ListCalendar(ctx, userID, models.CalendarFilter{
		From:      from,
		To:        to,
		TagID:     req.TagID,
		AccountID: req.AccountID,
	})
	if err != nil {
		return nil, err
	}
	if err := s.loader.load(ctx, userID, posts...); err != nil {
		return nil, err
	}

	items := make([]transfer.CalendarItem, 0, len(posts))
	for _, p := range posts {
		items = append(items, s.item(p))
	}

	resp := &transfer.CalendarResponse{
		Posts: items,
		Period: transfer.CalendarPeriod{
			Start: from.Format(calendar.DateLayout),
			End:   calendar.AddDays(to, -1).Format(calendar.DateLayout),
			Type:  string(view),
		},
	}
	if req.Grid {
		for _, d := range calendar.BuildGrid(ref, view, items, opts) {
			resp.Days = append(resp.Days, transfer.CalendarDay{
				Date:           d.Date.Format(calendar.DateLayout),
				IsCurrentMonth: d.IsCurrentMonth,
				IsToday:        d.IsToday,
				Posts:          d.Posts,
			})
		}
	}
	return resp, nil
}

func (s *calendarService) item(p *models.Post) transfer.CalendarItem {
	item := transfer.CalendarItem{
		ID:          p.ID,
		Status:      p.Status,
		ScheduledAt: p.ScheduledAt,
		PublishedAt: p.PublishedAt,
		Accounts:    make([]transfer.CalendarAccount, 0, len(p.Accounts)),
		Tags:        make([]transfer.CalendarTag, 0, len(p.Tags)),
	}
	if v := p.OriginalVersion(); v != nil {
		item.Content = s.preview(v.Text())
	}
	for _, a := range p.Accounts {
		ca := transfer.CalendarAccount{ID: a.ID, Name: a.Name, Provider: a.Provider}
		if a.Media != nil {
			ca.Image = &a.Media.URL
		}
		item.Accounts = append(item.Accounts, ca)
	}
	for _, t := range p.Tags {
		item.Tags = append(item.Tags, transfer.CalendarTag{ID: t.ID, Name: t.Name, HexColor: t.HexColor})
	}
	return item
}

// preview strips markup and cuts the text to previewLength runes.
func (s *calendarService) preview(text string) string {
	plain := html.UnescapeString(s.policy.Sanitize(text))
	plain = strings.Join(strings.Fields(plain), " ")
	if r := []rune(plain); len(r) > previewLength {
		return string(r[:previewLength])
	}
	return plain
}
