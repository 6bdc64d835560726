package repository

import (
	"strconv"
	"strings"

	"github.com/vibecreator/mixpost-api/internal/models"
)

const postColumns = `p.id, p.user_id, p.status, p.schedule_status, p.scheduled_at, p.published_at, p.created_at, p.updated_at, p.deleted_at`

// whereClause collects AND-ed conditions. A "?" in a condition is replaced by
// the next positional parameter.
type whereClause struct {
	conds []string
	args  []any
}

func (w *whereClause) add(cond string, args ...any) {
	for _, arg := range args {
		w.args = append(w.args, arg)
		cond = strings.Replace(cond, "?", "$"+strconv.Itoa(len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *whereClause) String() string {
	return strings.Join(w.conds, " AND ")
}

// next returns the placeholder for a parameter appended after the clause.
func (w *whereClause) next(arg any) string {
	w.args = append(w.args, arg)
	return "$" + strconv.Itoa(len(w.args))
}

func ownedPosts(userID int64) *whereClause {
	w := &whereClause{}
	w.add("p.user_id = ?", userID)
	w.add("p.deleted_at IS NULL")
	return w
}

func addTagAndAccount(w *whereClause, tagID, accountID int64) {
	if tagID != 0 {
		w.add("EXISTS (SELECT 1 FROM post_tags pt WHERE pt.post_id = p.id AND pt.tag_id = ?)", tagID)
	}
	if accountID != 0 {
		w.add("EXISTS (SELECT 1 FROM post_accounts pa WHERE pa.post_id = p.id AND pa.account_id = ?)", accountID)
	}
}

func postListWhere(userID int64, f models.PostFilter) *whereClause {
	w := ownedPosts(userID)
	if f.Status != nil {
		w.add("p.status = ?", int(*f.Status))
	}
	addTagAndAccount(w, f.TagID, f.AccountID)
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		w.add(`EXISTS (SELECT 1 FROM post_versions v, jsonb_array_elements(v.content) b
			WHERE v.post_id = p.id AND b->>'value' ILIKE ?)`, "%"+escapeLike(kw)+"%")
	}
	return w
}

func calendarWhere(userID int64, f models.CalendarFilter) *whereClause {
	w := ownedPosts(userID)
	w.add("COALESCE(p.scheduled_at, p.published_at) >= ?", f.From)
	w.add("COALESCE(p.scheduled_at, p.published_at) < ?", f.To)
	addTagAndAccount(w, f.TagID, f.AccountID)
	return w
}

type listQuery struct {
	list      string
	listArgs  []any
	count     string
	countArgs []any
}

func buildPostListQuery(userID int64, f models.PostFilter, page Page) listQuery {
	w := postListWhere(userID, f)
	q := listQuery{
		count:     `SELECT COUNT(*) FROM posts p WHERE ` + w.String(),
		countArgs: append([]any(nil), w.args...),
	}

	where := w.String()
	limit := w.next(page.Size)
	offset := w.next(page.Offset())
	q.list = `SELECT ` + postColumns + ` FROM posts p WHERE ` + where +
		` ORDER BY p.created_at DESC, p.id DESC LIMIT ` + limit + ` OFFSET ` + offset
	q.listArgs = w.args
	return q
}

func buildCalendarQuery(userID int64, f models.CalendarFilter) (string, []any) {
	w := calendarWhere(userID, f)
	query := `SELECT ` + postColumns + ` FROM posts p WHERE ` + w.String() +
		` ORDER BY COALESCE(p.scheduled_at, p.published_at) ASC, p.id ASC`
	return query, w.args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
