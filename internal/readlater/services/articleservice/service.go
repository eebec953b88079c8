package articleservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Leopold1975/readlater/internal/pkg/inflight"
	"github.com/Leopold1975/readlater/internal/readlater/api/client"
	"github.com/Leopold1975/readlater/internal/readlater/domain/models"
	"github.com/Leopold1975/readlater/internal/readlater/session"
	"github.com/Leopold1975/readlater/pkg/logger"
	"golang.org/x/sync/singleflight"
)

const (
	MsgSessionExpired = "Your session has expired. Please log in again."
	MsgArticleGone    = "Article no longer exists."
	MsgTagGone        = "Tag is no longer on this article."

	msgFetchFailed  = "Failed to fetch articles."
	msgSaveFailed   = "Failed to add article. Please check the URL and try again."
	msgDeleteFailed = "Failed to delete article."
	msgTagFailed    = "Failed to add tag."
	msgUntagFailed  = "Failed to remove tag."
	msgViewFailed   = "Failed to fetch article details."
	msgSearchFailed = "Search failed."
)

type Client interface {
	ListArticles(ctx context.Context, sess *session.Session) ([]models.Article, error)
	GetArticle(ctx context.Context, sess *session.Session, id int) (models.Article, error)
	CreateArticle(ctx context.Context, sess *session.Session, rawURL string) (models.Article, error)
	DeleteArticle(ctx context.Context, sess *session.Session, id int) error
	AddTag(ctx context.Context, sess *session.Session, articleID int, name string) error
	RemoveTag(ctx context.Context, sess *session.Session, articleID, tagID int) error
	Search(ctx context.Context, sess *session.Session, query string, kind models.SearchKind) ([]models.Article, error)
}

// Cache holds article details per owner, so one cache can serve several
// accounts.
type Cache interface {
	GetArticle(ctx context.Context, userID, id int) (models.Article, error)
	SetArticle(ctx context.Context, userID int, a models.Article) error
	DeleteArticle(ctx context.Context, userID, id int) error
	Purge(ctx context.Context) error
}

// Auth is notified when the server rejects the credential.
type Auth interface {
	Expire(ctx context.Context)
}

type SearchQuery struct {
	Query string            `json:"query"`
	Kind  models.SearchKind `json:"kind"`
}

// State is what a front end renders. Search is non-nil while results are
// shown instead of the full list.
type State struct {
	Articles  []models.Article `json:"articles"`
	Results   []models.Article `json:"results,omitempty"`
	Search    *SearchQuery     `json:"search,omitempty"`
	Selected  *models.Article  `json:"selected,omitempty"`
	URLInput  string           `json:"urlInput,omitempty"`
	TagInputs map[int]string   `json:"tagInputs,omitempty"`
	Err       string           `json:"error,omitempty"`
	Busy      []string         `json:"busy,omitempty"`
	Loaded    bool             `json:"loaded"`
}

// Visible returns the list currently on screen.
func (st State) Visible() []models.Article {
	if st.Search != nil {
		return st.Results
	}

	return st.Articles
}

type ArticleService struct {
	client Client
	sess   *session.Session
	cache  Cache
	auth   Auth
	lg     logger.Logger

	refreshGroup singleflight.Group
	guard        *inflight.Guard

	mu    sync.RWMutex
	state State
}

func New(c Client, sess *session.Session, cache Cache, auth Auth, lg logger.Logger) *ArticleService {
	return &ArticleService{
		client: c,
		sess:   sess,
		cache:  cache,
		auth:   auth,
		lg:     lg,
		guard:  inflight.New(),
		state:  State{TagInputs: make(map[int]string)}, //nolint:exhaustruct
	}
}

func (as *ArticleService) SetURLInput(v string) {
	as.mu.Lock()
	as.state.URLInput = v
	as.mu.Unlock()
}

func (as *ArticleService) SetTagInput(articleID int, v string) {
	as.mu.Lock()
	as.state.TagInputs[articleID] = v
	as.mu.Unlock()
}

// Refresh replaces the article list with the server's. Concurrent calls
// share one request.
func (as *ArticleService) Refresh(ctx context.Context) error {
	_, err, _ := as.refreshGroup.Do("refresh", func() (any, error) {
		articles, err := as.client.ListArticles(ctx, as.sess)
		if err != nil {
			return nil, err
		}

		as.mu.Lock()
		as.state.Articles = articles
		as.state.Loaded = true
		as.mu.Unlock()

		return nil, nil
	})
	if err != nil {
		as.fail(ctx, err, msgFetchFailed)

		return fmt.Errorf("refresh articles error: %w", err)
	}

	return nil
}

// Save submits rawURL, or the pending URL input when rawURL is empty.
func (as *ArticleService) Save(ctx context.Context, rawURL string) (models.Article, error) {
	release, err := as.guard.Acquire("save")
	if err != nil {
		return models.Article{}, err
	}
	defer release()

	if rawURL == "" {
		rawURL = as.Snapshot().URLInput
	}

	a, err := as.client.CreateArticle(ctx, as.sess, rawURL)
	if err != nil {
		as.fail(ctx, err, msgSaveFailed)

		return models.Article{}, err
	}

	as.remember(ctx, a)

	as.update(func(st *State) {
		st.URLInput = ""
		st.Err = ""
	})

	as.refreshAfter(ctx)

	return a, nil
}

func (as *ArticleService) Delete(ctx context.Context, id int) error {
	release, err := as.guard.Acquire("delete:" + strconv.Itoa(id))
	if err != nil {
		return err
	}
	defer release()

	if err := as.client.DeleteArticle(ctx, as.sess, id); err != nil {
		as.fail(ctx, err, msgDeleteFailed, id)

		return err
	}

	as.invalidate(ctx, id)
	as.update(func(st *State) {
		dropArticle(st, id)
		st.Err = ""
	})

	as.refreshAfter(ctx)

	return nil
}

// AddTag attaches name, or the pending tag input for the article when name
// is empty.
func (as *ArticleService) AddTag(ctx context.Context, id int, name string) error {
	release, err := as.guard.Acquire("tag:" + strconv.Itoa(id))
	if err != nil {
		return err
	}
	defer release()

	if name == "" {
		name = as.Snapshot().TagInputs[id]
	}

	if err := as.client.AddTag(ctx, as.sess, id, name); err != nil {
		as.fail(ctx, err, msgTagFailed, id)

		return err
	}

	as.invalidate(ctx, id)
	as.update(func(st *State) {
		delete(st.TagInputs, id)
		st.Err = ""
	})

	as.refreshAfter(ctx)
	as.reloadSelected(ctx, id)

	return nil
}

func (as *ArticleService) RemoveTag(ctx context.Context, id, tagID int) error {
	release, err := as.guard.Acquire("untag:" + strconv.Itoa(id) + ":" + strconv.Itoa(tagID))
	if err != nil {
		return err
	}
	defer release()

	if err := as.client.RemoveTag(ctx, as.sess, id, tagID); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			as.untagGone(ctx, id)
		} else {
			as.fail(ctx, err, msgUntagFailed)
		}

		return err
	}

	as.invalidate(ctx, id)
	as.update(func(st *State) { st.Err = "" })

	as.refreshAfter(ctx)
	as.reloadSelected(ctx, id)

	return nil
}

// View opens the detail of an article, from the cache when possible.
func (as *ArticleService) View(ctx context.Context, id int) (models.Article, error) {
	release, err := as.guard.Acquire("view:" + strconv.Itoa(id))
	if err != nil {
		return models.Article{}, err
	}
	defer release()

	a, err := as.detail(ctx, id)
	if err != nil {
		as.fail(ctx, err, msgViewFailed, id)

		return models.Article{}, err
	}

	as.update(func(st *State) {
		sel := a.Clone()
		st.Selected = &sel
		st.Err = ""
	})

	return a, nil
}

func (as *ArticleService) CloseDetail() {
	as.update(func(st *State) { st.Selected = nil })
}

// Search shows the server's matches for query. An empty query returns to
// the full list.
func (as *ArticleService) Search(ctx context.Context, query string, kind models.SearchKind) ([]models.Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		as.ClearSearch()

		return nil, nil
	}

	release, err := as.guard.Acquire("search")
	if err != nil {
		return nil, err
	}
	defer release()

	results, err := as.client.Search(ctx, as.sess, query, kind)
	if err != nil {
		as.fail(ctx, err, msgSearchFailed)

		return nil, err
	}

	as.update(func(st *State) {
		st.Results = results
		st.Search = &SearchQuery{Query: query, Kind: kind}
		st.Err = ""
	})

	return results, nil
}

// ClearSearch goes back to the full list without asking the server.
func (as *ArticleService) ClearSearch() {
	as.update(func(st *State) {
		st.Results = nil
		st.Search = nil
	})
}

// Reset forgets everything, including cached details. It runs on sign out.
func (as *ArticleService) Reset(ctx context.Context) {
	as.mu.Lock()
	as.state = State{TagInputs: make(map[int]string)} //nolint:exhaustruct
	as.mu.Unlock()

	if err := as.cache.Purge(ctx); err != nil {
		as.lg.Errorf("purge article cache error: %s", err.Error())
	}
}

// Snapshot returns a deep copy of the current state.
func (as *ArticleService) Snapshot() State {
	as.mu.RLock()
	defer as.mu.RUnlock()

	st := as.state
	st.Articles = cloneArticles(st.Articles)
	st.Results = cloneArticles(st.Results)

	if st.Search != nil {
		q := *st.Search
		st.Search = &q
	}

	if st.Selected != nil {
		sel := st.Selected.Clone()
		st.Selected = &sel
	}

	st.TagInputs = make(map[int]string, len(as.state.TagInputs))
	for k, v := range as.state.TagInputs {
		st.TagInputs[k] = v
	}

	st.Busy = as.guard.Running()

	return st
}

// BackgroundRefresh refreshes the list every interval until ctx is done,
// so that edits made elsewhere show up.
func (as *ArticleService) BackgroundRefresh(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	if err := as.Refresh(ctx); err != nil {
		as.lg.Errorf("refresh error: %s", err.Error())
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !as.sess.HasToken() {
				return
			}

			if err := as.Refresh(ctx); err != nil {
				as.lg.Errorf("refresh error: %s", err.Error())
			}
		}
	}
}

func (as *ArticleService) detail(ctx context.Context, id int) (models.Article, error) {
	if uid, ok := as.owner(); ok {
		a, err := as.cache.GetArticle(ctx, uid, id)
		if err == nil {
			as.lg.Debugf("article %d cache hit", id)

			return a, nil
		}
	}

	a, err := as.client.GetArticle(ctx, as.sess, id)
	if err != nil {
		return models.Article{}, err
	}

	as.remember(ctx, a)

	return a, nil
}

// untagGone handles a 404 on tag removal. The server answers the same way
// whether the article or only the tag link is missing, so the list is
// reloaded and decides which message applies.
func (as *ArticleService) untagGone(ctx context.Context, id int) {
	as.invalidate(ctx, id)

	if err := as.Refresh(ctx); err != nil {
		return
	}

	exists := false

	for _, a := range as.Snapshot().Articles {
		if a.ID == id {
			exists = true

			break
		}
	}

	if !exists {
		as.update(func(st *State) {
			dropArticle(st, id)
			st.Err = MsgArticleGone
		})

		return
	}

	as.update(func(st *State) { st.Err = MsgTagGone })
	as.reloadSelected(ctx, id)
}

// owner is the account whose cache entries may be read or written.
func (as *ArticleService) owner() (int, bool) {
	id, ok := as.sess.Current()

	return id.UserID, ok
}

func (as *ArticleService) remember(ctx context.Context, a models.Article) {
	uid, ok := as.owner()
	if !ok {
		return
	}

	if err := as.cache.SetArticle(ctx, uid, a); err != nil {
		as.lg.Errorf("set article cache error: %s", err.Error())
	}
}

// refreshAfter follows a successful mutation. Its failure is reported
// through State.Err only.
func (as *ArticleService) refreshAfter(ctx context.Context) {
	if err := as.Refresh(ctx); err != nil {
		as.lg.Errorf("refresh after change error: %s", err.Error())
	}
}

func (as *ArticleService) reloadSelected(ctx context.Context, id int) {
	st := as.Snapshot()
	if st.Selected == nil || st.Selected.ID != id {
		return
	}

	a, err := as.detail(ctx, id)
	if err != nil {
		as.fail(ctx, err, msgViewFailed, id)

		return
	}

	as.update(func(st *State) {
		if st.Selected != nil && st.Selected.ID == id {
			sel := a.Clone()
			st.Selected = &sel
		}
	})
}

func (as *ArticleService) invalidate(ctx context.Context, id int) {
	uid, ok := as.owner()
	if !ok {
		return
	}

	if err := as.cache.DeleteArticle(ctx, uid, id); err != nil {
		as.lg.Errorf("delete article cache error: %s", err.Error())
	}
}

// fail records the message for err. ids name the articles the operation
// touched; they are dropped locally when the server no longer has them.
func (as *ArticleService) fail(ctx context.Context, err error, generic string, ids ...int) {
	if errors.Is(err, client.ErrAuth) && as.auth != nil {
		// Expire resets this service through the sign out hook, so the
		// message is set afterwards.
		as.auth.Expire(ctx)
	}

	msg := Message(err, generic)
	notFound := errors.Is(err, client.ErrNotFound)

	if notFound {
		for _, id := range ids {
			as.invalidate(ctx, id)
		}
	}

	as.update(func(st *State) {
		if notFound {
			for _, id := range ids {
				dropArticle(st, id)
			}
		}

		st.Err = msg
	})
}

// Message is the text shown to the user for an operation error.
func Message(err error, generic string) string {
	var apiErr *client.Error

	switch {
	case errors.Is(err, client.ErrAuth):
		return MsgSessionExpired
	case errors.Is(err, client.ErrNotFound):
		return MsgArticleGone
	case errors.Is(err, client.ErrValidation) && errors.As(err, &apiErr):
		return apiErr.Message
	default:
		return generic
	}
}

func (as *ArticleService) update(fn func(st *State)) {
	as.mu.Lock()
	fn(&as.state)
	as.mu.Unlock()
}

func dropArticle(st *State, id int) {
	st.Articles = without(st.Articles, id)
	st.Results = without(st.Results, id)

	if st.Selected != nil && st.Selected.ID == id {
		st.Selected = nil
	}

	delete(st.TagInputs, id)
}

func without(articles []models.Article, id int) []models.Article {
	if articles == nil {
		return nil
	}

	out := make([]models.Article, 0, len(articles))

	for _, a := range articles {
		if a.ID != id {
			out = append(out, a)
		}
	}

	return out
}

func cloneArticles(articles []models.Article) []models.Article {
	if articles == nil {
		return nil
	}

	out := make([]models.Article, len(articles))
	for i, a := range articles {
		out[i] = a.Clone()
	}

	return out
}
