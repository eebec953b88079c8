package mockserver

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Leopold1975/readlater/internal/readlater/domain/models"
)

var (
	errNotFound      = errors.New("not found")
	errAlreadyExists = errors.New("already exists")
)

type userRecord struct {
	models.User
	PasswordHash string
}

type articleRecord struct {
	models.Article
	UserID int
	TagIDs []int
}

type tagRecord struct {
	models.Tag
	UserID int
}

// memStore keeps every user's data in process memory. Records are scoped
// by user id the same way the production schema is.
type memStore struct {
	mu sync.Mutex

	users    map[int]*userRecord
	articles map[int]*articleRecord
	tags     map[int]*tagRecord

	nextUserID    int
	nextArticleID int
	nextTagID     int
	now           func() time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[int]*userRecord),
		articles: make(map[int]*articleRecord),
		tags:     make(map[int]*tagRecord),
		now:      time.Now,
	}
}

func (s *memStore) createUser(u userRecord) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return models.User{}, errAlreadyExists
		}
	}

	s.nextUserID++
	u.ID = s.nextUserID
	u.CreatedAt = s.now()
	s.users[u.ID] = &u

	return u.User, nil
}

func (s *memStore) userByName(username string) (userRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return *u, nil
		}
	}

	return userRecord{}, errNotFound
}

func (s *memStore) userByID(id int) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, errNotFound
	}

	return u.User, nil
}

func (s *memStore) saveArticle(userID int, a models.Article) (models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.articles {
		if existing.UserID == userID && existing.URL == a.URL {
			return models.Article{}, errAlreadyExists
		}
	}

	s.nextArticleID++
	a.ID = s.nextArticleID
	a.CreatedAt = s.now()
	a.Tags = []models.Tag{}

	s.articles[a.ID] = &articleRecord{Article: a, UserID: userID}

	return a, nil
}

// view renders a record with its tags. Content is only kept for detail views.
func (s *memStore) view(r *articleRecord, withContent bool) models.Article {
	a := r.Article.Clone()
	a.Tags = make([]models.Tag, 0, len(r.TagIDs))

	for _, id := range r.TagIDs {
		if t, ok := s.tags[id]; ok {
			a.Tags = append(a.Tags, t.Tag)
		}
	}

	if !withContent {
		a.Content = ""
	}

	return a
}

func (s *memStore) listArticles(userID int, match func(*articleRecord) bool) []models.Article {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]*articleRecord, 0, len(s.articles))

	for _, r := range s.articles {
		if r.UserID == userID && (match == nil || match(r)) {
			records = append(records, r)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}

		return records[i].ID > records[j].ID
	})

	articles := make([]models.Article, 0, len(records))
	for _, r := range records {
		articles = append(articles, s.view(r, false))
	}

	return articles
}

func (s *memStore) getArticle(id, userID int) (models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.articles[id]
	if !ok || r.UserID != userID {
		return models.Article{}, errNotFound
	}

	return s.view(r, true), nil
}

func (s *memStore) deleteArticle(id, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.articles[id]
	if !ok || r.UserID != userID {
		return errNotFound
	}

	delete(s.articles, id)

	return nil
}

// addTag gets or creates the user's tag called name and links it. Linking
// an already linked tag is a no-op.
func (s *memStore) addTag(articleID, userID int, name string) (models.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.articles[articleID]
	if !ok || r.UserID != userID {
		return models.Tag{}, errNotFound
	}

	var tag *tagRecord

	for _, t := range s.tags {
		if t.UserID == userID && t.Name == name {
			tag = t

			break
		}
	}

	if tag == nil {
		s.nextTagID++
		tag = &tagRecord{Tag: models.Tag{ID: s.nextTagID, Name: name}, UserID: userID}
		s.tags[tag.ID] = tag
	}

	for _, id := range r.TagIDs {
		if id == tag.ID {
			return tag.Tag, nil
		}
	}

	r.TagIDs = append(r.TagIDs, tag.ID)

	return tag.Tag, nil
}

// removeTag detaches the tag from the article. The tag itself is kept even
// when no article references it any more.
func (s *memStore) removeTag(articleID, tagID, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.articles[articleID]
	if !ok || r.UserID != userID {
		return errNotFound
	}

	for i, id := range r.TagIDs {
		if id == tagID {
			r.TagIDs = append(r.TagIDs[:i], r.TagIDs[i+1:]...)

			return nil
		}
	}

	return errNotFound
}

func (s *memStore) listTags(userID int) []models.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()

	tags := make([]models.Tag, 0)

	for _, t := range s.tags {
		if t.UserID == userID {
			tags = append(tags, t.Tag)
		}
	}

	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })

	return tags
}

// tagNames must be called with s.mu held.
func (s *memStore) tagNames(r *articleRecord) []string {
	names := make([]string, 0, len(r.TagIDs))

	for _, id := range r.TagIDs {
		if t, ok := s.tags[id]; ok {
			names = append(names, t.Name)
		}
	}

	return names
}

func (s *memStore) searchByTitle(userID int, query string) []models.Article {
	q := strings.ToLower(query)

	return s.listArticles(userID, func(r *articleRecord) bool {
		return strings.Contains(strings.ToLower(r.Title), q)
	})
}

func (s *memStore) searchByTag(userID int, query string) []models.Article {
	q := strings.ToLower(query)

	return s.listArticles(userID, func(r *articleRecord) bool {
		for _, name := range s.tagNames(r) {
			if strings.Contains(strings.ToLower(name), q) {
				return true
			}
		}

		return false
	})
}

func (s *memStore) articlesByTag(userID int, name string) []models.Article {
	return s.listArticles(userID, func(r *articleRecord) bool {
		for _, n := range s.tagNames(r) {
			if n == name {
				return true
			}
		}

		return false
	})
}
