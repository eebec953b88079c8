package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Leopold1975/readlater/internal/pkg/config"
	"github.com/Leopold1975/readlater/internal/pkg/jwtauth"
	"github.com/Leopold1975/readlater/internal/readlater/api/client"
	"github.com/Leopold1975/readlater/internal/readlater/api/mockserver"
	"github.com/Leopold1975/readlater/internal/readlater/domain/models"
	"github.com/Leopold1975/readlater/internal/readlater/repository/tokenstore"
	"github.com/Leopold1975/readlater/internal/readlater/session"
	"github.com/Leopold1975/readlater/pkg/logger"
	"github.com/stretchr/testify/suite"
)

const (
	secret   = "suite-secret"
	username = "reader"
	email    = "reader@example.com"
	password = "qwerty"
)

var pages = map[string]models.Article{
	"https://example.com/go":   {Title: "Go concurrency patterns", Excerpt: "channels", Content: "<p>go</p>"},
	"https://example.com/rust": {Title: "Rust ownership", Excerpt: "borrowing", Content: "<p>rust</p>"},
}

func stubExtractor(_ context.Context, rawURL string) (models.Article, error) {
	a, ok := pages[rawURL]
	if !ok {
		return models.Article{}, errors.New("page unreachable")
	}

	return a, nil
}

type ClientSuite struct {
	suite.Suite
	srv      *httptest.Server
	requests atomic.Int64
	client   *client.Client
	sess     *session.Session
	ctx      context.Context
}

func (cs *ClientSuite) SetupTest() {
	ms := mockserver.New(config.Mock{Secret: secret, TTL: time.Hour}, logger.NewNop(),
		mockserver.WithExtractor(stubExtractor))

	h := ms.Handler()
	cs.requests.Store(0)
	cs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.requests.Add(1)
		h.ServeHTTP(w, r)
	}))

	c, err := client.New(config.Client{
		BaseURL:         cs.srv.URL,
		Timeout:         2 * time.Second,
		ProxyImageHosts: []string{"mmbiz.qpic.cn"},
	}, logger.NewNop())
	cs.Require().NoError(err)

	cs.client = c
	cs.sess = session.New(tokenstore.NewMemory(), "")
	cs.ctx = context.Background()
}

func (cs *ClientSuite) TearDownTest() {
	cs.srv.Close()
}

func (cs *ClientSuite) login() {
	_, err := cs.client.Register(cs.ctx, cs.sess, username, email, password)
	cs.Require().NoError(err)
}

func (cs *ClientSuite) TestRegisterLogsIn() {
	u, err := cs.client.Register(cs.ctx, cs.sess, username, email, password)
	cs.Require().NoError(err)
	cs.Require().Equal(username, u.Username)

	id, ok := cs.sess.Current()
	cs.Require().True(ok)
	cs.Require().Equal(username, id.Username)

	profile, err := cs.client.Profile(cs.ctx, cs.sess)
	cs.Require().NoError(err)
	cs.Require().Equal(email, profile.Email)
}

func (cs *ClientSuite) TestRegisterDuplicate() {
	cs.login()

	_, err := cs.client.Register(cs.ctx, session.New(tokenstore.NewMemory(), ""), username, "x@y.z", password)
	cs.Require().ErrorIs(err, client.ErrValidation)
	cs.Require().Equal("Username or email already exists", err.Error())

	var apiErr *client.Error
	cs.Require().ErrorAs(err, &apiErr)
	cs.Require().Equal(http.StatusConflict, apiErr.StatusCode)
}

func (cs *ClientSuite) TestLoginBadCredentials() {
	cs.login()

	fresh := session.New(tokenstore.NewMemory(), "")

	_, err := cs.client.Login(cs.ctx, fresh, username, "wrong")
	cs.Require().ErrorIs(err, client.ErrAuth)
	cs.Require().Equal("Invalid credentials", err.Error())
	cs.Require().False(fresh.HasToken())

	_, err = cs.client.Login(cs.ctx, fresh, "", "")
	cs.Require().ErrorIs(err, client.ErrValidation)
}

func (cs *ClientSuite) TestNoRequestWithoutCredential() {
	_, err := cs.client.ListArticles(cs.ctx, cs.sess)
	cs.Require().ErrorIs(err, client.ErrAuth)

	_, err = cs.client.CreateArticle(cs.ctx, cs.sess, "https://example.com/go")
	cs.Require().ErrorIs(err, client.ErrAuth)

	err = cs.client.AddTag(cs.ctx, cs.sess, 1, "x")
	cs.Require().ErrorIs(err, client.ErrAuth)

	cs.Require().Zero(cs.requests.Load())
}

func (cs *ClientSuite) TestExpiredCredentialIsDropped() {
	token, err := jwtauth.GetToken(models.User{ID: 1, Username: username}, -time.Minute, secret)
	cs.Require().NoError(err)
	cs.Require().NoError(cs.sess.Set(cs.ctx, token))

	err = cs.client.DeleteArticle(cs.ctx, cs.sess, 1)
	cs.Require().ErrorIs(err, client.ErrAuth)
	cs.Require().False(cs.sess.HasToken())
	cs.Require().Zero(cs.requests.Load())
}

func (cs *ClientSuite) TestUnauthorizedResponseDropsCredential() {
	forged, err := jwtauth.GetToken(models.User{ID: 1, Username: username}, time.Hour, "not-the-secret")
	cs.Require().NoError(err)
	cs.Require().NoError(cs.sess.Set(cs.ctx, forged))

	_, err = cs.client.ListArticles(cs.ctx, cs.sess)
	cs.Require().ErrorIs(err, client.ErrAuth)
	cs.Require().False(cs.sess.HasToken())
	cs.Require().EqualValues(1, cs.requests.Load())
}

func (cs *ClientSuite) TestArticleLifecycle() {
	cs.login()

	articles, err := cs.client.ListArticles(cs.ctx, cs.sess)
	cs.Require().NoError(err)
	cs.Require().Empty(articles)
	cs.Require().NotNil(articles)

	a, err := cs.client.CreateArticle(cs.ctx, cs.sess, " https://example.com/go ")
	cs.Require().NoError(err)
	cs.Require().Equal("Go concurrency patterns", a.Title)
	cs.Require().Equal("https://example.com/go", a.URL)

	cs.Require().NoError(cs.client.AddTag(cs.ctx, cs.sess, a.ID, "foo"))

	articles, err = cs.client.ListArticles(cs.ctx, cs.sess)
	cs.Require().NoError(err)
	cs.Require().Len(articles, 1)
	cs.Require().True(articles[0].HasTag("foo"))
	cs.Require().Empty(articles[0].Content)

	detail, err := cs.client.GetArticle(cs.ctx, cs.sess, a.ID)
	cs.Require().NoError(err)
	cs.Require().Equal("<p>go</p>", detail.Content)
	cs.Require().Len(detail.Tags, 1)

	cs.Require().NoError(cs.client.RemoveTag(cs.ctx, cs.sess, a.ID, detail.Tags[0].ID))

	articles, err = cs.client.ListArticles(cs.ctx, cs.sess)
	cs.Require().NoError(err)
	cs.Require().False(articles[0].HasTag("foo"))

	cs.Require().NoError(cs.client.DeleteArticle(cs.ctx, cs.sess, a.ID))

	articles, err = cs.client.ListArticles(cs.ctx, cs.sess)
	cs.Require().NoError(err)
	cs.Require().Empty(articles)

	err = cs.client.AddTag(cs.ctx, cs.sess, a.ID, "x")
	cs.Require().ErrorIs(err, client.ErrNotFound)

	_, err = cs.client.GetArticle(cs.ctx, cs.sess, a.ID)
	cs.Require().ErrorIs(err, client.ErrNotFound)

	err = cs.client.DeleteArticle(cs.ctx, cs.sess, a.ID)
	cs.Require().ErrorIs(err, client.ErrNotFound)
}

func (cs *ClientSuite) TestCreateArticleFailures() {
	cs.login()

	for _, raw := range []string{"", "   ", "example.com/go", "ftp://example.com/file", "https://"} {
		_, err := cs.client.CreateArticle(cs.ctx, cs.sess, raw)
		cs.Require().ErrorIs(err, client.ErrValidation, raw)
	}

	before := cs.requests.Load()

	_, err := cs.client.CreateArticle(cs.ctx, cs.sess, "https://unreachable.example/")
	cs.Require().ErrorIs(err, client.ErrTransport)
	cs.Require().Contains(err.Error(), "Failed to extract article")
	cs.Require().Equal(before+1, cs.requests.Load())

	_, err = cs.client.CreateArticle(cs.ctx, cs.sess, "https://example.com/go")
	cs.Require().NoError(err)

	_, err = cs.client.CreateArticle(cs.ctx, cs.sess, "https://example.com/go")
	cs.Require().ErrorIs(err, client.ErrValidation)
}

func (cs *ClientSuite) TestAddTagValidation() {
	cs.login()

	err := cs.client.AddTag(cs.ctx, cs.sess, 1, "   ")
	cs.Require().ErrorIs(err, client.ErrValidation)
}

func (cs *ClientSuite) TestSearch() {
	cs.login()

	goArticle, err := cs.client.CreateArticle(cs.ctx, cs.sess, "https://example.com/go")
	cs.Require().NoError(err)

	_, err = cs.client.CreateArticle(cs.ctx, cs.sess, "https://example.com/rust")
	cs.Require().NoError(err)

	cs.Require().NoError(cs.client.AddTag(cs.ctx, cs.sess, goArticle.ID, "golang"))

	found, err := cs.client.Search(cs.ctx, cs.sess, "concurrency", models.SearchByTitle)
	cs.Require().NoError(err)
	cs.Require().Len(found, 1)
	cs.Require().Equal(goArticle.ID, found[0].ID)

	found, err = cs.client.Search(cs.ctx, cs.sess, "GOL", models.SearchByTag)
	cs.Require().NoError(err)
	cs.Require().Len(found, 1)

	found, err = cs.client.Search(cs.ctx, cs.sess, "python", models.SearchByTitle)
	cs.Require().NoError(err)
	cs.Require().Empty(found)

	_, err = cs.client.Search(cs.ctx, cs.sess, " ", models.SearchByTitle)
	cs.Require().ErrorIs(err, client.ErrValidation)

	_, err = cs.client.Search(cs.ctx, cs.sess, "go", models.SearchKind("body"))
	cs.Require().ErrorIs(err, client.ErrValidation)
}

func (cs *ClientSuite) TestTags() {
	cs.login()

	a, err := cs.client.CreateArticle(cs.ctx, cs.sess, "https://example.com/go")
	cs.Require().NoError(err)

	cs.Require().NoError(cs.client.AddTag(cs.ctx, cs.sess, a.ID, "to read"))
	cs.Require().NoError(cs.client.AddTag(cs.ctx, cs.sess, a.ID, "go"))

	tags, err := cs.client.ListTags(cs.ctx, cs.sess)
	cs.Require().NoError(err)
	cs.Require().Len(tags, 2)
	cs.Require().Equal("go", tags[0].Name)

	byTag, err := cs.client.ArticlesByTag(cs.ctx, cs.sess, "to read")
	cs.Require().NoError(err)
	cs.Require().Len(byTag, 1)

	byTag, err = cs.client.ArticlesByTag(cs.ctx, cs.sess, "missing")
	cs.Require().NoError(err)
	cs.Require().Empty(byTag)
}

func (cs *ClientSuite) TestTimeout() {
	stall := make(chan struct{})

	slow := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-stall:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(stall)

	c, err := client.New(config.Client{BaseURL: slow.URL, Timeout: 50 * time.Millisecond}, logger.NewNop())
	cs.Require().NoError(err)

	_, err = c.Login(cs.ctx, cs.sess, username, password)
	cs.Require().ErrorIs(err, client.ErrTransport)
	cs.Require().Equal("request timed out", err.Error())
}

func (cs *ClientSuite) TestRequestHeaders() {
	cs.login()

	var got http.Header

	spy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`null`)) //nolint:errcheck
	}))
	defer spy.Close()

	c, err := client.New(config.Client{BaseURL: spy.URL + "/"}, logger.NewNop())
	cs.Require().NoError(err)

	articles, err := c.ListArticles(cs.ctx, cs.sess)
	cs.Require().NoError(err)
	cs.Require().NotNil(articles)

	token, _ := cs.sess.Token()
	cs.Require().Equal("Bearer "+token, got.Get("Authorization"))
	cs.Require().NotEmpty(got.Get("X-Request-ID"))
	cs.Require().Equal("application/json", got.Get("Content-Type"))
}

func (cs *ClientSuite) TestUndecodableErrorBody() {
	cs.login()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>")) //nolint:errcheck
	}))
	defer broken.Close()

	c, err := client.New(config.Client{BaseURL: broken.URL}, logger.NewNop())
	cs.Require().NoError(err)

	_, err = c.ListArticles(cs.ctx, cs.sess)
	cs.Require().ErrorIs(err, client.ErrTransport)
	cs.Require().Equal("HTTP 502", err.Error())
}

func (cs *ClientSuite) TestForbiddenKeepsCredential() {
	cs.login()

	forbidden := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"Domain not allowed for proxy"}`)) //nolint:errcheck
	}))
	defer forbidden.Close()

	c, err := client.New(config.Client{BaseURL: forbidden.URL}, logger.NewNop())
	cs.Require().NoError(err)

	_, err = c.ListArticles(cs.ctx, cs.sess)
	cs.Require().ErrorIs(err, client.ErrValidation)
	cs.Require().NotErrorIs(err, client.ErrAuth)
	cs.Require().Equal("Domain not allowed for proxy", err.Error())
	cs.Require().True(cs.sess.HasToken())
}

func (cs *ClientSuite) TestImageURL() {
	cs.Require().Equal("", cs.client.ImageURL(""))
	cs.Require().Equal("https://cdn.example.com/a.png", cs.client.ImageURL("https://cdn.example.com/a.png"))
	cs.Require().Equal(
		cs.srv.URL+"/api/proxy/image?url=https%3A%2F%2Fmmbiz.qpic.cn%2Fa.png",
		cs.client.ImageURL("https://mmbiz.qpic.cn/a.png"),
	)
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"localhost:8080", "ftp://host", "://"} {
		if _, err := client.New(config.Client{BaseURL: raw}, logger.NewNop()); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
