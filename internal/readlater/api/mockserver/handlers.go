package mockserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Leopold1975/readlater/internal/pkg/jwtauth"
	"github.com/Leopold1975/readlater/internal/readlater/domain/models"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

// Register creates a user. Like the production service it answers with the
// user but without a token; clients log in afterwards
// (POST /api/auth/register).
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, "decode error: "+err.Error(), http.StatusBadRequest)

		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		handleError(w, "Username, email and password are required", http.StatusBadRequest)

		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		handleError(w, "Failed to hash password", http.StatusInternalServerError)

		return
	}

	u, err := s.store.createUser(userRecord{
		User:         models.User{Username: req.Username, Email: req.Email}, //nolint:exhaustruct
		PasswordHash: string(hash),
	})
	if errors.Is(err, errAlreadyExists) {
		handleError(w, "Username or email already exists", http.StatusConflict)

		return
	} else if err != nil {
		handleError(w, "Failed to create user", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusCreated, models.AuthResponse{Message: "User created successfully", User: u})
}

// (POST /api/auth/login).
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, "decode error: "+err.Error(), http.StatusBadRequest)

		return
	}

	if req.Username == "" || req.Password == "" {
		handleError(w, "Username and password are required", http.StatusBadRequest)

		return
	}

	u, err := s.store.userByName(req.Username)
	if err != nil {
		handleError(w, "Invalid credentials", http.StatusUnauthorized)

		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		handleError(w, "Invalid credentials", http.StatusUnauthorized)

		return
	}

	token, err := jwtauth.GetToken(u.User, s.cfg.TTL, s.cfg.Secret)
	if err != nil {
		handleError(w, "Failed to create token", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, models.AuthResponse{Token: token, User: u.User})
}

// (GET /api/user/profile).
func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)

	u, err := s.store.userByID(uid)
	if err != nil {
		handleError(w, "User not found", http.StatusNotFound)

		return
	}

	writeJSON(w, http.StatusOK, u)
}

// (GET /api/articles).
func (s *Server) GetArticles(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)

	writeJSON(w, http.StatusOK, s.store.listArticles(uid, nil))
}

// (POST /api/articles).
func (s *Server) AddArticle(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)

	var req models.CreateArticleRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		handleError(w, "url is required", http.StatusBadRequest)

		return
	}

	u, err := url.ParseRequestURI(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		handleError(w, "Invalid URL", http.StatusBadRequest)

		return
	}

	article, err := s.extract(r.Context(), req.URL)
	if err != nil {
		handleError(w, "Failed to extract article: "+err.Error(), http.StatusInternalServerError)

		return
	}

	article.URL = req.URL

	saved, err := s.store.saveArticle(uid, article)
	if errors.Is(err, errAlreadyExists) {
		handleError(w, "Article already saved", http.StatusConflict)

		return
	} else if err != nil {
		handleError(w, "Failed to save article", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusCreated, saved)
}

// (GET /api/articles/search).
func (s *Server) SearchArticles(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)

	query := r.URL.Query().Get("q")
	tag := r.URL.Query().Get("tag")

	switch {
	case tag != "":
		writeJSON(w, http.StatusOK, s.store.searchByTag(uid, tag))
	case query != "":
		writeJSON(w, http.StatusOK, s.store.searchByTitle(uid, query))
	default:
		handleError(w, "Search query or tag is required", http.StatusBadRequest)
	}
}

// (GET /api/articles/{id}).
func (s *Server) GetArticle(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, "Invalid article ID", http.StatusBadRequest)

		return
	}

	a, err := s.store.getArticle(id, uid)
	if err != nil {
		handleError(w, "Article not found", http.StatusNotFound)

		return
	}

	writeJSON(w, http.StatusOK, a)
}

// (DELETE /api/articles/{id}).
func (s *Server) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, "Invalid article ID", http.StatusBadRequest)

		return
	}

	if err := s.store.deleteArticle(id, uid); err != nil {
		handleError(w, "Article not found", http.StatusNotFound)

		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Article deleted successfully"})
}

// (POST /api/articles/{id}/tags).
func (s *Server) AddTagToArticle(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, "Invalid article ID", http.StatusBadRequest)

		return
	}

	var req models.AddTagRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.TagName) == "" {
		handleError(w, "tag_name is required", http.StatusBadRequest)

		return
	}

	if _, err := s.store.addTag(id, uid, strings.TrimSpace(req.TagName)); err != nil {
		handleError(w, "Article not found", http.StatusNotFound)

		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Tag added successfully"})
}

// (DELETE /api/articles/{id}/tags/{tagId}).
func (s *Server) RemoveTagFromArticle(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, "Invalid article ID", http.StatusBadRequest)

		return
	}

	tagID, err := strconv.Atoi(chi.URLParam(r, "tagId"))
	if err != nil {
		handleError(w, "Invalid tag ID", http.StatusBadRequest)

		return
	}

	if err := s.store.removeTag(id, tagID, uid); err != nil {
		handleError(w, "Article or tag not found", http.StatusNotFound)

		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Tag removed successfully"})
}

// (GET /api/tags).
func (s *Server) GetTags(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)

	writeJSON(w, http.StatusOK, s.store.listTags(uid))
}

// (GET /api/tags/{name}/articles).
func (s *Server) GetArticlesByTag(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)

	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		handleError(w, "Invalid tag name", http.StatusBadRequest)

		return
	}

	writeJSON(w, http.StatusOK, s.store.articlesByTag(uid, name))
}

// ProxyImage fetches images from hotlink-protected hosts on behalf of the
// client (GET /api/proxy/image).
func (s *Server) ProxyImage(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		handleError(w, "Image URL is required", http.StatusBadRequest)

		return
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		handleError(w, "Invalid URL", http.StatusBadRequest)

		return
	}

	allowed := false

	for _, h := range s.imageHost {
		if u.Hostname() == h || strings.HasSuffix(u.Hostname(), "."+h) {
			allowed = true

			break
		}
	}

	if !allowed {
		handleError(w, "Domain not allowed for proxy", http.StatusForbidden)

		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, raw, nil)
	if err != nil {
		handleError(w, "Failed to create request", http.StatusInternalServerError)

		return
	}

	req.Header.Set("Referer", "https://"+u.Hostname()+"/")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		handleError(w, "Failed to fetch image", http.StatusBadGateway)

		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		handleError(w, "Failed to fetch image from source", http.StatusBadGateway)

		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")

	if _, err := io.Copy(w, resp.Body); err != nil {
		s.lg.Errorf("proxy image copy error: %s", err.Error())
	}
}
