package models

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and, on servers that issue a token at
// registration, by register. Token is empty otherwise.
type AuthResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"message,omitempty"`
}

type CreateArticleRequest struct {
	URL string `json:"url"`
}

type AddTagRequest struct {
	TagName string `json:"tag_name"` //nolint:tagliatelle
}

type MessageResponse struct {
	Message string `json:"message"`
}
