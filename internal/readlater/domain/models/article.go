package models

import (
	"fmt"
	"time"
)

// Article is a saved web page. List endpoints leave Content empty.
type Article struct {
	ID        int       `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt"`
	Content   string    `json:"content,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`  //nolint:tagliatelle
	CreatedAt time.Time `json:"created_at,omitempty"` //nolint:tagliatelle
	Tags      []Tag     `json:"tags"`
}

type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// HasTag reports whether the article carries a tag with the given name.
func (a Article) HasTag(name string) bool {
	for _, t := range a.Tags {
		if t.Name == name {
			return true
		}
	}

	return false
}

// Clone returns a copy that shares no slices with a.
func (a Article) Clone() Article {
	if a.Tags != nil {
		tags := make([]Tag, len(a.Tags))
		copy(tags, a.Tags)
		a.Tags = tags
	}

	return a
}

type SearchKind string

const (
	SearchByTitle SearchKind = "title"
	SearchByTag   SearchKind = "tag"
)

func ParseSearchKind(s string) (SearchKind, error) {
	switch SearchKind(s) {
	case SearchByTitle, SearchByTag:
		return SearchKind(s), nil
	case "":
		return SearchByTitle, nil
	default:
		return "", fmt.Errorf("unknown search kind %q", s)
	}
}
