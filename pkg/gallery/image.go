package gallery

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Sternrassler/gallery-feed/pkg/mutation"
)

// Upload form limits.
const (
	TitleMinLength       = 2
	TitleMaxLength       = 20
	DescriptionMaxLength = 65
)

// Image is one gallery entry.
type Image struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`

	// CreatedAt is the upload time in Unix milliseconds
	CreatedAt int64 `json:"ts"`
}

// Created returns CreatedAt as a time.
func (i Image) Created() time.Time {
	return time.UnixMilli(i.CreatedAt)
}

// ImageID returns the identity used to de-duplicate the feed.
func ImageID(i Image) string {
	return i.ID
}

// NewImage is the upload payload.
type NewImage struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Validate checks the payload against the upload form rules. It returns a
// *mutation.ValidationError listing every rejected field, or nil.
func (n NewImage) Validate() error {
	ve := &mutation.ValidationError{}

	title := strings.TrimSpace(n.Title)
	switch titleLen := utf8.RuneCountInString(title); {
	case titleLen == 0:
		ve.Add("title", "title is required")
	case titleLen < TitleMinLength:
		ve.Add("title", "title must be at least 2 characters")
	case titleLen > TitleMaxLength:
		ve.Add("title", "title must be at most 20 characters")
	}

	description := strings.TrimSpace(n.Description)
	switch {
	case description == "":
		ve.Add("description", "description is required")
	case utf8.RuneCountInString(description) > DescriptionMaxLength:
		ve.Add("description", "description must be at most 65 characters")
	}

	if n.URL == "" {
		ve.Add("url", "image url is required")
	} else if u, err := url.Parse(n.URL); err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		ve.Add("url", "image url must be an absolute http or https url")
	}

	return ve.OrNil()
}
