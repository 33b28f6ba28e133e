package domain

import (
	"strings"
	"time"
)

type ContentType string

const (
	ContentArticle ContentType = "article"
	ContentVideo   ContentType = "video"
	ContentPodcast ContentType = "podcast"
	ContentGuide   ContentType = "guide"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentArticle, ContentVideo, ContentPodcast, ContentGuide:
		return true
	}
	return false
}

type ContentItem struct {
	ID          string      `json:"id" yaml:"id"`
	Title       string      `json:"title" yaml:"title"`
	Type        ContentType `json:"type" yaml:"type"`
	Category    string      `json:"category" yaml:"category"`
	Tags        []string    `json:"tags" yaml:"tags"`
	Author      string      `json:"author" yaml:"author"`
	Summary     string      `json:"summary" yaml:"summary"`
	Views       int         `json:"views" yaml:"views"`
	Likes       int         `json:"likes" yaml:"likes"`
	Featured    bool        `json:"featured" yaml:"featured"`
	PublishedAt time.Time   `json:"publishedAt" yaml:"publishedAt"`
	CTAID       string      `json:"ctaId,omitempty" yaml:"ctaId"`
}

func (c *ContentItem) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(c.Title) == "" {
		v.Add("title", "is required")
	}
	if !c.Type.Valid() {
		v.Add("type", "must be article, video, podcast or guide")
	}
	if c.Views < 0 || c.Likes < 0 {
		v.Add("views", "counters cannot be negative")
	}
	return v.OrNil()
}

// CTA is a promotional banner attached to a placement or a content item.
type CTA struct {
	ID         string `json:"id" yaml:"id"`
	Title      string `json:"title" yaml:"title"`
	Body       string `json:"body" yaml:"body"`
	ButtonText string `json:"buttonText" yaml:"buttonText"`
	URL        string `json:"url" yaml:"url"`
	Placement  string `json:"placement" yaml:"placement"`
	Active     bool   `json:"active" yaml:"active"`
}

func (c *CTA) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(c.Title) == "" {
		v.Add("title", "is required")
	}
	if strings.TrimSpace(c.ButtonText) == "" {
		v.Add("buttonText", "is required")
	}
	if !strings.HasPrefix(c.URL, "/") && !strings.HasPrefix(c.URL, "https://") {
		v.Add("url", "must be a site path or an https URL")
	}
	return v.OrNil()
}
