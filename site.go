package pubcontent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/eringen/pubcontent/markdown"
	"github.com/eringen/pubcontent/views"
)

const summaryLength = 200

// Site turns posts into view models and HTML pages. It is shared by the
// static builder and the preview server.
type Site struct {
	Config   SiteConfig
	Markdown *markdown.Renderer
	logger   *zap.Logger
}

// NewSite creates a Site for cfg.
func NewSite(cfg SiteConfig, logger *zap.Logger) *Site {
	cfg.setDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Site{
		Config:   cfg,
		Markdown: markdown.New(markdown.Options{Style: cfg.SyntaxStyle}),
		logger:   logger,
	}
}

// ViewConfig returns the subset of the configuration the templates need.
func (s *Site) ViewConfig() views.SiteConfig {
	return views.SiteConfig{
		Name:        s.Config.Name,
		URL:         s.Config.URL,
		Description: s.Config.Description,
		Author:      s.Config.Author,
	}
}

// View renders the body of p and prepares it for display.
func (s *Site) View(p Post) (views.PostView, error) {
	var body bytes.Buffer
	if err := s.Markdown.Render(&body, []byte(p.Body)); err != nil {
		return views.PostView{}, fmt.Errorf("pubcontent: render %s: %w", p.Path, err)
	}
	v := views.PostView{
		Title:      p.Title,
		Slug:       p.Slug,
		Link:       p.Link(),
		Date:       p.Date,
		Categories: p.Categories,
		Tags:       p.Tags,
		Summary:    markdown.Excerpt(body.Bytes(), summaryLength),
		Languages:  p.Languages(),
		Body:       body.String(),
	}
	if img := strings.TrimSpace(p.Header.OverlayImage); img != "" && markdown.SafeURL(img) != "" {
		v.HeaderImage = img
	}
	if p.Header.OverlayFilter != nil {
		v.OverlayFilter = *p.Header.OverlayFilter
		v.HasOverlay = true
	}
	return v, nil
}

// Views renders every post. Bodies are rendered for listing summaries.
func (s *Site) Views(posts []Post) ([]views.PostView, error) {
	out := make([]views.PostView, 0, len(posts))
	for _, p := range posts {
		v, err := s.View(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// PostPage returns the full page component for p; all supplies related posts.
func (s *Site) PostPage(p Post, all []Post) (*PostPageData, error) {
	v, err := s.View(p)
	if err != nil {
		return nil, err
	}
	related := FilterRelatedPosts(p, all)
	if len(related) > 5 {
		related = related[:5]
	}
	rv := make([]views.PostView, 0, len(related))
	for _, r := range related {
		rv = append(rv, views.PostView{Title: r.Title, Slug: r.Slug, Link: r.Link(), Date: r.Date})
	}
	return &PostPageData{Post: v, Related: rv}, nil
}

// PostPageData is the view model of a single post page.
type PostPageData struct {
	Post    views.PostView
	Related []views.PostView
}

// RenderPost writes the complete HTML page for p to w.
func (s *Site) RenderPost(ctx context.Context, w io.Writer, p Post, all []Post) error {
	data, err := s.PostPage(p, all)
	if err != nil {
		return err
	}
	return views.PostPage(s.ViewConfig(), data.Post, data.Related).Render(ctx, w)
}
