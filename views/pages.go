package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// pageWriter stops writing after the first error.
type pageWriter struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (p *pageWriter) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *pageWriter) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *pageWriter) component(c templ.Component) {
	if p.err == nil && c != nil {
		p.err = c.Render(p.ctx, p.w)
	}
}

func component(fn func(p *pageWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{ctx: ctx, w: w}
		fn(p)
		return p.err
	})
}

// Layout wraps body in the site chrome.
func Layout(cfg SiteConfig, meta PageMeta, body templ.Component) templ.Component {
	return component(func(p *pageWriter) {
		title := meta.Title
		if title == "" {
			title = cfg.Name
		} else if title != cfg.Name {
			title += " | " + cfg.Name
		}
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw(`<title>`)
		p.text(title)
		p.raw(`</title>`)
		if meta.Description != "" {
			p.raw(`<meta name="description" content="`)
			p.text(meta.Description)
			p.raw(`">`)
		}
		if meta.URL != "" {
			p.raw(`<link rel="canonical" href="`)
			p.text(meta.URL)
			p.raw(`"><meta property="og:url" content="`)
			p.text(meta.URL)
			p.raw(`">`)
		}
		p.raw(`<meta property="og:title" content="`)
		p.text(title)
		p.raw(`"><meta property="og:type" content="`)
		p.text(ogType)
		p.raw(`">`)
		if meta.Image != "" {
			p.raw(`<meta property="og:image" content="`)
			p.text(meta.Image)
			p.raw(`">`)
		}
		p.raw(`<link rel="alternate" type="application/rss+xml" href="/feed.xml"><link rel="alternate" type="application/atom+xml" href="/atom.xml">`)
		p.raw(`<link rel="stylesheet" href="/public/site.css"><link rel="stylesheet" href="/public/syntax.css">`)
		if meta.JSONLD != "" {
			// json.Marshal escapes <, > and &, so the block cannot close the script early
			p.raw(`<script type="application/ld+json">` + meta.JSONLD + `</script>`)
		}
		p.raw(`</head><body><header class="site-header"><a href="/">`)
		p.text(cfg.Name)
		p.raw(`</a></header><main>`)
		p.component(body)
		p.raw(`</main><footer class="site-footer">`)
		if cfg.Author != "" {
			p.raw(`&copy; `)
			p.text(cfg.Author)
		}
		p.raw(`</footer></body></html>`)
	})
}

func tagPills(p *pageWriter, base string, tags []string, active string) {
	if len(tags) == 0 {
		return
	}
	p.raw(`<nav class="tags">`)
	for _, t := range tags {
		key := TagKey(t)
		p.raw(`<a class="` + TagClass(key == TagKey(active)) + `" href="` + base)
		p.text(PathEscape(key))
		p.raw(`/">`)
		p.text(t)
		p.raw(`</a>`)
	}
	p.raw(`</nav>`)
}

// byline writes the date and category links under a post title.
func byline(p *pageWriter, post PostView) {
	p.raw(`<p class="byline"><time datetime="`)
	p.text(post.Date.Format("2006-01-02T15:04:05Z07:00"))
	p.raw(`">`)
	p.text(post.Date.Format("January 2, 2006"))
	p.raw(`</time>`)
	for i, c := range post.Categories {
		if i == 0 {
			p.raw(` · `)
		} else {
			p.raw(`, `)
		}
		p.raw(`<a class="category" href="/categories/`)
		p.text(PathEscape(TagKey(c)))
		p.raw(`/">`)
		p.text(c)
		p.raw(`</a>`)
	}
	p.raw(`</p>`)
}

func postList(p *pageWriter, posts []PostView) {
	if len(posts) == 0 {
		p.raw(`<p class="empty">No posts yet.</p>`)
		return
	}
	p.raw(`<ul class="post-list">`)
	for _, post := range posts {
		p.raw(`<li><a href="`)
		p.text(post.Link)
		p.raw(`"><h2>`)
		p.text(post.Title)
		p.raw(`</h2></a>`)
		byline(p, post)
		if post.Summary != "" {
			p.raw(`<p class="summary">`)
			p.text(post.Summary)
			p.raw(`</p>`)
		}
		tagPills(p, "/tags/", post.Tags, "")
		p.raw(`</li>`)
	}
	p.raw(`</ul>`)
}

// Home lists posts, newest first, with the tag cloud.
func Home(cfg SiteConfig, posts []PostView, tags []string, activeTag string) templ.Component {
	meta := PageMeta{
		Title:       cfg.Name,
		Description: cfg.Description,
		URL:         buildURL(cfg.URL),
		JSONLD:      WebsiteJsonLD(cfg),
	}
	return Layout(cfg, meta, component(func(p *pageWriter) {
		if cfg.Description != "" {
			p.raw(`<p class="lede">`)
			p.text(cfg.Description)
			p.raw(`</p>`)
		}
		tagPills(p, "/tags/", tags, activeTag)
		postList(p, posts)
	}))
}

// Listing shows the posts of one tag or category. kind is "tags" or "categories".
func Listing(cfg SiteConfig, kind, name string, posts []PostView) templ.Component {
	heading := "Posts tagged “" + name + "”"
	if kind == "categories" {
		heading = "Category: " + name
	}
	meta := PageMeta{
		Title: heading,
		URL:   buildURL(cfg.URL, kind, name),
	}
	return Layout(cfg, meta, component(func(p *pageWriter) {
		p.raw(`<h1>`)
		p.text(heading)
		p.raw(`</h1>`)
		postList(p, posts)
	}))
}

// PostPage renders a single post with its header, body and related posts.
func PostPage(cfg SiteConfig, post PostView, related []PostView) templ.Component {
	meta := PageMeta{
		Title:       post.Title,
		Description: post.Summary,
		URL:         buildURL(cfg.URL, "blog", post.Slug),
		OGType:      "article",
		Image:       post.HeaderImage,
		JSONLD:      BlogPostingJsonLD(cfg, post),
	}
	return Layout(cfg, meta, component(func(p *pageWriter) {
		p.raw(`<article class="post">`)
		if post.HeaderImage != "" {
			p.raw(`<div class="page-hero" style="`)
			p.text(OverlayStyle(post))
			p.raw(`"><h1>`)
			p.text(post.Title)
			p.raw(`</h1></div>`)
		} else {
			p.raw(`<h1>`)
			p.text(post.Title)
			p.raw(`</h1>`)
		}
		byline(p, post)
		tagPills(p, "/tags/", post.Tags, "")
		p.raw(`<div class="post-body">`)
		p.raw(post.Body)
		p.raw(`</div></article>`)
		if len(related) > 0 {
			p.raw(`<aside class="related"><h2>Related posts</h2><ul>`)
			for _, r := range related {
				p.raw(`<li><a href="`)
				p.text(r.Link)
				p.raw(`">`)
				p.text(r.Title)
				p.raw(`</a></li>`)
			}
			p.raw(`</ul></aside>`)
		}
	}))
}

// AdminLogin renders the author sign-in form.
func AdminLogin(cfg SiteConfig, showError bool, csrfToken string) templ.Component {
	return Layout(cfg, PageMeta{Title: "Sign in"}, component(func(p *pageWriter) {
		p.raw(`<h1>Sign in</h1>`)
		if showError {
			p.raw(`<p class="severity-error">Wrong password.</p>`)
		}
		p.raw(`<form method="post" action="/admin/login/"><input type="hidden" name="_csrf" value="`)
		p.text(csrfToken)
		p.raw(`"><input type="password" name="password" autocomplete="current-password" required><button type="submit">Sign in</button></form>`)
	}))
}

// LintReport renders the author dashboard: the lint findings for every document.
func LintReport(cfg SiteConfig, documents int, rows []LintRow, message, csrfToken string) templ.Component {
	return Layout(cfg, PageMeta{Title: "Content report"}, component(func(p *pageWriter) {
		p.raw(`<h1>Content report</h1>`)
		if message != "" {
			p.raw(`<p class="flash">`)
			p.text(message)
			p.raw(`</p>`)
		}
		p.raw(`<p>`)
		p.text(strconv.Itoa(documents) + " documents, " + strconv.Itoa(len(rows)) + " issues")
		p.raw(`</p>`)
		if len(rows) > 0 {
			p.raw(`<table class="lint-table"><thead><tr><th>Document</th><th>Line</th><th>Field</th><th>Severity</th><th>Message</th></tr></thead><tbody>`)
			for _, r := range rows {
				p.raw(`<tr><td>`)
				p.text(r.Path)
				p.raw(`</td><td>`)
				if r.Line > 0 {
					p.text(strconv.Itoa(r.Line))
				}
				p.raw(`</td><td>`)
				p.text(r.Field)
				p.raw(`</td><td class="severity-`)
				p.text(r.Severity)
				p.raw(`">`)
				p.text(r.Severity)
				p.raw(`</td><td>`)
				p.text(r.Message)
				p.raw(`</td></tr>`)
			}
			p.raw(`</tbody></table>`)
		}
		for _, form := range []struct{ action, label string }{
			{"/admin/reload/", "Reload content"},
			{"/admin/logout/", "Sign out"},
		} {
			p.raw(`<form method="post" action="` + form.action + `"><input type="hidden" name="_csrf" value="`)
			p.text(csrfToken)
			p.raw(`"><button type="submit">` + form.label + `</button></form>`)
		}
	}))
}

// NotFound renders the 404 page.
func NotFound(cfg SiteConfig) templ.Component {
	return Layout(cfg, PageMeta{Title: "Not found"}, component(func(p *pageWriter) {
		p.raw(`<h1>Not found</h1><p>That page does not exist. <a href="/">Back to all posts</a>.</p>`)
	}))
}

// ServerError renders the 500 page.
func ServerError(cfg SiteConfig) templ.Component {
	return Layout(cfg, PageMeta{Title: "Something went wrong"}, component(func(p *pageWriter) {
		p.raw(`<h1>Something went wrong</h1><p>Please try again later.</p>`)
	}))
}
