package views

import "time"

// SiteConfig holds site-wide settings passed to every page so nothing is hardcoded.
type SiteConfig struct {
	Name        string
	URL         string
	Description string
	Author      string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
	JSONLD      string
}

// PostView is a post prepared for display.
type PostView struct {
	Title         string
	Slug          string
	Link          string
	Date          time.Time
	Categories    []string
	Tags          []string
	Summary       string
	HeaderImage   string
	OverlayFilter float64
	HasOverlay    bool
	Languages     []string
	Body          string // rendered HTML
}

// LintRow is one line of the author lint report.
type LintRow struct {
	Path     string
	Line     int
	Field    string
	Message  string
	Severity string
}
