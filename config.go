package pubcontent

import (
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"
)

// SiteConfig holds all configuration for a pubcontent site.
type SiteConfig struct {
	Name        string // Site name (default "Blog")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for feeds and meta tags
	Author      string // Author name for feeds and JSON-LD

	ContentDir    string // Post documents (default "content")
	StaticDir     string // Files served from the site root, header images included (default "static")
	OutputDir     string // Static build output (default "public")
	DatabasePath  string // SQLite catalog for the preview server (default "data/catalog.db")
	IncludeDrafts bool   // Read _drafts/ as well

	Addr          string // Preview listen address (default ":3000")
	AdminPassword string // Enables the author area when set
	SessionSecret string // Required with AdminPassword
	CookieSecure  bool   // Set true for HTTPS

	SyntaxStyle         string        // chroma style (default "github")
	HeaderImageMaxWidth int           // Header images wider than this are scaled down (default 1600)
	PostCacheTTL        time.Duration // Preview cache TTL (default 5min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	if c.StaticDir == "" {
		c.StaticDir = "static"
	}
	if c.OutputDir == "" {
		c.OutputDir = "public"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/catalog.db"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.SyntaxStyle == "" {
		c.SyntaxStyle = "github"
	}
	if c.HeaderImageMaxWidth == 0 {
		c.HeaderImageMaxWidth = 1600
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
}

// AdminEnabled reports whether the author area is configured.
func (c SiteConfig) AdminEnabled() bool {
	return c.AdminPassword != ""
}

// Validate checks the configuration after defaults are applied.
func (c SiteConfig) Validate() error {
	c.setDefaults()
	return validation.ValidateStruct(&c,
		validation.Field(&c.URL, validation.Required, is.URL),
		validation.Field(&c.ContentDir, validation.Required),
		validation.Field(&c.HeaderImageMaxWidth, validation.Min(1)),
		validation.Field(&c.SessionSecret,
			validation.When(c.AdminEnabled(), validation.Required.Error("is required when an admin password is set"), validation.Length(16, 0)),
		),
	)
}

// ConfigFromEnv reads a SiteConfig from environment variables.
func ConfigFromEnv() SiteConfig {
	cfg := SiteConfig{
		Name:          EnvOr("SITE_NAME", ""),
		URL:           EnvOr("SITE_URL", ""),
		Description:   EnvOr("SITE_DESCRIPTION", ""),
		Author:        EnvOr("SITE_AUTHOR", ""),
		ContentDir:    EnvOr("CONTENT_DIR", ""),
		StaticDir:     EnvOr("STATIC_DIR", ""),
		OutputDir:     EnvOr("OUTPUT_DIR", ""),
		DatabasePath:  EnvOr("DATABASE_PATH", ""),
		Addr:          EnvOr("ADDR", ""),
		AdminPassword: EnvOr("ADMIN_PASSWORD", ""),
		SessionSecret: EnvOr("ADMIN_SESSION_SECRET", ""),
		SyntaxStyle:   EnvOr("SYNTAX_STYLE", ""),
	}
	cfg.CookieSecure, _ = strconv.ParseBool(EnvOr("COOKIE_SECURE", "false"))
	cfg.IncludeDrafts, _ = strconv.ParseBool(EnvOr("INCLUDE_DRAFTS", "false"))
	if w, err := strconv.Atoi(EnvOr("HEADER_IMAGE_MAX_WIDTH", "0")); err == nil {
		cfg.HeaderImageMaxWidth = w
	}
	cfg.setDefaults()
	return cfg
}

// Option configures additional App behavior.
type Option func(*App)

// WithLogger sets the structured logger used by the app.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithContentStore replaces the store opened from Config.ContentDir.
func WithContentStore(s *ContentStore) Option {
	return func(a *App) {
		a.Content = s
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithClock overrides the time source used to hide future-dated posts.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}
