// Package pubcontent is a content store for Markdown blog posts with
// Jekyll-style front matter. It parses and lints documents, renders them to
// HTML or terminal text, publishes a static site and serves a live preview.
package pubcontent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// App is the preview server. It wires together the content store, the
// catalog, the cache, the handlers and the middleware.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Content *ContentStore
	Catalog *Catalog
	Cache   *PostCache
	Site    *Site
	Linter  *Linter

	loginLimiter *LoginLimiter
	logger       *zap.Logger
	customRoutes []func(*App)
	now          func() time.Time

	mu     sync.RWMutex
	report Report
}

// New creates an App for cfg. Nothing is opened until Init.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init opens the content store and the catalog, loads every post and
// registers middleware and routes. Start calls it; tests call it directly.
func (a *App) Init(ctx context.Context) error {
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("pubcontent: config: %w", err)
	}

	if a.Content == nil {
		store, err := OpenContentStore(a.Config.ContentDir,
			WithDrafts(a.Config.IncludeDrafts),
			WithStoreLogger(a.logger))
		if err != nil {
			return fmt.Errorf("pubcontent: open content: %w", err)
		}
		a.Content = store
	}

	catalog, err := NewCatalog(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("pubcontent: init catalog: %w", err)
	}
	a.Catalog = catalog
	a.Cache = NewPostCache(a.Catalog, a.Config.PostCacheTTL)
	a.Site = NewSite(a.Config, a.logger)

	var lintOpts []LintOption
	if info, err := os.Stat(a.Config.StaticDir); err == nil && info.IsDir() {
		lintOpts = append(lintOpts, WithAssets(os.DirFS(a.Config.StaticDir)))
	}
	if a.Linter, err = NewLinter(lintOpts...); err != nil {
		return err
	}

	if a.Config.AdminEnabled() {
		a.loginLimiter = NewLoginLimiter(5, time.Minute)
	}

	if err := a.Reload(ctx); err != nil {
		return err
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start initializes the app and serves until ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(ctx); err != nil {
		return err
	}
	return a.Serve(ctx)
}

// Serve listens on Config.Addr until ctx is cancelled, then shuts down
// gracefully. Init must have been called.
func (a *App) Serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		a.logger.Info("preview server listening", zap.String("addr", a.Config.Addr))
		errc <- a.Echo.Start(a.Config.Addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("pubcontent: shutdown: %w", err)
	}
	return nil
}

// Reload re-reads the content store into the catalog and refreshes the
// lint report. Broken documents are logged and left out.
func (a *App) Reload(ctx context.Context) error {
	posts, err := a.Content.Load(ctx)
	if err != nil {
		var docErr *DocumentError
		if !errors.As(err, &docErr) {
			return err
		}
		for _, e := range unwrapJoined(err) {
			a.logger.Warn("skipping document", zap.Error(e))
		}
	}
	if err := a.Catalog.Replace(ctx, posts); err != nil {
		return err
	}
	a.Cache.Invalidate()

	report, err := a.Linter.LintStore(ctx, a.Content)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.report = report
	a.mu.Unlock()

	a.logger.Info("content loaded",
		zap.Int("posts", len(posts)),
		zap.Int("lint_errors", report.Errors()),
		zap.Int("lint_warnings", report.Warnings()))
	return nil
}

// Report returns the lint report of the last Reload.
func (a *App) Report() Report {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.report
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/public/site.css", a.handleSiteCSS)
	e.GET("/public/syntax.css", a.handleSyntaxCSS)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/atom.xml", a.handleAtom)
	e.GET("/blog", handleBlogRedirect)
	e.GET("/", a.handleHome)
	e.GET("/blog/:slug/", a.handlePost)
	e.GET("/tags/:tag/", a.handleTag)
	e.GET("/categories/:category/", a.handleCategory)

	if a.Config.AdminEnabled() {
		e.GET("/admin/", a.handleAdmin)
		e.POST("/admin/login/", a.handleAdminLogin)
		e.POST("/admin/logout/", handleAdminLogout)
		e.POST("/admin/reload/", a.handleAdminReload)
	}

	// Header images and anything else posts link to from the site root.
	e.Static("/", a.Config.StaticDir)
}

// Close releases the catalog and stops background work.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Close()
	}
	if a.Catalog != nil {
		return a.Catalog.Close()
	}
	return nil
}

// unwrapJoined flattens an errors.Join result.
func unwrapJoined(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
