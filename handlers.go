package pubcontent

import (
	"errors"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/pubcontent/views"
)

// Render writes a templ component as a 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with the given status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response())
}

// visibleUntil hides future-dated posts from everyone but a signed-in author.
func (a *App) visibleUntil(c echo.Context) time.Time {
	if a.Config.AdminEnabled() && IsAdmin(c) {
		return time.Time{}
	}
	return a.now()
}

func (a *App) listViews(c echo.Context, f Filter) ([]views.PostView, error) {
	f.Until = a.visibleUntil(c)
	posts, err := a.Cache.ListPosts(c.Request().Context(), f)
	if err != nil {
		return nil, err
	}
	return a.Site.Views(posts)
}

func (a *App) handleHome(c echo.Context) error {
	tag := c.QueryParam("tag")
	posts, err := a.listViews(c, Filter{Tag: tag})
	if err != nil {
		return err
	}
	tags, err := a.Cache.ListTags(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, views.Home(a.Site.ViewConfig(), posts, tags, tag))
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	post, err := a.Cache.GetPost(ctx, c.Param("slug"))
	if errors.Is(err, ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, views.NotFound(a.Site.ViewConfig()))
	}
	if err != nil {
		return err
	}
	until := a.visibleUntil(c)
	if !until.IsZero() && post.Date.After(until) {
		return RenderStatus(c, http.StatusNotFound, views.NotFound(a.Site.ViewConfig()))
	}
	all, err := a.Cache.ListPosts(ctx, Filter{Until: until})
	if err != nil {
		return err
	}
	data, err := a.Site.PostPage(post, all)
	if err != nil {
		return err
	}
	return Render(c, views.PostPage(a.Site.ViewConfig(), data.Post, data.Related))
}

func (a *App) handleTag(c echo.Context) error {
	tag := c.Param("tag")
	posts, err := a.listViews(c, Filter{Tag: tag})
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		return echo.ErrNotFound
	}
	return Render(c, views.Listing(a.Site.ViewConfig(), "tags", tag, posts))
}

func (a *App) handleCategory(c echo.Context) error {
	category := c.Param("category")
	posts, err := a.listViews(c, Filter{Category: category})
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		return echo.ErrNotFound
	}
	return Render(c, views.Listing(a.Site.ViewConfig(), "categories", category, posts))
}

func (a *App) feedPosts(c echo.Context) ([]views.PostView, error) {
	// Feeds never show future posts, signed in or not.
	posts, err := a.Cache.ListPosts(c.Request().Context(), Filter{Until: a.now()})
	if err != nil {
		return nil, err
	}
	return a.Site.Views(posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.feedPosts(c)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return WriteRSS(c.Response(), a.Config, posts)
}

func (a *App) handleAtom(c echo.Context) error {
	posts, err := a.feedPosts(c)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/atom+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return WriteAtom(c.Response(), a.Config, posts)
}

func (a *App) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()
	posts, err := a.Cache.ListPosts(ctx, Filter{Until: a.now()})
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return WriteSitemap(c.Response(), a.Config, posts)
}

func (a *App) handleSiteCSS(c echo.Context) error {
	css, err := EmbeddedAssets.ReadFile(cssAsset)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", css)
}

func (a *App) handleSyntaxCSS(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/css; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return a.Site.Markdown.WriteCSS(c.Response())
}

func handleBlogRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(a.Site.ViewConfig()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.logger.Error("server error",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err))
		_ = RenderStatus(c, code, views.ServerError(a.Site.ViewConfig()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
