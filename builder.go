package pubcontent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/a-h/templ"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/pubcontent/views"
)

// Builder writes a static copy of the site to a directory.
type Builder struct {
	Site          *Site
	OutputDir     string
	Static        fs.FS // copied to the output root; nil skips the copy
	IncludeFuture bool

	now    func() time.Time
	logger *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithStatic copies fsys into the output and resolves header images from it.
func WithStatic(fsys fs.FS) BuilderOption {
	return func(b *Builder) { b.Static = fsys }
}

// WithFuture publishes posts dated after the build time.
func WithFuture(include bool) BuilderOption {
	return func(b *Builder) { b.IncludeFuture = include }
}

// WithBuildClock overrides the time used to hold back future posts.
func WithBuildClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// WithBuildLogger sets the builder's logger.
func WithBuildLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder creates a Builder writing site pages to outDir.
func NewBuilder(site *Site, outDir string, opts ...BuilderOption) *Builder {
	b := &Builder{
		Site:      site,
		OutputDir: outDir,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildReport summarizes a build.
type BuildReport struct {
	Posts    int
	Pages    int
	Images   int
	Held     []string // slugs of future posts left out
	Duration time.Duration
}

// Build renders posts into OutputDir: the home page, one page per post, tag
// and category, the feeds, the sitemap and the stylesheets.
func (b *Builder) Build(ctx context.Context, posts []Post) (BuildReport, error) {
	start := time.Now()
	var report BuildReport

	now := b.now()
	published := make([]Post, 0, len(posts))
	for _, p := range posts {
		if !b.IncludeFuture && p.Date.After(now) {
			report.Held = append(report.Held, p.Slug)
			continue
		}
		published = append(published, p)
	}
	if _, dups := uniqueSlugs(published); len(dups) > 0 {
		return report, fmt.Errorf("pubcontent: %w", errors.Join(dups...))
	}
	SortByDate(published)
	report.Posts = len(published)

	if err := os.MkdirAll(b.OutputDir, 0o755); err != nil {
		return report, fmt.Errorf("pubcontent: create output dir: %w", err)
	}
	if b.Static != nil {
		if err := copyTree(b.Static, b.OutputDir); err != nil {
			return report, fmt.Errorf("pubcontent: copy static files: %w", err)
		}
	}

	pageViews := make([]views.PostView, len(published))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range published {
		g.Go(func() error {
			v, err := b.Site.View(p)
			if err != nil {
				return err
			}
			pageViews[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	cfg := b.Site.ViewConfig()
	var pages atomic.Int64
	write := func(rel string, c templ.Component) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := b.writePage(gctx, rel, c); err != nil {
				return err
			}
			pages.Add(1)
			return nil
		})
	}

	tags := CollectTags(published)
	write("", views.Home(cfg, pageViews, tags, ""))
	for i, p := range published {
		related := FilterRelatedPosts(p, published)
		if len(related) > 5 {
			related = related[:5]
		}
		rv := make([]views.PostView, 0, len(related))
		for _, r := range related {
			rv = append(rv, views.PostView{Title: r.Title, Slug: r.Slug, Link: r.Link(), Date: r.Date})
		}
		write(filepath.Join("blog", p.Slug), views.PostPage(cfg, pageViews[i], rv))
	}
	for _, t := range tags {
		if !safeSegment(t) {
			b.logger.Warn("skipping tag page", zap.String("tag", t))
			continue
		}
		write(filepath.Join("tags", t), views.Listing(cfg, "tags", t, filterViews(published, pageViews, Filter{Tag: t})))
	}
	for _, c := range CollectCategories(published) {
		if !safeSegment(c) {
			b.logger.Warn("skipping category page", zap.String("category", c))
			continue
		}
		write(filepath.Join("categories", c), views.Listing(cfg, "categories", c, filterViews(published, pageViews, Filter{Category: c})))
	}
	write("404", views.NotFound(cfg))

	files := map[string]func(io.Writer) error{
		"feed.xml":    func(w io.Writer) error { return WriteRSS(w, b.Site.Config, pageViews) },
		"atom.xml":    func(w io.Writer) error { return WriteAtom(w, b.Site.Config, pageViews) },
		"sitemap.xml": func(w io.Writer) error { return WriteSitemap(w, b.Site.Config, published) },
		filepath.Join("public", "syntax.css"): b.Site.Markdown.WriteCSS,
		filepath.Join("public", "site.css"): func(w io.Writer) error {
			css, err := EmbeddedAssets.ReadFile(cssAsset)
			if err != nil {
				return err
			}
			_, err = w.Write(css)
			return err
		},
	}
	for name, fn := range files {
		g.Go(func() error { return writeFile(filepath.Join(b.OutputDir, name), fn) })
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	report.Pages = int(pages.Load())

	n, err := b.publishImages(published)
	report.Images = n
	report.Duration = time.Since(start)
	if err != nil {
		return report, err
	}

	b.logger.Info("site built",
		zap.String("out", b.OutputDir),
		zap.Int("posts", report.Posts),
		zap.Int("pages", report.Pages),
		zap.Int("images", report.Images),
		zap.Int("held", len(report.Held)),
		zap.Duration("took", report.Duration))
	return report, nil
}

func (b *Builder) publishImages(posts []Post) (int, error) {
	if b.Static == nil {
		return 0, nil
	}
	seen := make(map[string]bool)
	var (
		n    int
		errs []error
	)
	for _, p := range posts {
		ref := p.Header.OverlayImage
		if !isLocalAsset(ref) || seen[ref] {
			continue
		}
		seen[ref] = true
		resized, err := publishHeaderImage(b.Static, ref, b.OutputDir, b.Site.Config.HeaderImageMaxWidth)
		if errors.Is(err, fs.ErrNotExist) {
			b.logger.Warn("header image not found", zap.String("post", p.Slug), zap.String("image", ref))
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("pubcontent: header image of %s: %w", p.Slug, err))
			continue
		}
		if resized {
			n++
		}
	}
	return n, errors.Join(errs...)
}

func (b *Builder) writePage(ctx context.Context, rel string, c templ.Component) error {
	name := filepath.Join(b.OutputDir, rel, "index.html")
	if rel == "404" {
		name = filepath.Join(b.OutputDir, "404.html")
	}
	return writeFile(name, func(w io.Writer) error { return c.Render(ctx, w) })
}

func filterViews(posts []Post, pv []views.PostView, f Filter) []views.PostView {
	var out []views.PostView
	for i, p := range posts {
		if f.Match(p) {
			out = append(out, pv[i])
		}
	}
	return out
}

// safeSegment reports whether s can be used as a single directory name.
func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

func writeFile(name string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		f.Close()
		return fmt.Errorf("pubcontent: write %s: %w", name, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func copyTree(src fs.FS, dst string) error {
	return fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dst, filepath.FromSlash(p))
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return os.MkdirAll(target, 0o755)
		}
		in, err := src.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()
		return writeFile(target, func(w io.Writer) error {
			_, err := io.Copy(w, in)
			return err
		})
	})
}
