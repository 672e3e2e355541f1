package pubcontent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path"
	"runtime"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const draftsDir = "_drafts"

var postExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
}

// ContentStore enumerates posts from a directory tree of Markdown documents.
// It holds no state besides its configuration, so every read sees the files
// as they are on disk at that moment.
type ContentStore struct {
	fsys   fs.FS
	drafts bool
	limit  int
	logger *zap.Logger
}

// StoreOption configures a ContentStore.
type StoreOption func(*ContentStore)

// WithDrafts includes documents under _drafts/.
func WithDrafts(include bool) StoreOption {
	return func(s *ContentStore) { s.drafts = include }
}

// WithParallelism bounds how many documents Load parses at once.
func WithParallelism(n int) StoreOption {
	return func(s *ContentStore) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithStoreLogger sets the logger used for enumeration diagnostics.
func WithStoreLogger(l *zap.Logger) StoreOption {
	return func(s *ContentStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewContentStore creates a store reading from fsys.
func NewContentStore(fsys fs.FS, opts ...StoreOption) *ContentStore {
	s := &ContentStore{
		fsys:   fsys,
		limit:  runtime.GOMAXPROCS(0),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenContentStore creates a store over the directory dir.
func OpenContentStore(dir string, opts ...StoreOption) (*ContentStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("pubcontent: open content dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("pubcontent: open content dir: %s is not a directory", dir)
	}
	return NewContentStore(os.DirFS(dir), opts...), nil
}

// FS exposes the underlying filesystem.
func (s *ContentStore) FS() fs.FS { return s.fsys }

// Paths returns the slash-separated paths of every post document, sorted.
func (s *ContentStore) Paths(ctx context.Context) ([]string, error) {
	var paths []string
	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		name := d.Name()
		if d.IsDir() {
			if p == "." {
				return nil
			}
			if strings.HasPrefix(name, ".") || (name == draftsDir && !s.drafts) {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !postExtensions[strings.ToLower(path.Ext(name))] {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pubcontent: walk content: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Source returns the raw bytes of the document at p.
func (s *ContentStore) Source(p string) ([]byte, error) {
	return fs.ReadFile(s.fsys, p)
}

// Read parses the single document at p.
func (s *ContentStore) Read(ctx context.Context, p string) (Post, error) {
	if err := ctx.Err(); err != nil {
		return Post{}, err
	}
	src, err := s.Source(p)
	if err != nil {
		return Post{}, &DocumentError{Path: p, Err: err}
	}
	return ParsePost(p, src)
}

// All lazily yields every post in path order. Each range over the returned
// sequence walks the store again, so the sequence can be restarted. A failed
// walk is yielded once with a zero Post; per-document failures are yielded
// as *DocumentError and enumeration continues.
func (s *ContentStore) All(ctx context.Context) iter.Seq2[Post, error] {
	return func(yield func(Post, error) bool) {
		paths, err := s.Paths(ctx)
		if err != nil {
			yield(Post{}, err)
			return
		}
		for _, p := range paths {
			if ctx.Err() != nil {
				yield(Post{}, ctx.Err())
				return
			}
			post, err := s.Read(ctx, p)
			if !yield(post, err) {
				return
			}
		}
	}
}

// Load parses every document concurrently. It returns the posts that parsed,
// newest first, and an errors.Join of the documents that did not.
func (s *ContentStore) Load(ctx context.Context) ([]Post, error) {
	paths, err := s.Paths(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		posts   = make([]Post, 0, len(paths))
		docErrs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for _, p := range paths {
		g.Go(func() error {
			post, err := s.Read(gctx, p)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				var docErr *DocumentError
				if errors.As(err, &docErr) {
					docErrs = append(docErrs, err)
					return nil
				}
				return err
			}
			posts = append(posts, post)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	posts, dupErrs := uniqueSlugs(posts)
	docErrs = append(docErrs, dupErrs...)
	SortByDate(posts)
	sort.Slice(docErrs, func(i, j int) bool { return docErrs[i].Error() < docErrs[j].Error() })
	s.logger.Debug("content loaded",
		zap.Int("posts", len(posts)),
		zap.Int("errors", len(docErrs)),
	)
	return posts, errors.Join(docErrs...)
}

// uniqueSlugs keeps one post per slug and returns a *DocumentError for each
// post it drops. Published posts win over drafts, then the lower path wins.
func uniqueSlugs(posts []Post) ([]Post, []error) {
	order := make([]int, len(posts))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := posts[order[i]], posts[order[j]]
		if da, db := isDraftPath(a.Path), isDraftPath(b.Path); da != db {
			return db
		}
		return a.Path < b.Path
	})
	owner := make(map[string]string, len(posts))
	drop := make(map[int]bool)
	var errs []error
	for _, i := range order {
		p := posts[i]
		if first, ok := owner[p.Slug]; ok {
			drop[i] = true
			errs = append(errs, &DocumentError{
				Path: p.Path,
				Err:  fmt.Errorf("%w: %q is taken by %s", ErrDuplicateSlug, p.Slug, first),
			})
			continue
		}
		owner[p.Slug] = p.Path
	}
	if len(drop) == 0 {
		return posts, nil
	}
	kept := make([]Post, 0, len(posts)-len(drop))
	for i, p := range posts {
		if !drop[i] {
			kept = append(kept, p)
		}
	}
	return kept, errs
}

func isDraftPath(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == draftsDir {
			return true
		}
	}
	return false
}
