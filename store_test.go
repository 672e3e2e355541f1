package pubcontent

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"
)

func doc(title, date string, tags ...string) *fstest.MapFile {
	src := "---\ntitle: " + title + "\ndate: " + date + "\n"
	if len(tags) > 0 {
		src += "tags: ["
		for i, t := range tags {
			if i > 0 {
				src += ", "
			}
			src += t
		}
		src += "]\n"
	}
	src += "---\nBody of " + title + ".\n"
	return &fstest.MapFile{Data: []byte(src)}
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"_posts/2020-05-28-swift.md":   {Data: []byte(swiftPost)},
		"_posts/2021-01-10-go.md":      doc("Go", "2021-01-10 09:00:00 +0000", "go"),
		"_posts/2019-03-02-old.markdown": doc("Old", "2019-03-02 10:00:00 +0100"),
		"_posts/notes.txt":             {Data: []byte("not a post")},
		"_drafts/idea.md":              doc("Idea", "2022-01-01 00:00:00 +0000"),
		".git/HEAD.md":                 {Data: []byte("ignored")},
		"pages/.hidden.md":             {Data: []byte("ignored")},
	}
}

func TestContentStorePaths(t *testing.T) {
	s := NewContentStore(testFS())
	got, err := s.Paths(context.Background())
	if err != nil {
		t.Fatalf("Paths: %v", err)
	}
	want := []string{
		"_posts/2019-03-02-old.markdown",
		"_posts/2020-05-28-swift.md",
		"_posts/2021-01-10-go.md",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Paths mismatch (-want +got):\n%s", diff)
	}

	withDrafts := NewContentStore(testFS(), WithDrafts(true))
	got, err = withDrafts.Paths(context.Background())
	if err != nil {
		t.Fatalf("Paths: %v", err)
	}
	if len(got) != 4 || got[0] != "_drafts/idea.md" {
		t.Errorf("Paths with drafts = %v", got)
	}
}

func TestContentStoreAllIsRestartable(t *testing.T) {
	s := NewContentStore(testFS())
	ctx := context.Background()

	collect := func() []string {
		var slugs []string
		for post, err := range s.All(ctx) {
			if err != nil {
				t.Fatalf("All: %v", err)
			}
			slugs = append(slugs, post.Slug)
		}
		return slugs
	}
	first := collect()
	second := collect()
	want := []string{"old", "swift", "go"}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("first pass mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second pass differs (-first +second):\n%s", diff)
	}
}

func TestContentStoreAllStopsEarly(t *testing.T) {
	s := NewContentStore(testFS())
	n := 0
	for range s.All(context.Background()) {
		n++
		break
	}
	if n != 1 {
		t.Errorf("iterations = %d, want 1", n)
	}
}

func TestContentStoreAllYieldsDocumentErrors(t *testing.T) {
	fsys := testFS()
	fsys["_posts/2020-01-01-broken.md"] = &fstest.MapFile{Data: []byte("---\ntitle: Broken\n---\n")}
	s := NewContentStore(fsys)

	var good, bad int
	for _, err := range s.All(context.Background()) {
		if err != nil {
			var de *DocumentError
			if !errors.As(err, &de) {
				t.Fatalf("err = %v, want *DocumentError", err)
			}
			bad++
			continue
		}
		good++
	}
	if good != 3 || bad != 1 {
		t.Errorf("good, bad = %d, %d; want 3, 1", good, bad)
	}
}

func TestContentStoreLoad(t *testing.T) {
	fsys := testFS()
	fsys["_posts/2020-01-01-broken.md"] = &fstest.MapFile{Data: []byte("---\ntitle: Broken\n---\n")}
	fsys["_posts/2020-01-02-nodate.md"] = &fstest.MapFile{Data: []byte("---\ntitle: No offset\ndate: 2020-01-02 10:00:00\n---\n")}
	s := NewContentStore(fsys, WithParallelism(2))

	posts, err := s.Load(context.Background())
	if err == nil {
		t.Fatal("Load returned no error for broken documents")
	}
	if !errors.Is(err, ErrMissingField) || !errors.Is(err, ErrDateNoOffset) {
		t.Errorf("err = %v, want both document errors joined", err)
	}

	var slugs []string
	for _, p := range posts {
		slugs = append(slugs, p.Slug)
	}
	if diff := cmp.Diff([]string{"go", "swift", "old"}, slugs); diff != "" {
		t.Errorf("Load order mismatch (-want +got):\n%s", diff)
	}
}

func TestContentStoreLoadDuplicateSlugs(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		drafts   bool
		wantKept string
		wantErr  string
	}{
		{
			name: "two dated posts",
			files: map[string]string{
				"_posts/2020-01-01-hello.md": "2020-01-01 00:00:00 +0000",
				"_posts/2021-01-01-hello.md": "2021-01-01 00:00:00 +0000",
			},
			wantKept: "_posts/2020-01-01-hello.md",
			wantErr:  "_posts/2021-01-01-hello.md",
		},
		{
			name: "draft and post",
			files: map[string]string{
				"_drafts/hello.md":           "2020-01-01 00:00:00 +0000",
				"_posts/2021-01-01-hello.md": "2021-01-01 00:00:00 +0000",
			},
			drafts:   true,
			wantKept: "_posts/2021-01-01-hello.md",
			wantErr:  "_drafts/hello.md",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{}
			for name, date := range tt.files {
				fsys[name] = doc("Hello", date)
			}
			posts, err := NewContentStore(fsys, WithDrafts(tt.drafts)).Load(context.Background())
			if !errors.Is(err, ErrDuplicateSlug) {
				t.Fatalf("err = %v, want ErrDuplicateSlug", err)
			}
			var de *DocumentError
			if !errors.As(err, &de) || de.Path != tt.wantErr {
				t.Errorf("DocumentError = %+v, want path %s", de, tt.wantErr)
			}
			if len(posts) != 1 || posts[0].Path != tt.wantKept {
				t.Errorf("posts = %v, want only %s", posts, tt.wantKept)
			}
		})
	}
}

func TestContentStoreLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewContentStore(testFS()).Load(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestContentStoreRead(t *testing.T) {
	s := NewContentStore(testFS())
	post, err := s.Read(context.Background(), "_posts/2021-01-10-go.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if post.Title != "Go" || !post.Date.Equal(time.Date(2021, 1, 10, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("Read = %q at %v", post.Title, post.Date)
	}

	_, err = s.Read(context.Background(), "_posts/missing.md")
	var de *DocumentError
	if !errors.As(err, &de) {
		t.Errorf("err = %v, want *DocumentError", err)
	}
}

func TestOpenContentStore(t *testing.T) {
	if _, err := OpenContentStore(t.TempDir()); err != nil {
		t.Errorf("OpenContentStore(dir): %v", err)
	}
	if _, err := OpenContentStore("does/not/exist"); err == nil {
		t.Error("OpenContentStore(missing) returned no error")
	}
}
