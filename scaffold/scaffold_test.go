package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWritePost(t *testing.T) {
	var b strings.Builder
	err := WritePost(&b, PostData{
		FrontMatter: "---\ntitle: Hello\n---\n",
		Summary:     "Intro.",
		Language:    "swift",
	})
	if err != nil {
		t.Fatalf("WritePost: %v", err)
	}
	out := b.String()
	if !strings.HasPrefix(out, "---\ntitle: Hello\n---\n") {
		t.Errorf("post does not start with the front matter:\n%s", out)
	}
	if !strings.Contains(out, "{% highlight swift %}") {
		t.Errorf("post lacks the highlight region:\n%s", out)
	}
}

func TestWritePostDefaultsLanguage(t *testing.T) {
	var b strings.Builder
	if err := WritePost(&b, PostData{FrontMatter: "---\n---\n"}); err != nil {
		t.Fatalf("WritePost: %v", err)
	}
	if !strings.Contains(b.String(), "{% highlight text %}") {
		t.Errorf("expected text highlight region, got:\n%s", b.String())
	}
}

func TestWriteSite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blog")
	created, err := WriteSite(dir, SiteData{SiteName: "My Blog", Date: "2024-01-02 03:04:05 +0000"})
	if err != nil {
		t.Fatalf("WriteSite: %v", err)
	}
	if len(created) == 0 {
		t.Fatal("WriteSite created no files")
	}

	env, err := os.ReadFile(filepath.Join(dir, ".env.example"))
	if err != nil {
		t.Fatalf("read .env.example: %v", err)
	}
	if !strings.Contains(string(env), "SITE_NAME=My Blog") {
		t.Errorf(".env.example = %q, want SITE_NAME filled in", env)
	}

	welcome, err := os.ReadFile(filepath.Join(dir, "content", "_posts", "welcome.md"))
	if err != nil {
		t.Fatalf("read welcome post: %v", err)
	}
	if !strings.Contains(string(welcome), "date: 2024-01-02 03:04:05 +0000") {
		t.Errorf("welcome post = %q, want the date filled in", welcome)
	}
	if _, err := os.Stat(filepath.Join(dir, ".gitignore")); err != nil {
		t.Errorf("expected .gitignore: %v", err)
	}
}

func TestWriteSiteRefusesExistingDir(t *testing.T) {
	if _, err := WriteSite(t.TempDir(), SiteData{}); err == nil {
		t.Fatal("expected an error for an existing directory")
	}
}

func TestToTitle(t *testing.T) {
	tests := map[string]string{
		"my-blog": "My Blog",
		"myblog":  "Myblog",
		"":        "",
	}
	for in, want := range tests {
		if got := ToTitle(in); got != want {
			t.Errorf("ToTitle(%q) = %q, want %q", in, got, want)
		}
	}
}
