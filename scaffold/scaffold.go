// Package scaffold holds the templates behind "pubcontent init" and
// "pubcontent new".
package scaffold

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"
)

// Templates contains all scaffold template files.
// Files use Go text/template syntax and have a .tmpl suffix.
//
//go:embed all:templates
var Templates embed.FS

// SiteData is passed to every template under templates/site.
type SiteData struct {
	SiteName string
	Date     string // front matter date of the welcome post
}

// PostData is passed to templates/post.md.tmpl.
type PostData struct {
	FrontMatter string // complete metadata block, delimiters included
	Summary     string
	Language    string
}

// WritePost renders a new post document to w.
func WritePost(w io.Writer, data PostData) error {
	tmpl, err := template.ParseFS(Templates, "templates/post.md.tmpl")
	if err != nil {
		return err
	}
	if data.Language == "" {
		data.Language = "text"
	}
	return tmpl.Execute(w, data)
}

// WriteSite creates a site skeleton in dir, which must not exist yet. It
// returns the files it created.
func WriteSite(dir string, data SiteData) ([]string, error) {
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("directory %q already exists", dir)
	}

	const root = "templates/site"
	var created []string
	err := fs.WalkDir(Templates, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
		outPath := filepath.Join(dir, filepath.FromSlash(strings.TrimSuffix(rel, ".tmpl")))

		switch path.Base(rel) {
		case "dotenv.tmpl":
			outPath = filepath.Join(filepath.Dir(outPath), ".env.example")
		case "gitignore.tmpl":
			outPath = filepath.Join(filepath.Dir(outPath), ".gitignore")
		}

		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return err
		}

		content, err := Templates.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()

		if !strings.HasSuffix(p, ".tmpl") {
			if _, err := f.Write(content); err != nil {
				return err
			}
			created = append(created, outPath)
			return nil
		}
		tmpl, err := template.New(path.Base(p)).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", p, err)
		}
		if err := tmpl.Execute(f, data); err != nil {
			return fmt.Errorf("execute template %s: %w", p, err)
		}
		created = append(created, outPath)
		return nil
	})
	return created, err
}

// ToTitle converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-blog" -> "My Blog", "myblog" -> "Myblog"
func ToTitle(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
