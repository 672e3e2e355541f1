package pubcontent

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const storedDateLayout = time.RFC3339Nano

// Catalog is a SQLite index of published posts. The content directory stays
// the source of truth; Replace rebuilds the index from it.
type Catalog struct {
	db *sql.DB
}

// NewCatalog opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewCatalog(path string) (*Catalog, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets preview readers proceed while a reload rewrites the index.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	if path == ":memory:" {
		// every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	}
	c := &Catalog{db: db}
	if err := c.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the underlying database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// schemaVersion is bumped whenever the posts table changes shape. The index
// is derived, so an older table is dropped rather than migrated.
const schemaVersion = 2

func (c *Catalog) ensureSchema() error {
	var version int
	if err := c.db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return err
	}
	if version != schemaVersion {
		if _, err := c.db.Exec(`DROP TABLE IF EXISTS posts`); err != nil {
			return err
		}
	}
	_, err := c.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    slug TEXT PRIMARY KEY,
    path TEXT NOT NULL,
    title TEXT NOT NULL,
    date TEXT NOT NULL,
    sort_key INTEGER NOT NULL,
    categories TEXT NOT NULL,
    category_keys TEXT NOT NULL,
    tags TEXT NOT NULL,
    tag_keys TEXT NOT NULL,
    overlay_image TEXT NOT NULL DEFAULT '',
    overlay_filter REAL,
    body TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS posts_sort_key ON posts (sort_key DESC);
PRAGMA user_version = ` + strconv.Itoa(schemaVersion) + `;
`)
	return err
}

// Replace swaps the whole index for posts in one transaction.
func (c *Catalog) Replace(ctx context.Context, posts []Post) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM posts`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO posts
		(slug, path, title, date, sort_key, categories, category_keys, tags, tag_keys, overlay_image, overlay_filter, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range posts {
		var filter sql.NullFloat64
		if p.Header.OverlayFilter != nil {
			filter = sql.NullFloat64{Float64: *p.Header.OverlayFilter, Valid: true}
		}
		categories, categoryKeys, err := encodeList(p.Categories)
		if err != nil {
			return fmt.Errorf("index %s: %w", p.Path, err)
		}
		tags, tagKeys, err := encodeList(p.Tags)
		if err != nil {
			return fmt.Errorf("index %s: %w", p.Path, err)
		}
		if _, err := stmt.ExecContext(ctx,
			p.Slug, p.Path, p.Title,
			p.Date.Format(storedDateLayout), p.Date.UnixNano(),
			categories, categoryKeys, tags, tagKeys,
			p.Header.OverlayImage, filter, p.Body,
		); err != nil {
			return fmt.Errorf("index %s: %w", p.Path, err)
		}
	}
	return tx.Commit()
}

const postColumns = `slug, path, title, date, categories, tags, overlay_image, overlay_filter, body`

// ListPosts returns posts matching f ordered by date descending.
func (c *Catalog) ListPosts(ctx context.Context, f Filter) ([]Post, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Tag != "" {
		where = append(where, `EXISTS (SELECT 1 FROM json_each(posts.tag_keys) WHERE json_each.value = ?)`)
		args = append(args, normalizeTag(f.Tag))
	}
	if f.Category != "" {
		where = append(where, `EXISTS (SELECT 1 FROM json_each(posts.category_keys) WHERE json_each.value = ?)`)
		args = append(args, normalizeTag(f.Category))
	}
	if !f.Until.IsZero() {
		where = append(where, `sort_key <= ?`)
		args = append(args, f.Until.UnixNano())
	}
	query := `SELECT ` + postColumns + ` FROM posts`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY sort_key DESC, slug ASC`

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPost returns a single post by slug.
func (c *Catalog) GetPost(ctx context.Context, slug string) (Post, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	return p, err
}

// ListTags returns a sorted, deduplicated slice of all tags.
func (c *Catalog) ListTags(ctx context.Context) ([]string, error) {
	return c.listKeys(ctx, "tag_keys")
}

// ListCategories returns a sorted, deduplicated slice of all categories.
func (c *Catalog) ListCategories(ctx context.Context) ([]string, error) {
	return c.listKeys(ctx, "category_keys")
}

func (c *Catalog) listKeys(ctx context.Context, column string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT DISTINCT k.value FROM posts, json_each(posts.`+column+`) AS k ORDER BY k.value`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(r rowScanner) (Post, error) {
	var (
		slug, path, title, date, categories, tags, image, body string
		filter                                                 sql.NullFloat64
	)
	if err := r.Scan(&slug, &path, &title, &date, &categories, &tags, &image, &filter, &body); err != nil {
		return Post{}, err
	}
	t, err := time.Parse(storedDateLayout, date)
	if err != nil {
		return Post{}, fmt.Errorf("stored date for %s: %w", slug, err)
	}
	p := Post{
		Metadata: Metadata{
			Title:      title,
			Date:       t,
			Categories: decodeList(categories),
			Tags:       decodeList(tags),
			Header:     Header{OverlayImage: image},
		},
		Path: path,
		Slug: slug,
		Body: body,
	}
	if filter.Valid {
		v := filter.Float64
		p.Header.OverlayFilter = &v
	}
	// bodies were balanced when indexed
	p.Fences, _ = ScanFences(body)
	return p, nil
}

// encodeList stores vals as a JSON array, plus a second array of the
// lowercase keys that filters compare against.
func encodeList(vals []string) (string, string, error) {
	keys := make([]string, 0, len(vals))
	for _, v := range vals {
		keys = append(keys, normalizeTag(v))
	}
	if vals == nil {
		vals = []string{}
	}
	raw, err := json.Marshal(vals)
	if err != nil {
		return "", "", err
	}
	rawKeys, err := json.Marshal(keys)
	if err != nil {
		return "", "", err
	}
	return string(raw), string(rawKeys), nil
}

func decodeList(s string) []string {
	var vals []string
	if err := json.Unmarshal([]byte(s), &vals); err != nil || len(vals) == 0 {
		return nil
	}
	return vals
}
