package pubcontent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Severity grades a lint issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one authoring problem found in a document.
type Issue struct {
	Path     string
	Line     int // 1-based document line, 0 when the issue is not tied to a line
	Field    string
	Message  string
	Severity Severity
}

func (i Issue) String() string {
	loc := i.Path
	if i.Line > 0 {
		loc = fmt.Sprintf("%s:%d", i.Path, i.Line)
	}
	return fmt.Sprintf("%s: %s: %s: %s", loc, i.Severity, i.Field, i.Message)
}

// Report collects the issues of a lint run.
type Report struct {
	Documents int
	Issues    []Issue
}

// Errors counts issues with error severity.
func (r Report) Errors() int { return r.count(SeverityError) }

// Warnings counts issues with warning severity.
func (r Report) Warnings() int { return r.count(SeverityWarning) }

// OK reports whether the run found no errors.
func (r Report) OK() bool { return r.Errors() == 0 }

func (r Report) count(s Severity) int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == s {
			n++
		}
	}
	return n
}

// Linter checks documents for malformed metadata and unbalanced code fences.
type Linter struct {
	schema *jsonschema.Schema
	assets fs.FS
}

type lintConfig struct {
	strict bool
	assets fs.FS
}

// LintOption configures a Linter.
type LintOption func(*lintConfig)

// WithStrict also validates front matter against the embedded JSON schema,
// which additionally requires a non-empty tags list.
func WithStrict(strict bool) LintOption {
	return func(c *lintConfig) { c.strict = strict }
}

// WithAssets enables checking that local header images exist in assets.
func WithAssets(assets fs.FS) LintOption {
	return func(c *lintConfig) { c.assets = assets }
}

// NewLinter builds a Linter.
func NewLinter(opts ...LintOption) (*Linter, error) {
	var cfg lintConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	l := &Linter{assets: cfg.assets}
	if cfg.strict {
		schema, err := compileSchema()
		if err != nil {
			return nil, fmt.Errorf("pubcontent: compile front matter schema: %w", err)
		}
		l.schema = schema
	}
	return l, nil
}

// Validate implements validation.Validatable.
func (fm frontMatter) Validate() error {
	fm.Title = strings.TrimSpace(fm.Title)
	fm.Date = dateText(strings.TrimSpace(string(fm.Date)))
	return validation.ValidateStruct(&fm,
		validation.Field(&fm.Title, validation.Required.Error("is required")),
		validation.Field(&fm.Date, validation.Required.Error("is required"), validation.By(checkDate)),
		validation.Field(&fm.Header),
	)
}

// Validate implements validation.Validatable.
func (h headerMatter) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.OverlayFilter, validation.Min(0.0), validation.Max(1.0)),
	)
}

func checkDate(value interface{}) error {
	s, _ := value.(dateText)
	if s == "" {
		return nil
	}
	_, err := ParseDate(string(s))
	return err
}

// Lint checks one document and returns every issue found, ordered by line.
func (l *Linter) Lint(path string, src []byte) []Issue {
	var issues []Issue
	add := func(line int, field, msg string, sev Severity) {
		issues = append(issues, Issue{Path: path, Line: line, Field: field, Message: msg, Severity: sev})
	}

	fm, body, err := decodeFrontMatter(src)
	if err != nil {
		if errors.Is(err, ErrNoFrontMatter) {
			add(1, "front matter", "document has no metadata block", SeverityError)
		} else {
			add(1, "front matter", err.Error(), SeverityError)
		}
		return issues
	}

	if err := fm.Validate(); err != nil {
		fields := map[string]error{}
		flattenErrors("", err, fields)
		for field, ferr := range fields {
			add(0, field, ferr.Error(), SeverityError)
		}
	}

	if l.schema != nil {
		for _, issue := range l.schemaIssues(src) {
			issue.Path = path
			issues = append(issues, issue)
		}
	}

	if l.assets != nil && fm.Header != nil && isLocalAsset(fm.Header.OverlayImage) {
		name := strings.TrimPrefix(fm.Header.OverlayImage, "/")
		if _, err := fs.Stat(l.assets, name); err != nil {
			add(0, "header.overlay_image", fmt.Sprintf("asset %s not found", fm.Header.OverlayImage), SeverityWarning)
		}
	}

	if _, err := ScanFences(string(body)); err != nil {
		var fe *FenceError
		if errors.As(err, &fe) {
			offset := strings.Count(string(src), "\n") - strings.Count(string(body), "\n")
			add(offset+fe.Line, "body", fmt.Sprintf("%s: %v", fe.Delim, fe.Err), SeverityError)
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Line != issues[j].Line {
			return issues[i].Line < issues[j].Line
		}
		return issues[i].Field < issues[j].Field
	})
	return issues
}

// LintStore lints every document in s.
func (l *Linter) LintStore(ctx context.Context, s *ContentStore) (Report, error) {
	paths, err := s.Paths(ctx)
	if err != nil {
		return Report{}, err
	}
	var (
		report Report
		parsed []Post
	)
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		src, err := s.Source(p)
		if err != nil {
			return report, fmt.Errorf("pubcontent: read %s: %w", p, err)
		}
		report.Documents++
		report.Issues = append(report.Issues, l.Lint(p, src)...)
		if post, err := ParsePost(p, src); err == nil {
			parsed = append(parsed, post)
		}
	}
	_, dups := uniqueSlugs(parsed)
	for _, err := range dups {
		var docErr *DocumentError
		if errors.As(err, &docErr) {
			report.Issues = append(report.Issues, Issue{
				Path:     docErr.Path,
				Field:    "slug",
				Message:  docErr.Err.Error(),
				Severity: SeverityError,
			})
		}
	}
	return report, nil
}

// flattenErrors turns nested validation.Errors into dotted field keys.
func flattenErrors(prefix string, err error, out map[string]error) {
	var errs validation.Errors
	if errors.As(err, &errs) {
		for key, e := range errs {
			flattenErrors(prefix+key+".", e, out)
		}
		return
	}
	out[strings.TrimSuffix(prefix, ".")] = err
}

func isLocalAsset(ref string) bool {
	if ref == "" {
		return false
	}
	u, err := url.Parse(ref)
	return err == nil && u.Scheme == "" && u.Host == ""
}
