package pubcontent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// DateLayout is the layout used when writing dates back into a front matter
// block. Fractional seconds are written only when present.
const DateLayout = "2006-01-02 15:04:05.999999999 -0700"

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -07:00",
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04 -0700",
}

// Layouts that parse but drop the offset; used to tell "no offset" apart
// from "not a date".
var offsetlessLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-`)

// StringList decodes either a sequence of strings or one space-separated string.
type StringList []string

// UnmarshalYAML implements the yaml.v2 and yaml.v3 legacy unmarshaler.
func (l *StringList) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var many []string
	if err := unmarshal(&many); err == nil {
		*l = many
		return nil
	}
	var one string
	if err := unmarshal(&one); err != nil {
		return err
	}
	*l = strings.Fields(one)
	return nil
}

// UnmarshalJSON accepts the same two shapes as UnmarshalYAML.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = strings.Fields(one)
	return nil
}

// dateText is the raw date of a front matter block. TOML datetimes arrive as
// time.Time and are formatted back to text so every format is checked by
// ParseDate.
type dateText string

// UnmarshalYAML accepts a plain scalar or a YAML timestamp.
func (d *dateText) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		*d = dateText(s)
		return nil
	}
	var t time.Time
	if err := unmarshal(&t); err != nil {
		return err
	}
	*d = dateText(t.Format(DateLayout))
	return nil
}

// UnmarshalTOML implements the BurntSushi/toml Unmarshaler.
func (d *dateText) UnmarshalTOML(v interface{}) error {
	switch v := v.(type) {
	case string:
		*d = dateText(v)
	case time.Time:
		// Newer toml releases give local datetimes a placeholder zone.
		switch v.Location().String() {
		case "datetime-local", "date-local", "time-local":
			*d = dateText(v.Format("2006-01-02 15:04:05.999999999"))
		default:
			*d = dateText(v.Format(DateLayout))
		}
	default:
		return fmt.Errorf("date: unsupported TOML value of type %T", v)
	}
	return nil
}

type frontMatter struct {
	Title      string                 `yaml:"title" json:"title" toml:"title"`
	Date       dateText               `yaml:"date" json:"date" toml:"date"`
	Categories StringList             `yaml:"categories,omitempty" json:"categories,omitempty" toml:"categories"`
	Tags       StringList             `yaml:"tags,omitempty" json:"tags,omitempty" toml:"tags"`
	Header     *headerMatter          `yaml:"header,omitempty" json:"header,omitempty" toml:"header"`
	Extra      map[string]interface{} `yaml:",inline" json:"-" toml:"-"`
}

type headerMatter struct {
	OverlayImage  string                 `yaml:"overlay_image,omitempty" json:"overlay_image,omitempty" toml:"overlay_image"`
	OverlayFilter *float64               `yaml:"overlay_filter,omitempty" json:"overlay_filter,omitempty" toml:"overlay_filter"`
	Extra         map[string]interface{} `yaml:",inline" json:"-" toml:"-"`
}

func decodeFrontMatter(src []byte) (frontMatter, []byte, error) {
	var fm frontMatter
	body, err := frontmatter.MustParse(bytes.NewReader(src), &fm)
	if err != nil {
		if errors.Is(err, frontmatter.ErrNotFound) {
			return frontMatter{}, nil, ErrNoFrontMatter
		}
		return frontMatter{}, nil, fmt.Errorf("parse front matter: %w", err)
	}
	return fm, body, nil
}

func (fm frontMatter) metadata() (Metadata, error) {
	if strings.TrimSpace(fm.Title) == "" {
		return Metadata{}, &FieldError{Field: "title", Err: ErrMissingField}
	}
	if strings.TrimSpace(string(fm.Date)) == "" {
		return Metadata{}, &FieldError{Field: "date", Err: ErrMissingField}
	}
	date, err := ParseDate(string(fm.Date))
	if err != nil {
		return Metadata{}, &FieldError{Field: "date", Err: err}
	}
	meta := Metadata{
		Title:      fm.Title,
		Date:       date,
		Categories: uniqueStrings(fm.Categories),
		Tags:       compactStrings(fm.Tags),
		Extra:      cloneExtra(fm.Extra),
	}
	if fm.Header != nil {
		meta.Header = Header{
			OverlayImage: fm.Header.OverlayImage,
			Extra:        cloneExtra(fm.Header.Extra),
		}
		if fm.Header.OverlayFilter != nil {
			v := *fm.Header.OverlayFilter
			meta.Header.OverlayFilter = &v
		}
	}
	return meta, nil
}

// ParseDate parses a front matter date. The value must carry an explicit UTC offset.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range offsetlessLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return time.Time{}, ErrDateNoOffset
		}
	}
	return time.Time{}, ErrDateFormat
}

// ParseMetadata decodes the metadata block at the top of src and returns it
// together with the remaining body.
func ParseMetadata(src []byte) (Metadata, []byte, error) {
	fm, body, err := decodeFrontMatter(src)
	if err != nil {
		return Metadata{}, nil, err
	}
	meta, err := fm.metadata()
	if err != nil {
		return Metadata{}, nil, err
	}
	return meta, body, nil
}

// ParsePost parses a complete document. Errors are wrapped in *DocumentError.
func ParsePost(docPath string, src []byte) (Post, error) {
	meta, body, err := ParseMetadata(src)
	if err != nil {
		return Post{}, &DocumentError{Path: docPath, Err: err}
	}
	fences, err := ScanFences(string(body))
	if err != nil {
		return Post{}, &DocumentError{Path: docPath, Err: err}
	}
	slug := SlugFromPath(docPath)
	if slug == "" {
		slug = Slugify(meta.Title)
	}
	return Post{
		Metadata: meta,
		Path:     docPath,
		Slug:     slug,
		Body:     string(body),
		Fences:   fences,
	}, nil
}

// SlugFromPath derives a URL slug from a document path, dropping the
// extension and a leading YYYY-MM-DD- prefix.
func SlugFromPath(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	base = datePrefix.ReplaceAllString(base, "")
	return Slugify(base)
}

// MarshalFrontMatter encodes m as a YAML front matter block, delimiters included.
func (m Metadata) MarshalFrontMatter() ([]byte, error) {
	fm := frontMatter{
		Title:      m.Title,
		Date:       dateText(m.Date.Format(DateLayout)),
		Categories: StringList(m.Categories),
		Tags:       StringList(m.Tags),
		Extra:      m.Extra,
	}
	if m.Header.OverlayImage != "" || m.Header.OverlayFilter != nil || len(m.Header.Extra) > 0 {
		fm.Header = &headerMatter{
			OverlayImage:  m.Header.OverlayImage,
			OverlayFilter: m.Header.OverlayFilter,
			Extra:         m.Header.Extra,
		}
	}
	out, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(out)
	buf.WriteString("---\n")
	return buf.Bytes(), nil
}

// Serialize writes p back out as a document: front matter followed by body.
func Serialize(p Post) ([]byte, error) {
	head, err := p.Metadata.MarshalFrontMatter()
	if err != nil {
		return nil, err
	}
	return append(head, p.Body...), nil
}

func uniqueStrings(vals []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func compactStrings(vals []string) []string {
	var out []string
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func cloneExtra(in map[string]interface{}) map[string]interface{} {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
