package pubcontent

import "time"

// Metadata is the decoded front matter of a post.
type Metadata struct {
	Title      string
	Date       time.Time
	Categories []string
	Tags       []string
	Header     Header
	Extra      map[string]interface{} // unrecognized keys, kept for round trips
}

// Header holds the optional page header settings.
type Header struct {
	OverlayImage  string
	OverlayFilter *float64
	Extra         map[string]interface{}
}

// Post is one content document: metadata plus the markup body.
type Post struct {
	Metadata
	Path   string
	Slug   string
	Body   string
	Fences []CodeFence
}

// Link returns the site-relative URL of the post.
func (p Post) Link() string {
	return "/blog/" + p.Slug + "/"
}

// HasTag reports whether the post carries tag, ignoring case.
func (p Post) HasTag(tag string) bool {
	return containsFold(p.Tags, tag)
}

// InCategory reports whether the post is filed under category, ignoring case.
func (p Post) InCategory(category string) bool {
	return containsFold(p.Categories, category)
}

// Languages returns the distinct language hints of the post's code samples.
func (p Post) Languages() []string {
	var langs []string
	seen := make(map[string]struct{})
	for _, f := range p.Fences {
		if f.Language == "" {
			continue
		}
		if _, ok := seen[f.Language]; ok {
			continue
		}
		seen[f.Language] = struct{}{}
		langs = append(langs, f.Language)
	}
	return langs
}

func containsFold(vals []string, want string) bool {
	want = normalizeTag(want)
	if want == "" {
		return false
	}
	for _, v := range vals {
		if normalizeTag(v) == want {
			return true
		}
	}
	return false
}

// Filter narrows a post listing.
type Filter struct {
	Tag      string
	Category string
	Until    time.Time // zero means no upper bound
}

// Match reports whether p passes the filter.
func (f Filter) Match(p Post) bool {
	if f.Tag != "" && !p.HasTag(f.Tag) {
		return false
	}
	if f.Category != "" && !p.InCategory(f.Category) {
		return false
	}
	if !f.Until.IsZero() && p.Date.After(f.Until) {
		return false
	}
	return true
}
