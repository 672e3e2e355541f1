package pubcontent

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const swiftPost = `---
title: Unit Testing Static Methods In Swift
date: 2020-05-28 12:24:03 -0600
categories: [swift]
tags: [swift, json, decodable]
header:
  overlay_image: /assets/images/swift-header.jpg
  overlay_filter: 0.5
---
Static methods are hard to replace in a test.

{% highlight swift %}
struct Decoder {
    static func decode(_ data: Data) throws -> Model
}
{% endhighlight %}

` + "```swift" + `
let model = try Decoder.decode(data)
` + "```" + `
`

var equateTime = cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })

func floatPtr(v float64) *float64 { return &v }

func TestParsePostSwiftExample(t *testing.T) {
	post, err := ParsePost("_posts/2020-05-28-unit-testing-static-methods-in-swift.md", []byte(swiftPost))
	if err != nil {
		t.Fatalf("ParsePost: %v", err)
	}

	want := Metadata{
		Title:      "Unit Testing Static Methods In Swift",
		Date:       time.Date(2020, 5, 28, 12, 24, 3, 0, time.FixedZone("", -6*60*60)),
		Categories: []string{"swift"},
		Tags:       []string{"swift", "json", "decodable"},
		Header: Header{
			OverlayImage:  "/assets/images/swift-header.jpg",
			OverlayFilter: floatPtr(0.5),
		},
	}
	if diff := cmp.Diff(want, post.Metadata, equateTime); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
	if _, off := post.Date.Zone(); off != -6*60*60 {
		t.Errorf("offset = %d, want -21600", off)
	}
	if post.Slug != "unit-testing-static-methods-in-swift" {
		t.Errorf("Slug = %q, want %q", post.Slug, "unit-testing-static-methods-in-swift")
	}
	if !strings.HasPrefix(post.Body, "Static methods are hard") {
		t.Errorf("Body starts with %q", post.Body[:20])
	}
	if len(post.Fences) != 2 {
		t.Fatalf("len(Fences) = %d, want 2", len(post.Fences))
	}
	if !post.Fences[0].Liquid || post.Fences[0].Language != "swift" {
		t.Errorf("first fence = %+v, want Liquid swift region", post.Fences[0])
	}
	if diff := cmp.Diff([]string{"swift"}, post.Languages()); diff != "" {
		t.Errorf("Languages mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalFrontMatterRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		meta Metadata
	}{
		{
			name: "minimal",
			meta: Metadata{
				Title: "Hello",
				Date:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			},
		},
		{
			name: "full",
			meta: Metadata{
				Title:      "Unit Testing Static Methods In Swift",
				Date:       time.Date(2020, 5, 28, 12, 24, 3, 0, time.FixedZone("", -6*60*60)),
				Categories: []string{"swift", "testing"},
				Tags:       []string{"swift", "json", "decodable"},
				Header: Header{
					OverlayImage:  "/assets/images/swift-header.jpg",
					OverlayFilter: floatPtr(0.25),
				},
				Extra: map[string]interface{}{"layout": "post", "comments": true},
			},
		},
		{
			name: "title needing quotes",
			meta: Metadata{
				Title: "Swift: a #1 language? [yes]",
				Date:  time.Date(2019, 12, 31, 23, 59, 59, 0, time.FixedZone("", 5*60*60+30*60)),
				Tags:  []string{"c++", "objective-c"},
			},
		},
		{
			name: "fractional seconds",
			meta: Metadata{
				Title: "Sub-second",
				Date:  time.Date(2020, 5, 28, 12, 24, 3, 500000000, time.FixedZone("", -6*60*60)),
			},
		},
		{
			name: "zero filter",
			meta: Metadata{
				Title:  "Dark header",
				Date:   time.Date(2021, 6, 1, 8, 0, 0, 0, time.UTC),
				Header: Header{OverlayFilter: floatPtr(0)},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := tt.meta.MarshalFrontMatter()
			if err != nil {
				t.Fatalf("MarshalFrontMatter: %v", err)
			}
			got, body, err := ParseMetadata(block)
			if err != nil {
				t.Fatalf("ParseMetadata(%q): %v", block, err)
			}
			if len(body) != 0 {
				t.Errorf("body = %q, want empty", body)
			}
			if diff := cmp.Diff(tt.meta, got, equateTime, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s\nblock:\n%s", diff, block)
			}

			again, err := got.MarshalFrontMatter()
			if err != nil {
				t.Fatalf("second MarshalFrontMatter: %v", err)
			}
			if string(again) != string(block) {
				t.Errorf("serialization not idempotent:\n%s\n---vs---\n%s", block, again)
			}
		})
	}
}

func TestReparseKeepsParsedDate(t *testing.T) {
	dates := []string{
		"2020-05-28T12:24:03.5-06:00",
		"2020-05-28T12:24:03.123456789+05:30",
		"2020-05-28 12:24:03.25 -0600",
		"2020-05-28 12:24:03 -0600",
		"2020-05-28 12:24 -0600",
	}
	for _, date := range dates {
		t.Run(date, func(t *testing.T) {
			src := "---\ntitle: Dated\ndate: \"" + date + "\"\n---\n"
			first, _, err := ParseMetadata([]byte(src))
			if err != nil {
				t.Fatalf("ParseMetadata: %v", err)
			}
			block, err := first.MarshalFrontMatter()
			if err != nil {
				t.Fatalf("MarshalFrontMatter: %v", err)
			}
			second, _, err := ParseMetadata(block)
			if err != nil {
				t.Fatalf("ParseMetadata(%q): %v", block, err)
			}
			if !second.Date.Equal(first.Date) {
				t.Errorf("Date = %v, want %v\nblock:\n%s", second.Date, first.Date, block)
			}
			_, off1 := first.Date.Zone()
			_, off2 := second.Date.Zone()
			if off1 != off2 {
				t.Errorf("offset = %d, want %d", off2, off1)
			}
		})
	}
}

func TestMarshalFrontMatterWholeSeconds(t *testing.T) {
	m := Metadata{Title: "T", Date: time.Date(2020, 5, 28, 12, 24, 3, 0, time.FixedZone("", -6*60*60))}
	block, err := m.MarshalFrontMatter()
	if err != nil {
		t.Fatalf("MarshalFrontMatter: %v", err)
	}
	if !strings.Contains(string(block), "2020-05-28 12:24:03 -0600") {
		t.Errorf("block = %q, want the date without a fraction", block)
	}
}

func TestParseMetadataTOML(t *testing.T) {
	tests := []struct {
		name string
		date string
	}{
		{"native datetime", "2020-05-28T12:24:03-06:00"},
		{"string", `"2020-05-28 12:24:03 -0600"`},
	}
	want := time.Date(2020, 5, 28, 18, 24, 3, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "+++\ntitle = \"TOML post\"\ndate = " + tt.date + "\ntags = [\"swift\", \"json\"]\n+++\nbody\n"
			m, body, err := ParseMetadata([]byte(src))
			if err != nil {
				t.Fatalf("ParseMetadata: %v", err)
			}
			if !m.Date.Equal(want) {
				t.Errorf("Date = %v, want %v", m.Date, want)
			}
			if _, off := m.Date.Zone(); off != -6*60*60 {
				t.Errorf("offset = %d, want -21600", off)
			}
			if diff := cmp.Diff([]string{"swift", "json"}, m.Tags); diff != "" {
				t.Errorf("Tags mismatch (-want +got):\n%s", diff)
			}
			if strings.TrimSpace(string(body)) != "body" {
				t.Errorf("body = %q, want %q", body, "body")
			}

			l, _ := NewLinter()
			if issues := l.Lint("_posts/2020-05-28-toml.md", []byte(src)); len(issues) != 0 {
				t.Errorf("Lint = %v, want no issues", issues)
			}
		})
	}
}

func TestSerializeParsePost(t *testing.T) {
	post, err := ParsePost("2020-05-28-swift.md", []byte(swiftPost))
	if err != nil {
		t.Fatalf("ParsePost: %v", err)
	}
	out, err := Serialize(post)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	back, err := ParsePost(post.Path, out)
	if err != nil {
		t.Fatalf("ParsePost(Serialize): %v", err)
	}
	if diff := cmp.Diff(post, back, equateTime); diff != "" {
		t.Errorf("post mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMetadataLists(t *testing.T) {
	tests := []struct {
		name           string
		src            string
		wantCategories []string
		wantTags       []string
	}{
		{
			name:           "space separated strings",
			src:            "---\ntitle: T\ndate: 2020-05-28 12:24:03 -0600\ncategories: swift ios\ntags: swift json\n---\n",
			wantCategories: []string{"swift", "ios"},
			wantTags:       []string{"swift", "json"},
		},
		{
			name:           "duplicate categories collapse",
			src:            "---\ntitle: T\ndate: 2020-05-28 12:24:03 -0600\ncategories: [swift, ios, swift]\ntags: [a, b, a]\n---\n",
			wantCategories: []string{"swift", "ios"},
			wantTags:       []string{"a", "b", "a"},
		},
		{
			name: "absent",
			src:  "---\ntitle: T\ndate: 2020-05-28 12:24:03 -0600\n---\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, err := ParseMetadata([]byte(tt.src))
			if err != nil {
				t.Fatalf("ParseMetadata: %v", err)
			}
			if diff := cmp.Diff(tt.wantCategories, m.Categories, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Categories mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantTags, m.Tags, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Tags mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseMetadataJSON(t *testing.T) {
	src := ";;;\n{\"title\": \"JSON post\", \"date\": \"2020-05-28 12:24:03 -0600\", \"tags\": \"a b\"}\n;;;\nbody\n"
	m, body, err := ParseMetadata([]byte(src))
	if err != nil {
		t.Fatalf("ParseMetadata: %v", err)
	}
	if m.Title != "JSON post" {
		t.Errorf("Title = %q, want %q", m.Title, "JSON post")
	}
	if diff := cmp.Diff([]string{"a", "b"}, m.Tags); diff != "" {
		t.Errorf("Tags mismatch (-want +got):\n%s", diff)
	}
	if strings.TrimSpace(string(body)) != "body" {
		t.Errorf("body = %q, want %q", body, "body")
	}
}

func TestParseMetadataErrors(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		want      error
		wantField string
	}{
		{"no block", "just text\n", ErrNoFrontMatter, ""},
		{"missing title", "---\ndate: 2020-05-28 12:24:03 -0600\n---\n", ErrMissingField, "title"},
		{"blank title", "---\ntitle: \"  \"\ndate: 2020-05-28 12:24:03 -0600\n---\n", ErrMissingField, "title"},
		{"missing date", "---\ntitle: T\n---\n", ErrMissingField, "date"},
		{"date without offset", "---\ntitle: T\ndate: 2020-05-28 12:24:03\n---\n", ErrDateNoOffset, "date"},
		{"bare day", "---\ntitle: T\ndate: 2020-05-28\n---\n", ErrDateNoOffset, "date"},
		{"not a date", "---\ntitle: T\ndate: last tuesday\n---\n", ErrDateFormat, "date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseMetadata([]byte(tt.src))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.wantField == "" {
				return
			}
			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("err = %T, want *FieldError", err)
			}
			if fe.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", fe.Field, tt.wantField)
			}
		})
	}
}

func TestParsePostWrapsErrors(t *testing.T) {
	src := "---\ntitle: T\ndate: 2020-05-28 12:24:03 -0600\n---\nintro\n```go\nfunc main() {}\n"
	_, err := ParsePost("_posts/broken.md", []byte(src))

	var de *DocumentError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want *DocumentError", err)
	}
	if de.Path != "_posts/broken.md" {
		t.Errorf("Path = %q, want %q", de.Path, "_posts/broken.md")
	}
	var fe *FenceError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FenceError inside", err)
	}
	if fe.Line != 2 || !errors.Is(err, ErrUnclosedFence) {
		t.Errorf("fence error = %+v, want unclosed at body line 2", fe)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2020, 5, 28, 12, 24, 3, 0, time.FixedZone("", -6*60*60))
	tests := []struct {
		in      string
		wantErr error
	}{
		{"2020-05-28 12:24:03 -0600", nil},
		{"2020-05-28 12:24:03 -06:00", nil},
		{"2020-05-28T12:24:03-06:00", nil},
		{"2020-05-28T12:24:03-0600", nil},
		{"  2020-05-28 12:24:03 -0600  ", nil},
		{"2020-05-28T18:24:03Z", nil},
		{"2020-05-28 12:24:03", ErrDateNoOffset},
		{"2020-05-28T12:24:03", ErrDateNoOffset},
		{"2020-05-28", ErrDateNoOffset},
		{"May 28, 2020", ErrDateFormat},
		{"", ErrDateFormat},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("ParseDate(%q) err = %v, want %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr == nil && !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, want)
		}
	}
}

func TestParseDateMinutePrecision(t *testing.T) {
	got, err := ParseDate("2020-05-28 12:24 -0600")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if got.Minute() != 24 || got.Second() != 0 {
		t.Errorf("ParseDate = %v, want 12:24:00", got)
	}
}

func TestSlugFromPath(t *testing.T) {
	tests := map[string]string{
		"_posts/2020-05-28-unit-testing-static-methods-in-swift.md": "unit-testing-static-methods-in-swift",
		"_drafts/new-idea.markdown":                                 "new-idea",
		"about.md":                                                  "about",
		`windows\2021-01-01-Hello World.md`:                          "hello-world",
		"2020-05-28-.md":                                            "",
	}
	for in, want := range tests {
		if got := SlugFromPath(in); got != want {
			t.Errorf("SlugFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParsePostSlugFallsBackToTitle(t *testing.T) {
	src := "---\ntitle: Hello, World!\ndate: 2020-05-28 12:24:03 -0600\n---\n"
	post, err := ParsePost("2020-05-28-.md", []byte(src))
	if err != nil {
		t.Fatalf("ParsePost: %v", err)
	}
	if post.Slug != "hello-world" {
		t.Errorf("Slug = %q, want %q", post.Slug, "hello-world")
	}
}
