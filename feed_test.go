package pubcontent

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/eringen/pubcontent/views"
)

var feedCfg = SiteConfig{
	Name:        "Test Blog",
	URL:         "https://blog.example.com",
	Description: "Notes",
	Author:      "Sam",
}

func feedViews() []views.PostView {
	return []views.PostView{
		{
			Title:      "Swift & JSON",
			Slug:       "swift",
			Date:       time.Date(2020, 5, 28, 12, 24, 3, 0, time.FixedZone("", -6*60*60)),
			Categories: []string{"swift"},
			Tags:       []string{"json"},
			Summary:    "Static methods <are> hard.",
		},
		{Title: "Old", Slug: "old", Date: time.Date(2019, 3, 2, 10, 0, 0, 0, time.UTC)},
	}
}

func TestWriteRSS(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRSS(&buf, feedCfg, feedViews()); err != nil {
		t.Fatalf("WriteRSS: %v", err)
	}
	if !strings.HasPrefix(buf.String(), xml.Header) {
		t.Error("feed lacks the XML header")
	}

	var got rssXML
	if err := xml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("feed is not valid XML: %v", err)
	}
	if got.Version != "2.0" || got.Channel.Title != "Test Blog" {
		t.Errorf("channel = %q v%s", got.Channel.Title, got.Version)
	}
	if got.Channel.LastBuildDate != "Thu, 28 May 2020 12:24:03 -0600" {
		t.Errorf("lastBuildDate = %q", got.Channel.LastBuildDate)
	}
	first := got.Channel.Items[0]
	want := rssItem{
		Title:       "Swift & JSON",
		Link:        "https://blog.example.com/blog/swift/",
		Description: "Static methods <are> hard.",
		PubDate:     "Thu, 28 May 2020 12:24:03 -0600",
		GUID:        "https://blog.example.com/blog/swift/",
		Categories:  []string{"swift", "json"},
	}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("first item mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteAtom(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAtom(&buf, feedCfg, feedViews()); err != nil {
		t.Fatalf("WriteAtom: %v", err)
	}
	var got atomFeed
	if err := xml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("feed is not valid XML: %v", err)
	}
	if got.Updated != "2020-05-28T12:24:03-06:00" {
		t.Errorf("updated = %q", got.Updated)
	}
	if got.Author == nil || got.Author.Name != "Sam" {
		t.Errorf("author = %+v, want Sam", got.Author)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(got.Entries))
	}
	e := got.Entries[0]
	if e.ID != atomID("https://blog.example.com/blog/swift/") {
		t.Errorf("entry id = %q", e.ID)
	}
	if diff := cmp.Diff([]atomCategory{{Term: "json"}}, e.Categories); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteAtomEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAtom(&buf, SiteConfig{}, nil); err != nil {
		t.Fatalf("WriteAtom: %v", err)
	}
	if !strings.Contains(buf.String(), "<updated>1970-01-01T00:00:00Z</updated>") {
		t.Errorf("empty feed lacks the epoch updated time:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "<author>") {
		t.Error("feed without an author has an author element")
	}
}

func TestAtomIDIsStable(t *testing.T) {
	a := atomID("https://blog.example.com/blog/swift/")
	if a != atomID("https://blog.example.com/blog/swift/") {
		t.Error("atomID is not deterministic")
	}
	if a == atomID("https://blog.example.com/blog/go/") {
		t.Error("different URLs share an id")
	}
	if !strings.HasPrefix(a, "urn:uuid:") {
		t.Errorf("atomID = %q, want a urn:uuid", a)
	}
}

func TestWriteSitemap(t *testing.T) {
	posts := catalogPosts(t)
	var buf bytes.Buffer
	if err := WriteSitemap(&buf, feedCfg, posts); err != nil {
		t.Fatalf("WriteSitemap: %v", err)
	}
	var got sitemapURLSet
	if err := xml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("sitemap is not valid XML: %v", err)
	}
	var locs []string
	for _, u := range got.URLs {
		locs = append(locs, u.Loc)
	}
	want := []string{
		"https://blog.example.com",
		"https://blog.example.com/blog/go/",
		"https://blog.example.com/blog/swift/",
		"https://blog.example.com/blog/old/",
		"https://blog.example.com/tags/decodable/",
		"https://blog.example.com/tags/go/",
		"https://blog.example.com/tags/json/",
		"https://blog.example.com/tags/swift/",
		"https://blog.example.com/categories/swift/",
	}
	if diff := cmp.Diff(want, locs); diff != "" {
		t.Errorf("sitemap mismatch (-want +got):\n%s", diff)
	}
	if got.URLs[0].LastMod != "2021-01-10" {
		t.Errorf("home lastmod = %q, want the newest post date", got.URLs[0].LastMod)
	}
}
