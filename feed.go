package pubcontent

import (
	"encoding/xml"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/eringen/pubcontent/views"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
	GUID        string   `xml:"guid"`
	Categories  []string `xml:"category"`
}

// WriteRSS writes an RSS 2.0 feed of posts, which are expected newest first.
func WriteRSS(w io.Writer, cfg SiteConfig, posts []views.PostView) error {
	cfg.setDefaults()
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		postURL := BuildURL(cfg.URL, "blog", p.Slug)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: p.Summary,
			PubDate:     p.Date.Format(time.RFC1123Z),
			GUID:        postURL,
			Categories:  append(append([]string(nil), p.Categories...), p.Tags...),
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       cfg.Name,
			Link:        BuildURL(cfg.URL),
			Description: cfg.Description,
			Items:       items,
		},
	}
	if len(posts) > 0 {
		feed.Channel.LastBuildDate = posts[0].Date.Format(time.RFC1123Z)
	}
	return encodeXML(w, feed)
}

type atomFeed struct {
	XMLName xml.Name    `xml:"http://www.w3.org/2005/Atom feed"`
	ID      string      `xml:"id"`
	Title   string      `xml:"title"`
	Updated string      `xml:"updated"`
	Links   []atomLink  `xml:"link"`
	Author  *atomPerson `xml:"author,omitempty"`
	Entries []atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
}

type atomPerson struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

type atomEntry struct {
	ID         string         `xml:"id"`
	Title      string         `xml:"title"`
	Link       atomLink       `xml:"link"`
	Published  string         `xml:"published"`
	Updated    string         `xml:"updated"`
	Summary    string         `xml:"summary,omitempty"`
	Categories []atomCategory `xml:"category"`
}

// atomID derives a stable entry id from a URL, so rebuilding the feed never
// makes readers see old posts as new.
func atomID(u string) string {
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(u)).String()
}

// WriteAtom writes an Atom 1.0 feed of posts, which are expected newest first.
func WriteAtom(w io.Writer, cfg SiteConfig, posts []views.PostView) error {
	cfg.setDefaults()
	home := BuildURL(cfg.URL)
	feed := atomFeed{
		ID:    atomID(home),
		Title: cfg.Name,
		Links: []atomLink{
			{Href: home},
			{Href: BuildURL(cfg.URL, "atom.xml"), Rel: "self"},
		},
		Updated: time.Unix(0, 0).UTC().Format(time.RFC3339),
	}
	if cfg.Author != "" {
		feed.Author = &atomPerson{Name: cfg.Author}
	}
	if len(posts) > 0 {
		feed.Updated = posts[0].Date.Format(time.RFC3339)
	}
	for _, p := range posts {
		postURL := BuildURL(cfg.URL, "blog", p.Slug)
		e := atomEntry{
			ID:        atomID(postURL),
			Title:     p.Title,
			Link:      atomLink{Href: postURL},
			Published: p.Date.Format(time.RFC3339),
			Updated:   p.Date.Format(time.RFC3339),
			Summary:   p.Summary,
		}
		for _, t := range p.Tags {
			e.Categories = append(e.Categories, atomCategory{Term: t})
		}
		feed.Entries = append(feed.Entries, e)
	}
	return encodeXML(w, feed)
}

func encodeXML(w io.Writer, v interface{}) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
