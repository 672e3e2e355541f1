package pubcontent

import (
	"encoding/xml"
	"io"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// WriteSitemap writes a sitemap listing the home page, every post and every
// tag and category page reachable from posts.
func WriteSitemap(w io.Writer, cfg SiteConfig, posts []Post) error {
	cfg.setDefaults()
	base := cfg.URL
	urls := []sitemapURL{{Loc: BuildURL(base)}}
	if len(posts) > 0 {
		urls[0].LastMod = posts[0].Date.Format("2006-01-02")
	}
	for _, p := range posts {
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "blog", p.Slug),
			LastMod: p.Date.Format("2006-01-02"),
		})
	}
	for _, t := range CollectTags(posts) {
		urls = append(urls, sitemapURL{Loc: BuildURL(base, "tags", t)})
	}
	for _, c := range CollectCategories(posts) {
		urls = append(urls, sitemapURL{Loc: BuildURL(base, "categories", c)})
	}
	return encodeXML(w, sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	})
}
