// Package markdown renders post bodies to HTML with goldmark, highlighting
// fenced code with chroma according to each fence's language hint.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// DefaultStyle is the chroma style used when Options.Style is empty or unknown.
const DefaultStyle = "github"

// Options configures a Renderer.
type Options struct {
	// Extensions names goldmark extensions; empty selects gfm, linkify and tasklist.
	Extensions []string
	// Style is a chroma style name used by WriteCSS.
	Style string
	// HardWraps turns newlines inside paragraphs into <br>.
	HardWraps bool
	// SafeMode drops raw HTML from the body.
	SafeMode bool
}

// Renderer converts Markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md        goldmark.Markdown
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// New constructs a Renderer.
func New(opts Options) *Renderer {
	name := opts.Style
	if name == "" {
		name = DefaultStyle
	}
	r := &Renderer{
		style: styles.Get(name),
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
		),
	}

	rendererOptions := []renderer.Option{
		renderer.WithNodeRenderers(util.Prioritized(&codeBlockRenderer{formatter: r.formatter, style: r.style}, 200)),
	}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if !opts.SafeMode {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	r.md = goldmark.New(
		goldmark.WithExtensions(collectExtensions(opts.Extensions)...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOptions...),
	)
	return r
}

// Render writes the HTML for the Markdown in src to w. Liquid highlight
// regions are converted to fences first.
func (r *Renderer) Render(w io.Writer, src []byte) error {
	if err := r.md.Convert(ExpandLiquid(src), w); err != nil {
		return fmt.Errorf("markdown render: %w", err)
	}
	return nil
}

// RenderString is Render for strings.
func (r *Renderer) RenderString(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, []byte(src)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Component returns a templ.Component that renders src as HTML.
func (r *Renderer) Component(src string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := r.Render(&buf, []byte(src)); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// WriteCSS writes the style sheet for the highlight classes.
func (r *Renderer) WriteCSS(w io.Writer) error {
	return r.formatter.WriteCSS(w, r.style)
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{
			extension.GFM,
			extension.Linkify,
			extension.TaskList,
		}
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := seen[key]; ok {
			continue
		}
		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		extenders = append(extenders, ext)
		seen[key] = struct{}{}
	}
	return extenders
}
