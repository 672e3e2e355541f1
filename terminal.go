package pubcontent

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/eringen/pubcontent/markdown"
)

// TerminalOptions controls RenderTerminal.
type TerminalOptions struct {
	Width int    // wrap column; 0 means 80
	Style string // glamour style name ("dark", "light", "notty"); empty picks one from the terminal
}

// RenderTerminal renders p (byline included) as styled text for a terminal.
func RenderTerminal(p Post, opts TerminalOptions) (string, error) {
	width := opts.Width
	if width <= 0 {
		width = 80
	}
	ropts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if opts.Style != "" {
		ropts = append(ropts, glamour.WithStandardStyle(opts.Style))
	} else {
		ropts = append(ropts, glamour.WithAutoStyle())
	}
	r, err := glamour.NewTermRenderer(ropts...)
	if err != nil {
		return "", fmt.Errorf("pubcontent: terminal renderer: %w", err)
	}

	var doc strings.Builder
	doc.WriteString("# " + p.Title + "\n\n")
	doc.WriteString("*" + p.Date.Format("January 2, 2006 15:04 -0700"))
	if len(p.Categories) > 0 {
		doc.WriteString(" · " + strings.Join(p.Categories, ", "))
	}
	doc.WriteString("*\n\n")
	if len(p.Tags) > 0 {
		tags := make([]string, len(p.Tags))
		for i, t := range p.Tags {
			tags[i] = "`" + t + "`"
		}
		doc.WriteString(strings.Join(tags, " ") + "\n\n")
	}
	if p.Header.OverlayImage != "" {
		doc.WriteString("![header](" + p.Header.OverlayImage + ")\n\n")
	}
	doc.Write(markdown.ExpandLiquid([]byte(p.Body)))

	out, err := r.Render(doc.String())
	if err != nil {
		return "", fmt.Errorf("pubcontent: render %s for terminal: %w", p.Path, err)
	}
	return out, nil
}
