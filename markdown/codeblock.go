package markdown

import (
	"bytes"
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// codeBlockRenderer replaces goldmark's code block output with the
// language-badge wrapper and chroma token spans.
type codeBlockRenderer struct {
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
	reg.Register(ast.KindCodeBlock, r.renderCodeBlock)
}

func (r *codeBlockRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	lang := strings.TrimSpace(string(n.Language(source)))
	return ast.WalkSkipChildren, r.write(w, lang, blockText(n, source))
}

func (r *codeBlockRenderer) renderCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	return ast.WalkSkipChildren, r.write(w, "", blockText(node, source))
}

func blockText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

func (r *codeBlockRenderer) write(w util.BufWriter, lang, code string) error {
	if lang == "" {
		w.WriteString(`<pre class="code-block"><code>`)
		w.WriteString(html.EscapeString(code))
		w.WriteString("</code></pre>\n")
		return nil
	}

	escapedLang := html.EscapeString(lang)
	w.WriteString(`<div class="code-block-wrapper"><span class="code-lang code-lang-` + escapedLang + `">` + escapedLang + `</span>`)
	w.WriteString(`<pre class="code-block chroma"><code class="language-` + escapedLang + `">`)
	if err := r.highlight(w, lang, code); err != nil {
		return err
	}
	w.WriteString("</code></pre></div>\n")
	return nil
}

// highlight writes code as chroma token spans, or escaped text when no
// lexer knows the language.
func (r *codeBlockRenderer) highlight(w util.BufWriter, lang, code string) error {
	lexer := lexers.Get(lang)
	if lexer == nil {
		w.WriteString(html.EscapeString(code))
		return nil
	}
	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		w.WriteString(html.EscapeString(code))
		return nil
	}
	return r.formatter.Format(w, r.style, iterator)
}
