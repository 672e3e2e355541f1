package pubcontent

import (
	"strings"

	"github.com/eringen/pubcontent/markdown"
)

// CodeFence is one fenced code region inside a post body.
type CodeFence struct {
	Language  string
	StartLine int // 1-based line of the opening delimiter
	EndLine   int // 1-based line of the closing delimiter
	Liquid    bool
	Code      string
}

type fenceOpener struct {
	char  byte
	width int
	info  string
}

// parseFenceOpener recognizes a CommonMark fence opening line.
func parseFenceOpener(line string) (fenceOpener, bool) {
	rest, ok := stripIndent(line)
	if !ok || len(rest) < 3 {
		return fenceOpener{}, false
	}
	c := rest[0]
	if c != '`' && c != '~' {
		return fenceOpener{}, false
	}
	n := 0
	for n < len(rest) && rest[n] == c {
		n++
	}
	if n < 3 {
		return fenceOpener{}, false
	}
	info := strings.TrimSpace(rest[n:])
	if c == '`' && strings.ContainsRune(info, '`') {
		return fenceOpener{}, false
	}
	return fenceOpener{char: c, width: n, info: info}, true
}

func (o fenceOpener) closes(line string) bool {
	rest, ok := stripIndent(line)
	if !ok {
		return false
	}
	n := 0
	for n < len(rest) && rest[n] == o.char {
		n++
	}
	return n >= o.width && strings.TrimSpace(rest[n:]) == ""
}

func (o fenceOpener) language() string {
	if f := strings.Fields(o.info); len(f) > 0 {
		return strings.TrimPrefix(strings.TrimSuffix(f[0], "}"), "{")
	}
	return ""
}

// stripIndent removes up to three leading spaces; more makes the line an
// indented code line, never a fence.
func stripIndent(line string) (string, bool) {
	i := 0
	for i < len(line) && line[i] == ' ' {
		i++
	}
	if i > 3 {
		return "", false
	}
	return line[i:], true
}

// ScanFences finds every fenced code region in body, in order. The returned
// error is a *FenceError when a region is left open or a Liquid close tag has
// no opener; regions found before the problem are still returned.
func ScanFences(body string) ([]CodeFence, error) {
	var (
		fences []CodeFence
		open   *fenceOpener
		liquid bool
		cur    CodeFence
		code   strings.Builder
	)
	lines := strings.Split(body, "\n")
	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimRight(raw, "\r")

		if open != nil || liquid {
			closed := false
			if liquid {
				closed = markdown.LiquidClose.MatchString(line)
			} else {
				closed = open.closes(line)
			}
			if closed {
				cur.EndLine = lineNo
				cur.Code = code.String()
				fences = append(fences, cur)
				open, liquid = nil, false
				code.Reset()
				continue
			}
			code.WriteString(line)
			code.WriteByte('\n')
			continue
		}

		if o, ok := parseFenceOpener(line); ok {
			open = &o
			cur = CodeFence{Language: o.language(), StartLine: lineNo}
			continue
		}
		if m := markdown.LiquidOpen.FindStringSubmatch(line); m != nil {
			liquid = true
			cur = CodeFence{Language: m[1], StartLine: lineNo, Liquid: true}
			continue
		}
		if markdown.LiquidClose.MatchString(line) {
			return fences, &FenceError{Line: lineNo, Delim: strings.TrimSpace(line), Err: ErrStrayFenceClose}
		}
	}
	if open != nil {
		return fences, &FenceError{
			Line:  cur.StartLine,
			Delim: strings.Repeat(string(open.char), open.width),
			Err:   ErrUnclosedFence,
		}
	}
	if liquid {
		return fences, &FenceError{Line: cur.StartLine, Delim: "{% highlight " + cur.Language + " %}", Err: ErrUnclosedFence}
	}
	return fences, nil
}
