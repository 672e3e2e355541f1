package markdown

import (
	"bytes"
	"regexp"
)

// LiquidOpen matches a {% highlight lang %} line; the first group is the
// language. LiquidClose matches {% endhighlight %}.
var (
	LiquidOpen  = regexp.MustCompile(`^\s*\{%-?\s*highlight\s+([^\s%]+)[^%]*-?%\}\s*$`)
	LiquidClose = regexp.MustCompile(`^\s*\{%-?\s*endhighlight\s*-?%\}\s*$`)
)

// liquidFence is wide enough that ordinary ``` lines inside a highlight
// region stay literal.
const liquidFence = "````"

// ExpandLiquid rewrites Liquid {% highlight lang %} ... {% endhighlight %}
// regions into Markdown fences. Lines inside existing fences are left alone.
func ExpandLiquid(src []byte) []byte {
	if !bytes.Contains(src, []byte("highlight")) {
		return src
	}
	lines := bytes.Split(src, []byte("\n"))
	var (
		out      bytes.Buffer
		fenceCh  byte
		fenceLen int
		inLiquid bool
	)
	for i, line := range lines {
		if i > 0 {
			out.WriteByte('\n')
		}
		trimmed := bytes.TrimRight(line, "\r")
		switch {
		case fenceLen > 0:
			if c, n := fenceRun(trimmed); c == fenceCh && n >= fenceLen && len(bytes.TrimSpace(trimmed[leading(trimmed)+n:])) == 0 {
				fenceLen = 0
			}
		case inLiquid:
			if LiquidClose.Match(trimmed) {
				out.WriteString(liquidFence)
				inLiquid = false
				continue
			}
		default:
			if m := LiquidOpen.FindSubmatch(trimmed); m != nil {
				out.WriteString(liquidFence)
				out.Write(m[1])
				inLiquid = true
				continue
			}
			if c, n := fenceRun(trimmed); n >= 3 {
				fenceCh, fenceLen = c, n
			}
		}
		out.Write(line)
	}
	return out.Bytes()
}

func leading(line []byte) int {
	i := 0
	for i < len(line) && line[i] == ' ' {
		i++
	}
	return i
}

// fenceRun returns the fence character and run length starting the line,
// allowing up to three spaces of indent.
func fenceRun(line []byte) (byte, int) {
	i := leading(line)
	if i > 3 || i >= len(line) {
		return 0, 0
	}
	c := line[i]
	if c != '`' && c != '~' {
		return 0, 0
	}
	n := 0
	for i+n < len(line) && line[i+n] == c {
		n++
	}
	return c, n
}
