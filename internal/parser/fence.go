package parser

import "strings"

const fenceMarker = "```"

// Fence is a fenced code block located in a document. Start and End are
// byte offsets with Text == doc[Start:End]; the span begins at the start of
// the opening line and ends right after the closing backticks.
type Fence struct {
	Start     int
	End       int
	Line      int    // 1-based line of the opening backticks
	Indent    string // whitespace before the opening backticks
	Lang      string // text after the opening backticks
	FirstLine string // first content line, empty when the fence has none
	HasFirst  bool
	Text      string
}

// line is a view of one document line without its terminator
type line struct {
	start   int
	content string
}

// scanState is the fence scanner's position in the state machine
type scanState int

const (
	stateScanning scanState = iota
	stateInFence
)

// DetectLineEnding returns "\r\n" when the text contains any CRLF and "\n"
// otherwise.
func DetectLineEnding(text string) string {
	if strings.Contains(text, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

// Scan locates every fence in text in document order. Fences do not nest:
// once a fence is open, only a matching close is recognised. An opening
// marker with no matching close is not a fence.
func Scan(text string) []Fence {
	lines := splitLines(text)

	var fences []Fence
	state := stateScanning
	var open int
	var openIndent string

	for i := 0; i < len(lines); i++ {
		l := lines[i]
		indent, rest := splitIndent(l.content)

		switch state {
		case stateScanning:
			if strings.HasPrefix(rest, fenceMarker) {
				state = stateInFence
				open = i
				openIndent = indent
			}
		case stateInFence:
			if strings.TrimRight(rest, " \t") != fenceMarker || len(indent) > len(openIndent) {
				continue
			}
			fences = append(fences, buildFence(text, lines, open, i, openIndent))
			state = stateScanning
		}
	}

	return fences
}

func buildFence(text string, lines []line, open, closeIdx int, indent string) Fence {
	closing := lines[closeIdx]
	closeIndent, _ := splitIndent(closing.content)

	f := Fence{
		Start:  lines[open].start,
		End:    closing.start + len(closeIndent) + len(fenceMarker),
		Line:   open + 1,
		Indent: indent,
		Lang:   strings.TrimPrefix(lines[open].content[len(indent):], fenceMarker),
	}
	if closeIdx > open+1 {
		f.FirstLine = lines[open+1].content
		f.HasFirst = true
	}
	f.Text = text[f.Start:f.End]
	return f
}

// splitLines breaks text on "\n", dropping a trailing "\r" from each line
// so CRLF documents scan like LF ones while offsets stay exact.
func splitLines(text string) []line {
	var lines []line
	start := 0
	for start <= len(text) {
		idx := strings.IndexByte(text[start:], '\n')
		if idx < 0 {
			lines = append(lines, line{start: start, content: strings.TrimSuffix(text[start:], "\r")})
			break
		}
		lines = append(lines, line{start: start, content: strings.TrimSuffix(text[start:start+idx], "\r")})
		start += idx + 1
	}
	return lines
}

func splitIndent(s string) (indent, rest string) {
	rest = strings.TrimLeft(s, " \t")
	return s[:len(s)-len(rest)], rest
}
