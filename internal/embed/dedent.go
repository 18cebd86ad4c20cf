package embed

import "strings"

// MinIndent returns the smallest leading-whitespace width across the
// non-empty lines. It returns 0 as soon as any line has no leading
// whitespace, and 0 when every line is empty.
func MinIndent(lines []string) int {
	lowest := -1
	for _, line := range lines {
		if line == "" {
			continue
		}
		n := indentWidth(line)
		if n == 0 {
			return 0
		}
		if lowest < 0 || n < lowest {
			lowest = n
		}
	}
	if lowest < 0 {
		return 0
	}
	return lowest
}

// Dedent strips the common leading whitespace from every line
func Dedent(lines []string) []string {
	n := MinIndent(lines)
	if n == 0 {
		return lines
	}

	out := make([]string, len(lines))
	for i, line := range lines {
		if len(line) < n {
			// Only empty lines can be shorter than the minimum
			out[i] = ""
			continue
		}
		out[i] = line[n:]
	}
	return out
}

func indentWidth(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// splitContent breaks loaded text into lines regardless of its own line
// endings. A single terminal line ending does not produce an extra line.
func splitContent(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// sliceRange returns lines start..end, 1-based and inclusive, clamped to
// the available lines.
func sliceRange(lines []string, start, end int) []string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return nil
	}
	return lines[start-1 : end]
}
