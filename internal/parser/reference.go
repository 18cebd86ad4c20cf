package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Reasons a fence is not an embed target. None of them are fatal.
var (
	ErrNoLang         = errors.New("no code extension detected")
	ErrNoFirstLine    = errors.New("code block is empty and no preceding embedme comment")
	ErrUnsupportedTag = errors.New("unsupported file extension")
	ErrNoComment      = errors.New("no comment detected in first line")
	ErrNoFilename     = errors.New("no file found in embed line")
	ErrMalformedRange = errors.New("incorrectly formatted line numbering, expecting GitHub formatting e.g. #L10-L20")
)

// Reference is an embed target resolved for one fence
type Reference struct {
	Filename  string
	StartLine int // 1-based, inclusive; zero when no range was given
	EndLine   int
	Override  bool // came from a preceding embedme directive
}

// HasRange reports whether the reference selects a line range
func (r Reference) HasRange() bool {
	return r.StartLine > 0 || r.EndLine > 0
}

// IsRemote reports whether the filename is fetched over HTTP
func (r Reference) IsRemote() bool {
	return strings.HasPrefix(r.Filename, "http")
}

func (r Reference) String() string {
	if !r.HasRange() {
		return r.Filename
	}
	return fmt.Sprintf("%s#L%d-L%d", r.Filename, r.StartLine, r.EndLine)
}

// Directives are the embedme markers found in the prose before a fence
type Directives struct {
	IgnoreNext bool
	Override   string
}

var (
	ignoreNextRe = regexp.MustCompile(`<!--\s*?embedme[ -]ignore-next\s*?-->`)
	overrideRe   = regexp.MustCompile(`<!--\s*?embedme[ ]+?(\S+?)\s*?-->`)
	referenceRe  = regexp.MustCompile(`(?m)\s?(\S+?)((#L(\d+)-L(\d+))|$)`)
)

// ParseDirectives scans the text between the previous fence and the next
// one for ignore-next and override markers.
func ParseDirectives(gap string) Directives {
	d := Directives{IgnoreNext: ignoreNextRe.MatchString(gap)}
	if matches := overrideRe.FindStringSubmatch(gap); matches != nil {
		d.Override = matches[1]
	}
	return d
}

// ParseReference splits a commented token into filename and optional
// GitHub-style line range.
func ParseReference(token string) (Reference, error) {
	matches := referenceRe.FindStringSubmatch(token)
	if matches == nil {
		return Reference{}, ErrNoFilename
	}

	ref := Reference{Filename: matches[1]}
	if strings.Contains(ref.Filename, "#") {
		return Reference{}, fmt.Errorf("%w: %s", ErrMalformedRange, ref.Filename)
	}

	if matches[3] != "" {
		start, err := strconv.Atoi(matches[4])
		if err != nil {
			return Reference{}, fmt.Errorf("%w: %s", ErrMalformedRange, token)
		}
		end, err := strconv.Atoi(matches[5])
		if err != nil {
			return Reference{}, fmt.Errorf("%w: %s", ErrMalformedRange, token)
		}
		ref.StartLine, ref.EndLine = start, end
	}
	return ref, nil
}

// Resolve decides what a fence references. An override directive wins over
// the fence's own first line. The caller handles ignore-next.
func Resolve(f Fence, d Directives) (Reference, error) {
	if d.Override != "" {
		ref, err := ParseReference(d.Override)
		if err != nil {
			return Reference{}, err
		}
		ref.Override = true
		return ref, nil
	}

	if f.Lang == "" {
		return Reference{}, ErrNoLang
	}
	if !f.HasFirst || f.FirstLine == "" {
		return Reference{}, ErrNoFirstLine
	}

	family, ok := LookupFamily(f.Lang)
	if !ok {
		return Reference{}, fmt.Errorf("%w [%s], supported extensions are %s",
			ErrUnsupportedTag, f.Lang, strings.Join(SupportedTags(), ", "))
	}

	token, ok := family.ExtractFilename(f.FirstLine)
	if !ok {
		return Reference{}, fmt.Errorf("%w for block with extension %s", ErrNoComment, f.Lang)
	}
	return ParseReference(token)
}
