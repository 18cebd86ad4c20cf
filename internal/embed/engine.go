package embed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/gubarz/embedme/internal/parser"
)

// ErrEmptyRange means a line range selected no lines of the target
var ErrEmptyRange = errors.New("line range selects no lines")

// Status is the outcome for one fence
type Status int

const (
	StatusSkipped        Status = iota // not an embed target, or the target could not be loaded
	StatusIgnored                      // preceded by an ignore-next directive
	StatusCollision                    // target content contains a code fence
	StatusUpToDate                     // replacement identical to the fence
	StatusWhitespaceOnly               // replacement differs only in trailing whitespace
	StatusEmbedded                     // fence rewritten
)

// Result describes what happened to one fence
type Result struct {
	Fence  parser.Fence
	Ref    parser.Reference
	Status Status
	Lines  int   // lines embedded
	Err    error // skip reason
}

// Message renders the result for the console
func (r Result) Message(stripComment bool) string {
	switch r.Status {
	case StatusIgnored:
		return `"Ignore next" comment detected, skipping code block...`
	case StatusCollision:
		return fmt.Sprintf("Output snippet for file %s contains a code fence. Refusing to embed as that would break the document", r.Ref.Filename)
	case StatusUpToDate:
		return "No changes required, already up to date"
	case StatusWhitespaceOnly:
		return "Changes are trailing whitespace only, ignoring"
	case StatusEmbedded:
		suffix := ""
		if stripComment {
			suffix = " without comment line"
		}
		return fmt.Sprintf("Embedded %d lines%s from file %s", r.Lines, suffix, r.Ref)
	default:
		if r.Err != nil {
			return r.Err.Error() + ", skipping code block"
		}
		return "Skipping code block"
	}
}

// Output is the rewritten document
type Output struct {
	Text    string
	Changed bool
	Results []Result
}

// Loader resolves a reference to text
type Loader interface {
	Load(ctx context.Context, docPath string, ref parser.Reference) (string, error)
}

// Options configures an Engine
type Options struct {
	StripEmbedComment bool
	Concurrency       int // targets loaded in parallel per document
}

// Engine rewrites embed fences in a document. It holds no per-document
// state and is safe for concurrent use.
type Engine struct {
	loader Loader
	opts   Options
}

// NewEngine creates an engine that loads targets through l
func NewEngine(l Loader, opts Options) *Engine {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Engine{loader: l, opts: opts}
}

// plan is the per-fence work item between scanning and composing
type plan struct {
	fence   parser.Fence
	ref     parser.Reference
	status  Status
	err     error
	load    bool
	content string
}

// Process rewrites every embed fence in text. docPath locates relative
// targets. Fence problems never fail the document; the only error is a
// cancelled context.
func (e *Engine) Process(ctx context.Context, docPath, text string) (Output, error) {
	lineEnding := parser.DetectLineEnding(text)
	plans := e.resolve(text)

	if err := e.loadAll(ctx, docPath, plans); err != nil {
		return Output{}, err
	}

	var b strings.Builder
	b.Grow(len(text))
	results := make([]Result, 0, len(plans))
	prevEnd := 0

	for i := range plans {
		p := &plans[i]
		b.WriteString(text[prevEnd:p.fence.Start])

		res := Result{Fence: p.fence, Ref: p.ref, Status: p.status, Err: p.err}
		replacement := p.fence.Text
		if p.load && p.err == nil {
			replacement, res = e.rewrite(p, lineEnding)
		}

		b.WriteString(replacement)
		results = append(results, res)
		prevEnd = p.fence.End
	}
	b.WriteString(text[prevEnd:])

	out := b.String()
	return Output{Text: out, Changed: out != text, Results: results}, nil
}

// resolve scans the document and decides, per fence, whether it needs its
// target loaded.
func (e *Engine) resolve(text string) []plan {
	fences := parser.Scan(text)
	plans := make([]plan, len(fences))

	prevEnd := 0
	for i, f := range fences {
		p := plan{fence: f, status: StatusSkipped}
		dirs := parser.ParseDirectives(text[prevEnd:f.Start])

		if dirs.IgnoreNext {
			p.status = StatusIgnored
		} else if ref, err := parser.Resolve(f, dirs); err != nil {
			p.err = err
		} else {
			p.ref = ref
			p.load = true
		}

		plans[i] = p
		prevEnd = f.End
	}
	return plans
}

// loadAll fetches every target concurrently. Load failures are recorded on
// the plan; order in the document is fixed by the plan index.
func (e *Engine) loadAll(ctx context.Context, docPath string, plans []plan) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	for i := range plans {
		p := &plans[i]
		if !p.load {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p.content, p.err = e.loader.Load(gctx, docPath, p.ref)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// rewrite computes the replacement for a loaded fence
func (e *Engine) rewrite(p *plan, lineEnding string) (string, Result) {
	res := Result{Fence: p.fence, Ref: p.ref}
	original := p.fence.Text

	lines := splitContent(p.content)
	if p.ref.HasRange() {
		lines = sliceRange(lines, p.ref.StartLine, p.ref.EndLine)
		if len(lines) == 0 {
			res.Status = StatusSkipped
			res.Err = fmt.Errorf("%s: %w", p.ref, ErrEmptyRange)
			return original, res
		}
	}
	lines = Dedent(lines)
	res.Lines = len(lines)

	code := strings.Join(lines, lineEnding)
	if strings.Contains(code, "```") {
		res.Status = StatusCollision
		return original, res
	}

	withComment := !p.ref.Override && !e.opts.StripEmbedComment
	replacement := Compose(p.fence, code, lineEnding, withComment)

	if replacement == original {
		res.Status = StatusUpToDate
		return original, res
	}
	if trimTrailing(replacement) == trimTrailing(original) {
		res.Status = StatusWhitespaceOnly
		return original, res
	}

	res.Status = StatusEmbedded
	return replacement, res
}

// Compose builds the fence text for embedded code. With withComment the
// fence's first line is kept, followed by a blank line. Every line carries
// the fence's indentation.
func Compose(f parser.Fence, code, lineEnding string, withComment bool) string {
	var b strings.Builder
	b.WriteString("```")
	b.WriteString(f.Lang)
	b.WriteString(lineEnding)
	if withComment {
		b.WriteString(strings.TrimSpace(f.FirstLine))
		b.WriteString(lineEnding)
		b.WriteString(lineEnding)
	}
	b.WriteString(code)
	b.WriteString(lineEnding)
	b.WriteString("```")

	block := b.String()
	if f.Indent == "" {
		return block
	}

	lines := strings.Split(block, lineEnding)
	for i, line := range lines {
		lines[i] = f.Indent + line
	}
	return strings.Join(lines, lineEnding)
}

// trimTrailing drops the closing backticks and any whitespace before them
func trimTrailing(fence string) string {
	return strings.TrimRightFunc(strings.TrimSuffix(fence, "```"), unicode.IsSpace)
}
