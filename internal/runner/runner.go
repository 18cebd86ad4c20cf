package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/gubarz/embedme/internal/config"
	"github.com/gubarz/embedme/internal/embed"
	"github.com/gubarz/embedme/internal/loader"
	"github.com/gubarz/embedme/internal/parser"
	"github.com/gubarz/embedme/internal/ui"
)

// ErrVerifyFailed is returned in verify mode when a document would change
var ErrVerifyFailed = errors.New("verification failed, documents are out of date")

// Runner drives documents through the embed engine and applies the
// configured output mode.
type Runner struct {
	cfg      *config.Config
	engine   *embed.Engine
	reporter *ui.Reporter
	stdout   io.Writer
	workDir  string
}

// New creates a runner. Document text goes to stdout in stdout mode;
// everything else goes through the reporter.
func New(cfg *config.Config, reporter *ui.Reporter, stdout io.Writer) (*Runner, error) {
	l, err := loader.New(loader.Options{
		SourceRoot:   cfg.SourceRoot,
		FetchTimeout: cfg.FetchTimeout,
		CacheSize:    cfg.CacheSize,
	})
	if err != nil {
		return nil, err
	}
	return NewWithLoader(cfg, l, reporter, stdout)
}

// NewWithLoader creates a runner with a custom target loader
func NewWithLoader(cfg *config.Config, l embed.Loader, reporter *ui.Reporter, stdout io.Writer) (*Runner, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("error resolving working directory: %w", err)
	}
	return &Runner{
		cfg: cfg,
		engine: embed.NewEngine(l, embed.Options{
			StripEmbedComment: cfg.StripEmbedComment,
			Concurrency:       cfg.Concurrency,
		}),
		reporter: reporter,
		stdout:   stdout,
		workDir:  wd,
	}, nil
}

// document is one processed input
type document struct {
	path     string
	original string
	out      embed.Output
}

// Run processes the documents named by args
func (r *Runner) Run(ctx context.Context, args []string) error {
	if err := r.cfg.Validate(); err != nil {
		return err
	}
	mode := r.cfg.Mode()
	r.announce(mode)

	paths, err := r.sources(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}

	docs, err := r.processAll(ctx, paths)
	if err != nil {
		return err
	}

	var stale []string
	for _, doc := range docs {
		r.report(doc)
		changed, err := r.apply(mode, doc)
		if err != nil {
			return err
		}
		if changed {
			stale = append(stale, doc.path)
		}
	}

	if mode == config.ModeVerify && len(stale) > 0 {
		for _, path := range stale {
			r.reporter.Error("Diff detected in %s", path)
		}
		return ErrVerifyFailed
	}
	return nil
}

func (r *Runner) announce(mode config.Mode) {
	switch mode {
	case config.ModeVerify:
		r.reporter.Info("Verifying...")
	case config.ModeDryRun:
		r.reporter.Info("Doing a dry run...")
	case config.ModeStdout:
		r.reporter.Info("Outputting to stdout...")
	default:
		r.reporter.Info("Embedding...")
	}
}

// sources expands args and drops ignored documents. An empty result means
// there is nothing to do.
func (r *Runner) sources(args []string) ([]string, error) {
	paths, err := ExpandSources(args)
	if err != nil {
		return nil, err
	}

	if len(paths) > 1 && r.cfg.Mode() == config.ModeStdout {
		r.reporter.Info("More than one file matched your input, results will be concatenated in stdout")
	} else if len(paths) == 0 {
		r.reporter.Info("No files matched your input")
		return nil, nil
	}

	filter, err := LoadIgnore(r.workDir, r.cfg.IgnoreFiles)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		return paths, nil
	}

	kept := filter.Filter(paths)
	r.reporter.Info("Skipped %d files ignored in '%s'", len(paths)-len(kept), filter.File)
	if len(kept) == 0 {
		r.reporter.Info("All matching files were ignored in '%s'", filter.File)
	}
	return kept, nil
}

// processAll runs every document through the engine concurrently. The
// returned slice keeps input order.
func (r *Runner) processAll(ctx context.Context, paths []string) ([]document, error) {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("document %s does not exist", path)
			}
			return nil, fmt.Errorf("path error: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("document %s is a directory", path)
		}
	}

	docs := make([]document, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	for i, path := range paths {
		doc := &docs[i]
		doc.path = path
		g.Go(func() error {
			data, err := os.ReadFile(doc.path)
			if err != nil {
				return fmt.Errorf("read %s: %w", doc.path, err)
			}
			doc.original = string(data)

			out, err := r.engine.Process(gctx, doc.path, doc.original)
			if err != nil {
				return fmt.Errorf("process %s: %w", doc.path, err)
			}
			doc.out = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *Runner) report(doc document) {
	for _, res := range doc.out.Results {
		loc := r.reporter.Location(doc.path, res.Fence.Line)
		msg := res.Message(r.cfg.StripEmbedComment)

		switch {
		case res.Status == embed.StatusEmbedded:
			r.reporter.Success("%s %s", loc, msg)
		case res.Status == embed.StatusCollision, needsAttention(res):
			r.reporter.Warn("%s %s", loc, msg)
		default:
			r.reporter.Dim("%s %s", loc, msg)
		}
	}
}

// needsAttention reports skips on fences that were clearly meant to embed
// something: a named target that failed to load or a bad line range.
func needsAttention(res embed.Result) bool {
	if res.Status != embed.StatusSkipped || res.Err == nil {
		return false
	}
	return res.Ref.Filename != "" || errors.Is(res.Err, parser.ErrMalformedRange)
}

// apply performs the mode's side effect and reports whether the document
// differs from its rewritten form.
func (r *Runner) apply(mode config.Mode, doc document) (bool, error) {
	changed := doc.out.Changed

	switch mode {
	case config.ModeVerify:
		return changed, nil
	case config.ModeDryRun:
		if changed {
			r.reporter.Info("%s would be updated", r.reporter.Location(doc.path, 0))
		}
		return changed, nil
	case config.ModeStdout:
		if _, err := io.WriteString(r.stdout, doc.out.Text); err != nil {
			return changed, fmt.Errorf("write stdout: %w", err)
		}
		return changed, nil
	}

	if !changed {
		return false, nil
	}
	info, err := os.Stat(doc.path)
	if err != nil {
		return changed, fmt.Errorf("path error: %w", err)
	}
	if err := os.WriteFile(doc.path, []byte(doc.out.Text), info.Mode().Perm()); err != nil {
		return changed, fmt.Errorf("write %s: %w", doc.path, err)
	}
	r.reporter.Success("Updated %s", r.reporter.Location(doc.path, 0))
	return changed, nil
}
