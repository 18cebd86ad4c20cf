package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// ExpandSources turns command line arguments into document paths. Arguments
// with glob magic are expanded (including **); others are used verbatim so
// a missing document is reported later instead of silently dropped.
func ExpandSources(args []string) ([]string, error) {
	var sources []string
	for _, arg := range args {
		if !hasMagic(arg) {
			sources = append(sources, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(filepath.Clean(arg), doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", arg, err)
		}
		sources = append(sources, matches...)
	}
	return sources, nil
}

func hasMagic(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// IgnoreFilter drops documents listed in an ignore file
type IgnoreFilter struct {
	File    string
	dir     string
	matcher *ignore.GitIgnore
}

// LoadIgnore compiles the first of names that exists in dir. It returns
// nil when none exists.
func LoadIgnore(dir string, names []string) (*IgnoreFilter, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("error resolving path: %w", err)
	}

	for _, name := range names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}

		matcher, err := ignore.CompileIgnoreFile(path)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return &IgnoreFilter{File: name, dir: dir, matcher: matcher}, nil
	}
	return nil, nil
}

// Filter returns the paths the ignore file accepts, in order
func (f *IgnoreFilter) Filter(paths []string) []string {
	kept := make([]string, 0, len(paths))
	for _, path := range paths {
		if !f.ignored(path) {
			kept = append(kept, path)
		}
	}
	return kept
}

func (f *IgnoreFilter) ignored(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(f.dir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		// Outside the ignore file's tree
		return false
	}
	return f.matcher.MatchesPath(filepath.ToSlash(rel))
}
