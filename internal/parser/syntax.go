package parser

import (
	"regexp"
	"sort"
)

// CommentFamily groups file-type tags that share single-line comment syntax
type CommentFamily int

const (
	FamilyUnknown CommentFamily = iota
	FamilyNone                  // no comment syntax, e.g. JSON
	FamilyC                     // // comment
	FamilyXML                   // <!-- comment -->
	FamilyHash                  // # comment
	FamilySingleQuote           // ' comment
	FamilyDoublePercent         // %% comment
	FamilyDoubleHyphen          // -- comment
)

func (f CommentFamily) String() string {
	switch f {
	case FamilyNone:
		return "none"
	case FamilyC:
		return "c"
	case FamilyXML:
		return "xml"
	case FamilyHash:
		return "hash"
	case FamilySingleQuote:
		return "single-quote"
	case FamilyDoublePercent:
		return "double-percent"
	case FamilyDoubleHyphen:
		return "double-hyphen"
	default:
		return "unknown"
	}
}

// familyTags lists every supported fence tag by family. A tag appears once.
var familyTags = map[CommentFamily][]string{
	FamilyNone: {"json"},
	FamilyC: {
		"txt", // plain text has no comments, but it has to live somewhere
		"c", "ts", "re", "js", "rust", "cpp", "java", "go", "objectivec",
		"scss", "php", "cs", "swift", "kotlin", "scala", "json5", "proto",
		"ino", "jsx", "tsx",
	},
	FamilyXML:           {"html", "md", "xml"},
	FamilyHash:          {"py", "bash", "sh", "yaml", "rb", "cr", "cmake"},
	FamilySingleQuote:   {"puml"},
	FamilyDoublePercent: {"mermaid"},
	FamilyDoubleHyphen:  {"sql", "hs"},
}

var tagFamilies = buildTagIndex(familyTags)

func buildTagIndex(table map[CommentFamily][]string) map[string]CommentFamily {
	index := make(map[string]CommentFamily)
	for family, tags := range table {
		for _, tag := range tags {
			if prev, dup := index[tag]; dup {
				panic("parser: tag " + tag + " registered for " + prev.String() + " and " + family.String())
			}
			index[tag] = family
		}
	}
	return index
}

var (
	xmlComment = regexp.MustCompile(`<!--\s*?(\S*?)\s*?-->`)
	// Filename must run to the end of the line after the opener
	familyReaders = map[CommentFamily]*regexp.Regexp{
		FamilyC:             leadingSymbol("//"),
		FamilyXML:           xmlComment,
		FamilyHash:          leadingSymbol("#"),
		FamilySingleQuote:   leadingSymbol("'"),
		FamilyDoublePercent: leadingSymbol("%%"),
		FamilyDoubleHyphen:  leadingSymbol("--"),
	}
)

func leadingSymbol(symbol string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(symbol) + `\s?(\S*?)$`)
}

// LookupFamily returns the comment family for a fence tag
func LookupFamily(tag string) (CommentFamily, bool) {
	family, ok := tagFamilies[tag]
	return family, ok
}

// SupportedTags returns every supported fence tag, sorted
func SupportedTags() []string {
	tags := make([]string, 0, len(tagFamilies))
	for tag := range tagFamilies {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// ExtractFilename pulls the commented token out of a line written in the
// family's comment syntax. It reports false when the line carries no
// comment or the comment is empty.
func (f CommentFamily) ExtractFilename(line string) (string, bool) {
	re, ok := familyReaders[f]
	if !ok {
		return "", false
	}
	matches := re.FindStringSubmatch(line)
	if matches == nil || matches[1] == "" {
		return "", false
	}
	return matches[1], true
}
