package parser

import "testing"

func TestLookupFamily(t *testing.T) {
	tests := []struct {
		tag      string
		expected CommentFamily
		ok       bool
	}{
		{"js", FamilyC, true},
		{"txt", FamilyC, true},
		{"go", FamilyC, true},
		{"md", FamilyXML, true},
		{"py", FamilyHash, true},
		{"yaml", FamilyHash, true},
		{"puml", FamilySingleQuote, true},
		{"mermaid", FamilyDoublePercent, true},
		{"sql", FamilyDoubleHyphen, true},
		{"json", FamilyNone, true},
		{"brainfuck", FamilyUnknown, false},
		{"JS", FamilyUnknown, false},
		{"", FamilyUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			family, ok := LookupFamily(tt.tag)
			if ok != tt.ok || family != tt.expected {
				t.Errorf("LookupFamily(%q) = %v, %v; expected %v, %v", tt.tag, family, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestEveryTagHasOneFamily(t *testing.T) {
	seen := make(map[string]CommentFamily)
	for family, tags := range familyTags {
		for _, tag := range tags {
			if prev, dup := seen[tag]; dup {
				t.Fatalf("tag %q in both %v and %v", tag, prev, family)
			}
			seen[tag] = family
		}
	}
	if len(seen) != len(SupportedTags()) {
		t.Errorf("expected %d supported tags, got %d", len(seen), len(SupportedTags()))
	}
}

func TestExtractFilename(t *testing.T) {
	tests := []struct {
		name     string
		family   CommentFamily
		line     string
		expected string
		ok       bool
	}{
		{"c style", FamilyC, "// myfile.js", "myfile.js", true},
		{"c style no space", FamilyC, "//myfile.js", "myfile.js", true},
		{"c style with range", FamilyC, "// src/a.ts#L2-L3", "src/a.ts#L2-L3", true},
		{"c style prose", FamilyC, "// see myfile.js", "", false},
		{"c style empty", FamilyC, "//", "", false},
		{"c style code", FamilyC, "const x = 1;", "", false},
		{"xml", FamilyXML, "<!-- docs/intro.md -->", "docs/intro.md", true},
		{"xml tight", FamilyXML, "<!--docs/intro.md-->", "docs/intro.md", true},
		{"xml two words", FamilyXML, "<!-- two words -->", "", false},
		{"hash", FamilyHash, "# script.py", "script.py", true},
		{"single quote", FamilySingleQuote, "' diagram.puml", "diagram.puml", true},
		{"double percent", FamilyDoublePercent, "%% flow.mermaid", "flow.mermaid", true},
		{"double hyphen", FamilyDoubleHyphen, "-- schema.sql", "schema.sql", true},
		{"none family", FamilyNone, "// data.json", "", false},
		{"unknown family", FamilyUnknown, "// data.json", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.family.ExtractFilename(tt.line)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("ExtractFilename(%q) = %q, %v; expected %q, %v", tt.line, got, ok, tt.expected, tt.ok)
			}
		})
	}
}
