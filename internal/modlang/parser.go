package modlang

import (
	"strings"
)

// commandVerbs is the closed set of recognized preprocessor directives
// (spec §3: verb ∈ {if, else, endif, run, ...}). "run" is not in this
// set: a "run" command is produced only from a `run = value` pair
// (spec §4.6).
var commandVerbs = map[string]bool{
	"if":    true,
	"else":  true,
	"endif": true,
}

// Parse tokenizes src into a Document (spec §4.6). Items before the
// first `[section]` header land in the synthetic GLOBAL section.
func Parse(src string) *Document {
	doc := &Document{}
	current := doc.section(GlobalSection)
	hasExplicitSection := false

	for _, rawLine := range strings.Split(src, "\n") {
		line := strings.TrimRight(rawLine, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if name, ok := parseSectionHeader(trimmed); ok {
			current = doc.section(name)
			hasExplicitSection = true
			continue
		}

		item, ok := parseItem(trimmed)
		if !ok {
			continue
		}
		current.Items = append(current.Items, item)
	}

	if !hasExplicitSection {
		return doc
	}
	// Drop an empty synthetic GLOBAL section created by d.section() before
	// any content was appended to it (no global preamble in this source).
	if len(doc.Sections) > 0 && doc.Sections[0].Name == GlobalSection && len(doc.Sections[0].Items) == 0 {
		doc.Sections = doc.Sections[1:]
	}
	return doc
}

// parseSectionHeader recognizes a `[name]` line.
func parseSectionHeader(line string) (string, bool) {
	if len(line) < 2 || line[0] != '[' || line[len(line)-1] != ']' {
		return "", false
	}
	return strings.TrimSpace(line[1 : len(line)-1]), true
}

// parseItem classifies one non-empty, non-header line per spec §4.6.
func parseItem(line string) (Item, bool) {
	if strings.HasPrefix(line, ";") || strings.HasPrefix(line, "//") {
		text := strings.TrimPrefix(line, "//")
		text = strings.TrimPrefix(text, ";")
		return Comment(strings.TrimSpace(text)), true
	}

	if verb, args, ok := parseCommandWord(line); ok {
		return Command(verb, args), true
	}

	if key, value, ok := parsePair(line); ok {
		if strings.ToLower(key) == "run" {
			return Command("run", []string{value}), true
		}
		return Pair(key, value), true
	}

	return Item{}, false
}

// parseCommandWord recognizes if/else/endif as the first whole word of
// a line (spec §4.6: "as the first whole word").
func parseCommandWord(line string) (verb string, args []string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, false
	}
	head := strings.ToLower(fields[0])
	if !commandVerbs[head] {
		return "", nil, false
	}
	return head, fields[1:], true
}

// isKeyChar matches the key character class from spec §4.6: alphanumeric
// plus `_ $ . -` and space.
func isKeyChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '$' || r == '.' || r == '-' || r == ' ':
		return true
	}
	return false
}

// parsePair recognizes `KEY = VALUE`.
func parsePair(line string) (key, value string, ok bool) {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return "", "", false
	}
	rawKey := line[:eq]
	for _, r := range rawKey {
		if !isKeyChar(r) {
			return "", "", false
		}
	}
	key = strings.TrimSpace(rawKey)
	if key == "" {
		return "", "", false
	}
	value = strings.TrimSpace(line[eq+1:])
	return key, value, true
}
