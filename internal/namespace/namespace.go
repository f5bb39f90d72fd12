// Package namespace implements the Namespacer (spec §4 C7): rewrites
// per-mod `$variable` references and known resource-path values to
// globally unique names, so many independently authored mod documents
// can be concatenated without variable or resource collisions.
//
// Grounded on crates/logic_weaver/src/namespacer.rs. Per spec §9
// ("Variable namespacing vs. a symbol table"), this is a string rewrite
// rather than a symbol table, because downstream loaders consume the
// text and perform their own parsing; the UUID suffix is chosen with a
// character (hyphen) disjoint from legal identifier tails so rewritten
// identifiers never collide with an un-rewritten one.
package namespace

import (
	"regexp"
	"strings"

	"yago/internal/modlang"
)

var identRe = regexp.MustCompile(`\$[a-zA-Z0-9_]+`)

// pathKeys are key names that always hold a resource path (spec §4.7).
var pathKeys = map[string]bool{
	"filename": true,
	"model":    true,
	"vb0":      true,
	"vb1":      true,
	"vb2":      true,
	"ib":       true,
}

// Apply rewrites doc in place: every `$NAME` becomes `$NAME_<uuid>`
// across keys, values, and command arguments, and path-bearing values
// are prefixed with deployRelativePath. Applying Apply twice with the
// same uuid is a fixed point (spec §8): identifiers already suffixed
// with this uuid are left untouched rather than re-suffixed.
func Apply(doc *modlang.Document, uuid, deployRelativePath string) {
	alreadyRe := regexp.MustCompile(`\$[a-zA-Z0-9_]+_` + regexp.QuoteMeta(uuid) + `\b`)

	for si := range doc.Sections {
		items := doc.Sections[si].Items
		for ii := range items {
			it := &items[ii]
			switch it.Kind {
			case modlang.ItemPair:
				it.Key = namespaceString(it.Key, uuid, alreadyRe)
				it.Value = namespaceString(it.Value, uuid, alreadyRe)
				it.Value = rewritePathValue(it.Key, it.Value, deployRelativePath)
			case modlang.ItemCommand:
				for ai := range it.Args {
					it.Args[ai] = namespaceString(it.Args[ai], uuid, alreadyRe)
				}
			}
		}
	}
}

// namespaceString rewrites every `$NAME` in s to `$NAME_<uuid>`, except
// occurrences already suffixed with this uuid (matched by alreadyRe),
// which are copied through unchanged.
func namespaceString(s, uuid string, alreadyRe *regexp.Regexp) string {
	if !strings.Contains(s, "$") {
		return s
	}

	masks := alreadyRe.FindAllStringIndex(s, -1)
	matches := identRe.FindAllStringIndex(s, -1)

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start < last {
			continue // inside a mask already emitted below
		}
		if mk, ok := containingMask(masks, start); ok {
			b.WriteString(s[last:mk[1]])
			last = mk[1]
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(s[start:end])
		b.WriteString("_")
		b.WriteString(uuid)
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

func containingMask(masks [][]int, pos int) ([]int, bool) {
	for _, mk := range masks {
		if pos >= mk[0] && pos < mk[1] {
			return mk, true
		}
	}
	return nil, false
}

// rewritePathValue prepends deployRelativePath to value when key names a
// resource path (spec §4.7): the fixed pathKeys set, or a
// texture/buffer binding of the form `*-t<digit>` whose value contains a
// path separator and a dot. Already-prefixed values are left alone
// (idempotence guard, spec §8).
func rewritePathValue(key, value, deployRelativePath string) string {
	if deployRelativePath == "" {
		return value
	}
	lower := strings.ToLower(key)
	isPathKey := pathKeys[lower]
	isTextureBinding := looksLikeTextureBindingKey(lower) && looksLikePath(value)
	if !isPathKey && !isTextureBinding {
		return value
	}
	if strings.HasPrefix(value, deployRelativePath) {
		return value
	}
	return deployRelativePath + value
}

// looksLikeTextureBindingKey matches keys of the form `*-t<digit>`
// (e.g. "ps-t0", "vs-t1").
func looksLikeTextureBindingKey(key string) bool {
	idx := strings.LastIndex(key, "-t")
	if idx < 0 || idx+2 >= len(key) {
		return false
	}
	suffix := key[idx+2:]
	if len(suffix) == 0 {
		return false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func looksLikePath(value string) bool {
	return strings.Contains(value, ".") && (strings.Contains(value, "/") || strings.Contains(value, "\\"))
}
