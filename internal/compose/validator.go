// Package compose implements the Mod Composition Pipeline's merge stage
// (spec §4 C8/C9): logic-gate wrapping and concatenation of namespaced
// mod documents, if/else/endif balance validation, and the Cycle
// Compiler for multi-mod character conflicts.
//
// Grounded on crates/logic_weaver/src/{merger,validator,compiler,ini_merger}.rs.
package compose

import (
	"fmt"

	"yago/internal/modlang"
	"yago/internal/yagoerr"
)

// ValidateIfElseEndif checks that every if/else/endif command in doc is
// balanced (spec §4.8): each "if" must eventually be closed by a
// matching "endif", "else" and "endif" are rejected with no open "if",
// and no section may end with an "if" still open. Depth is counted per
// section, and every error names the offending section.
func ValidateIfElseEndif(doc *modlang.Document) error {
	for _, s := range doc.Sections {
		depth := 0
		for _, it := range s.Items {
			if it.Kind != modlang.ItemCommand {
				continue
			}
			switch it.Verb {
			case "if":
				depth++
			case "else":
				if depth == 0 {
					return yagoerr.New(yagoerr.Validation, fmt.Sprintf("section %q: 'else' with no matching 'if'", s.Name))
				}
			case "endif":
				if depth == 0 {
					return yagoerr.New(yagoerr.Validation, fmt.Sprintf("section %q: 'endif' with no matching 'if'", s.Name))
				}
				depth--
			}
		}
		if depth > 0 {
			return yagoerr.New(yagoerr.Validation, fmt.Sprintf("section %q: unclosed 'if' block: %d block(s) never reached 'endif'", s.Name, depth))
		}
	}
	return nil
}
