// Package modlang implements the Mod Definition Parser (spec §4 C6): a
// tokenizer for the declarative mod-overlay dialect (a custom INI-like
// language with if/else/endif preprocessor directives) into a
// section/item AST.
//
// Grounded on crates/ini_forge/src/{ast,parser}.rs.
package modlang

// GlobalSection is the synthetic section name items land in when they
// appear before any `[name]` header (spec §3).
const GlobalSection = "GLOBAL"

// Document is an ordered sequence of sections.
type Document struct {
	Sections []Section
}

// Section is a named, ordered sequence of items.
type Section struct {
	Name  string
	Items []Item
}

// ItemKind discriminates the three Item shapes (spec §3).
type ItemKind int

const (
	ItemPair ItemKind = iota
	ItemCommand
	ItemComment
)

// Item is one line's worth of parsed content. Exactly the fields for
// its Kind are meaningful; the rest are zero.
type Item struct {
	Kind ItemKind

	// ItemPair
	Key   string
	Value string

	// ItemCommand
	Verb string
	Args []string

	// ItemComment
	Text string
}

// Pair constructs a Pair item.
func Pair(key, value string) Item { return Item{Kind: ItemPair, Key: key, Value: value} }

// Command constructs a Command item.
func Command(verb string, args []string) Item {
	return Item{Kind: ItemCommand, Verb: verb, Args: args}
}

// Comment constructs a Comment item.
func Comment(text string) Item { return Item{Kind: ItemComment, Text: text} }

// section returns the named section, creating it at the end if absent.
func (d *Document) section(name string) *Section {
	for i := range d.Sections {
		if d.Sections[i].Name == name {
			return &d.Sections[i]
		}
	}
	d.Sections = append(d.Sections, Section{Name: name})
	return &d.Sections[len(d.Sections)-1]
}

// Clone deep-copies the document so callers (namespacer, merger) can
// rewrite it without mutating a shared original (spec §3 "Document ASTs
// are owned by a single pipeline stage and moved forward; no sharing
// across stages").
func (d *Document) Clone() *Document {
	out := &Document{Sections: make([]Section, len(d.Sections))}
	for i, s := range d.Sections {
		items := make([]Item, len(s.Items))
		for j, it := range s.Items {
			cp := it
			cp.Args = append([]string(nil), it.Args...)
			items[j] = cp
		}
		out.Sections[i] = Section{Name: s.Name, Items: items}
	}
	return out
}
