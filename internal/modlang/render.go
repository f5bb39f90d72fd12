package modlang

import "strings"

// Render serializes doc back to text in the dialect Parse reads (spec
// §4.6). The synthetic GLOBAL section, if present, is rendered without
// a `[GLOBAL]` header, matching how it reads when nothing precedes the
// first real section.
func Render(doc *Document) string {
	var b strings.Builder
	for _, s := range doc.Sections {
		if s.Name != GlobalSection {
			b.WriteString("[")
			b.WriteString(s.Name)
			b.WriteString("]\n")
		}
		for _, it := range s.Items {
			renderItem(&b, it)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderItem(b *strings.Builder, it Item) {
	switch it.Kind {
	case ItemPair:
		b.WriteString(it.Key)
		b.WriteString(" = ")
		b.WriteString(it.Value)
		b.WriteString("\n")
	case ItemCommand:
		b.WriteString(it.Verb)
		for _, a := range it.Args {
			b.WriteString(" ")
			b.WriteString(a)
		}
		b.WriteString("\n")
	case ItemComment:
		b.WriteString("; ")
		b.WriteString(it.Text)
		b.WriteString("\n")
	}
}
