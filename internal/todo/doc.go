// Package todo recognizes TODO-style markers and the ticket references that
// follow them.
//
// A Pattern is built once per configuration from a Vocabulary of marker
// words and the list of allowed ticket project prefixes:
//
//	p, err := todo.Build(todo.Vocabulary{
//		Allowed:    []string{"TODO"},
//		Disallowed: []string{"FIXME", "QQ"},
//	}, []string{"ABC"})
//
// and then applied to each source line:
//
//	for _, m := range p.Matches("# TODO ABC-123 tidy up", 12) {
//		// m.Marker == "TODO", m.Ticket == "ABC-123", m.Column == 2
//	}
//
// # Word boundaries
//
// A marker only matches as a whole word: the characters directly before and
// after it must not be letters, so "fixture" and "suffix" never match the
// marker "fix". Digits and punctuation are valid boundaries ("TODO:",
// "(TODO)", "TODO1").
//
// # Ticket references
//
// A ticket reference is exactly one whitespace character, an allowed project
// prefix, a hyphen and one or more digits, directly after the marker
// ("TODO ABC-123"). A reference followed by a letter or another digit run
// that cannot be split ("TODO ABC-123x") is not captured; the marker alone is
// still reported. With no project prefixes configured no reference is ever
// captured.
//
// # Columns
//
// Match.Column is the 0-based offset of the marker's first character counted
// in characters (runes), not bytes, so it lines up with editors and with
// hosts that index lines as text.
package todo
