package parser

import "strings"

// separators are tried in priority order; the first type present wins.
var separators = []string{" - ", ", ", " | "}

// SplitEntry separates the text after the price into an item and an optional description.
// The description is nil when no separator occurs. ok is false when the item is empty.
func SplitEntry(rest string) (item string, description *string, ok bool) {
	for _, sep := range separators {
		if !strings.Contains(rest, sep) {
			continue
		}
		parts := strings.SplitN(rest, sep, 2)
		item = strings.TrimSpace(parts[0])
		desc := strings.TrimSpace(parts[1])
		return item, &desc, item != ""
	}
	item = strings.TrimSpace(rest)
	return item, nil, item != ""
}
