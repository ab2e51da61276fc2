package importer

import (
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// A Collator keeps internal buffers and is not safe for concurrent use.
var collators = sync.Pool{
	New: func() any {
		return collate.New(language.French, collate.Loose)
	},
}

// SameText reports whether a and b identify the same thing: both blank, or equal once
// trimmed under French collation ignoring case, accents and width.
func SameText(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return a == b
	}

	c := collators.Get().(*collate.Collator)
	defer collators.Put(c)
	return c.CompareString(a, b) == 0
}
