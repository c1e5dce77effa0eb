package rollup

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// NameCollator orders display names for a locale. A collate.Collator keeps internal buffers,
// so every sort asks for its own comparer.
type NameCollator struct {
	tag language.Tag
}

func NewNameCollator(locale string) (NameCollator, error) {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return NameCollator{}, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return NameCollator{tag: tag}, nil
}

func (n NameCollator) Locale() string {
	return n.tag.String()
}

// Comparer returns a three-way string comparison for one sort pass.
func (n NameCollator) Comparer() func(a, b string) int {
	c := collate.New(n.tag)
	return c.CompareString
}

// fold normalizes a string for caseless matching in the locale.
func (n NameCollator) fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
