package platform

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"
)

var pinyinArgs = pinyin.NewArgs()

// SortKey builds a collation key for a title. Han characters sort by their
// pinyin reading, everything else by its lower-cased form.
func SortKey(title string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(title) {
		if unicode.Is(unicode.Han, r) {
			if readings := pinyin.LazyConvert(string(r), &pinyinArgs); len(readings) > 0 {
				b.WriteString(readings[0])
				continue
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
