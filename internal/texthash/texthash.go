// Package texthash provides the cheap content hash used as a dedup and
// approval key for composed messages. Collisions are an accepted risk, not a
// security property; the hash only prevents re-prompting on identical text.
package texthash

import (
	"strconv"
	"unicode/utf16"
)

// Sum hashes text to a short decimal string (h = h*31 + c over a wrapping
// int32, per UTF-16 code unit). The content script derives the same key, so
// approval state agrees across the bridge; surrogate pairs hash as two units.
func Sum(text string) string {
	var h int32
	for _, u := range utf16.Encode([]rune(text)) {
		h = (h << 5) - h + int32(u)
	}
	return strconv.FormatInt(int64(h), 10)
}
