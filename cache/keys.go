package cache

import (
	"strconv"
	"strings"
	"unicode"
)

// KeySeparator is the delimiter between cache key segments. It matches the
// naming scheme used across every domain: "products_brand_42",
// "cart_subtotal_7", "wishlist_items_user_3".
const KeySeparator = "_"

// MaxTermLength bounds search-derived key segments so keys stay within the
// length and charset limits of the cache backends.
const MaxTermLength = 50

// Key joins segments into a cache key.
func Key(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}

// ID renders a numeric identifier as a key segment.
func ID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// SanitizeTerm reduces a free-form search query to a bounded key segment:
// lowercase, alphanumeric plus hyphen and underscore, whitespace collapsed
// to hyphens, truncated to MaxTermLength runes. An empty result means the
// query produced nothing cacheable and the lookup should bypass the cache.
func SanitizeTerm(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))

	var b strings.Builder
	b.Grow(len(q))
	lastHyphen := false
	for _, r := range q {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			lastHyphen = false
		case r == '-' || unicode.IsSpace(r):
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	s := strings.TrimRight(b.String(), "-")
	if len(s) > MaxTermLength {
		s = strings.TrimRight(s[:MaxTermLength], "-")
	}
	return s
}
