// internal/render/slug.go
//
// DeriveSlug turns a title into lower-kebab ASCII.
//
// Rules
// -----
//  1. Lower-case everything.
//  2. Any run of characters outside [a-z0-9] becomes one "-".  That strips
//     spaces, punctuation, emoji and non-ASCII.
//  3. Trim leading and trailing "-".
//  4. Cap at maxSlug bytes, trimming a dash the cut may leave behind.
//
// An input with no ASCII letters or digits yields "".  Running DeriveSlug
// on its own output returns it unchanged.

package render

import "strings"

const maxSlug = 100

// DeriveSlug converts title to a URL-safe slug, or "" if nothing remains.
func DeriveSlug(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlug {
		slug = strings.TrimRight(slug[:maxSlug], "-")
	}
	return slug
}
