package textutil

import "strings"

const (
	videoSearchBase = "https://www.youtube.com/results?search_query="
	locationImage   = "https://source.unsplash.com/600x800/?"
	placeImage      = "https://source.unsplash.com/400x300/?"

	// DefaultLocationImageURL is shown when a location narrative carries no image hint.
	DefaultLocationImageURL = "https://images.unsplash.com/photo-1524231757912-21f4fe3a7207?q=80&w=2070&auto=format&fit=crop"
)

// VideoSearchURL builds a video search link for query.
func VideoSearchURL(query string) string {
	return videoSearchBase + EncodeURIComponent(query)
}

// LocationImageURL builds the portrait background image URL for a location hint.
func LocationImageURL(query string) string {
	return locationImage + EncodeURIComponent(query)
}

// PlaceImageURL builds the card image URL for a nearby place hint.
func PlaceImageURL(query string) string {
	return placeImage + EncodeURIComponent(query)
}

const upperhex = "0123456789ABCDEF"

// EncodeURIComponent percent-encodes s using the browser encodeURIComponent
// rules: ASCII letters, digits and -_.!~*'() pass through, everything else is
// UTF-8 percent-encoded. Spaces become %20.
func EncodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreservedComponent(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isUnreservedComponent(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
