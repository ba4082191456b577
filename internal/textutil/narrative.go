package textutil

import "strings"

const (
	// VideoSearchMarker separates an image description from its video search hint.
	VideoSearchMarker = "VIDEO_SEARCH:"
	// ImageQueryMarker separates a location narrative from its image search hint.
	ImageQueryMarker = "IMAGE_QUERY:"
	// UnknownLocationTitle is used when a narrative has no first line.
	UnknownLocationTitle = "Unknown Location"
)

// SplitMarker splits text on the first occurrence of marker. body is the
// trimmed text before the marker; hint is the trimmed text between the first
// marker and the next one (or the end). found reports whether the marker
// appeared at all.
func SplitMarker(text, marker string) (body, hint string, found bool) {
	parts := strings.Split(text, marker)
	body = strings.TrimSpace(parts[0])
	if len(parts) < 2 {
		return body, "", false
	}
	return body, strings.TrimSpace(parts[1]), true
}

// Title returns the first line of a narrative, or UnknownLocationTitle when it is empty.
func Title(narrative string) string {
	first, _, _ := strings.Cut(narrative, "\n")
	if strings.TrimSpace(first) == "" {
		return UnknownLocationTitle
	}
	return strings.TrimRight(first, "\r")
}

// NarrationText drops the title line and joins the remaining lines with spaces.
func NarrationText(narrative string) string {
	lines := strings.Split(narrative, "\n")
	if len(lines) <= 1 {
		return ""
	}
	return strings.Join(lines[1:], " ")
}

// Paragraphs returns the non-blank lines of text.
func Paragraphs(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
