package language

import (
	"sort"
	"strings"

	xlanguage "golang.org/x/text/language"
)

// DefaultTag is the narration language used when none is configured.
const DefaultTag = "en-IN"

type entry struct {
	tag     string // BCP-47 tag with region (e.g. hi-IN)
	display string // Human-readable name sent to the content model
	espeak  string // espeak-ng voice identifier
}

var languages = []entry{
	{"en-IN", "English (India)", "en"},
	{"hi-IN", "Hindi", "hi"},
	{"bn-IN", "Bengali", "bn"},
	{"ta-IN", "Tamil", "ta"},
	{"te-IN", "Telugu", "te"},
	{"mr-IN", "Marathi", "mr"},
	{"gu-IN", "Gujarati", "gu"},
	{"kn-IN", "Kannada", "kn"},
	{"ml-IN", "Malayalam", "ml"},
	{"pa-IN", "Punjabi", "pa"},
}

var byTag map[string]*entry

func init() {
	byTag = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byTag[e.tag] = e
	}
}

// Canonical parses value as a BCP-47 tag and returns its canonical form
// (e.g. "HI-in" becomes "hi-IN"). Returns "" when value does not parse.
func Canonical(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	tag, err := xlanguage.Parse(value)
	if err != nil {
		return ""
	}
	return tag.String()
}

func lookup(value string) *entry {
	canonical := Canonical(value)
	if canonical == "" {
		return nil
	}
	return byTag[canonical]
}

// Supported reports whether value names one of the narration languages.
func Supported(value string) bool {
	return lookup(value) != nil
}

// Normalize returns the canonical supported tag for value and true, or "" and
// false when value is not a supported narration language.
func Normalize(value string) (string, bool) {
	if e := lookup(value); e != nil {
		return e.tag, true
	}
	return "", false
}

// DisplayName returns the language name for a supported tag. Unsupported or
// empty input falls back to the default language's name.
func DisplayName(value string) string {
	if e := lookup(value); e != nil {
		return e.display
	}
	return byTag[DefaultTag].display
}

// EspeakVoice returns the espeak-ng voice identifier for a tag. Unsupported
// tags fall back to the base language subtag.
func EspeakVoice(value string) string {
	if e := lookup(value); e != nil {
		return e.espeak
	}
	if tag, err := xlanguage.Parse(strings.TrimSpace(value)); err == nil {
		base, _ := tag.Base()
		return base.String()
	}
	return byTag[DefaultTag].espeak
}

// Option is a selectable narration language.
type Option struct {
	Tag  string `json:"tag"`
	Name string `json:"name"`
}

// Options lists the supported narration languages sorted by tag.
func Options() []Option {
	out := make([]Option, 0, len(languages))
	for _, e := range languages {
		out = append(out, Option{Tag: e.tag, Name: e.display})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

// Base returns the primary language subtag of value ("hi" for "hi-IN").
func Base(value string) string {
	tag, err := xlanguage.Parse(strings.TrimSpace(value))
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	return base.String()
}
