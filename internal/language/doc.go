// Package language maps BCP-47 narration language tags to display names and
// espeak-ng voices.
//
// Tags are parsed with golang.org/x/text/language so stored values in any
// case ("HI-in") resolve to the canonical supported tag.
package language
