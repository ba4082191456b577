// Package narration reads descriptions aloud with the persisted audio
// settings. A Narrator owns at most one utterance, re-derives its preferred
// voice whenever the synthesizer's voice list changes and is shared by the
// scan and discovery flows.
package narration
