// Package discovery runs the location flow: a single-shot position, a
// description of the surroundings in the stored narration language, the
// discovery history entry and an independent list of nearby heritage sites.
//
// Each section of a View loads in its own goroutine and owns its loading,
// error and value fields, so a failure in one never blocks or clears the
// other. Completions are applied only while the view is mounted.
package discovery
