// Package scan runs the landmark scan flow: a live camera, a single frame
// sent for analysis, the result (or its error) and optional feedback.
//
// Session state is a sum type. Every transition is checked against the
// current state under the session mutex, and each analysis is tagged with a
// generation number so a completion that arrives after Scan Again or Close
// is dropped instead of overwriting newer state. The AI request itself is
// never cancelled by navigation.
package scan
