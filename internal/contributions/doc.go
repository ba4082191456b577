// Package contributions implements the media upload flow. A Draft walks
// details -> upload -> submitted; dictated transcript segments extend the
// description while the draft is on the details step. Submitting copies the
// file into the media directory and records a contribution history entry.
package contributions
