// Package textutil provides text helpers shared by the scan, discovery and
// contribution flows.
//
// The primary use cases are:
//   - Splitting generated narratives on marker lines (VIDEO_SEARCH:, IMAGE_QUERY:)
//   - Deriving display titles and narration text from narratives
//   - Building search and image URLs with browser-compatible component encoding
//   - Sanitizing uploaded file names for safe filesystem use
package textutil
