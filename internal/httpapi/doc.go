// Package httpapi exposes every user flow over HTTP with a gorilla/mux
// router.
//
// Account routes issue bearer session tokens; every other /api route
// requires one. Scan sessions and discovery views live in per-user
// registries: opening a new one closes the user's previous one, the way
// navigating away does on a screen. Errors are JSON {"error", "kind"}
// payloads whose status follows the apperr marker (validation 400,
// unauthorized 401, permission 403, not found 404, invalid navigation 409,
// gateway and parse 502, device 503).
package httpapi
