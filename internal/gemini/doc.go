// Package gemini wraps the three content operations arheritage needs from the
// Gemini generateContent REST API: describing a photographed landmark,
// narrating a location in a chosen language, and listing nearby heritage
// sites as schema-constrained JSON.
//
// Every failure is returned as *GatewayError carrying the inline message the
// caller shows to the user. Nothing is retried unless WithRetryMaxAttempts is
// set, and nothing is cached.
package gemini
