// Package accounts implements sign-up, login and session tokens.
//
// Accounts live in the records user database. Passwords are bcrypt hashes and
// sessions are HS256 JWTs whose subject is the lowercased account email.
package accounts
