// Package app holds the application-wide state shared by every flow.
//
// Context carries the theme, narration settings and user profile, loaded
// from the record store once and written back on every change. Router
// tracks which screen is showing: the splash screen advances to the auth
// screen on a timer, a successful login or sign-up enters the main layout,
// and logout returns to auth. Screen is a closed sum type; switch over
// Splash, Auth and Main.
package app
