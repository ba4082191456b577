// Package notifications alerts curators about user activity that needs
// review.
//
// The ntfy implementation posts to the topic URL configured under
// [notifications]. Without a topic, NewService returns a no-op so callers
// never need to check whether alerts are enabled.
package notifications
