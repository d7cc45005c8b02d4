// Package notifications delivers operational events over ntfy.
//
// Two events exist: a summary after each pass and an alert when an episode
// fails. The service degrades to a no-op when no topic is configured, and
// each event can be switched off in the [notifications] section.
package notifications
