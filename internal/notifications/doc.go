// Package notifications delivers operator alerts for Curator through ntfy.
//
// Batch pipeline runs, publish operations and unexpected failures can emit a
// short push message to a configured ntfy topic. When no topic is configured
// NewService returns a no-op implementation so callers never branch on
// whether alerts are enabled.
package notifications
