// Package status implements the timer-driven status-polling fallback: a
// periodic GET against the bot's REST API with last-value caching. It
// covers the gap when the live feed is reconnecting.
package status
