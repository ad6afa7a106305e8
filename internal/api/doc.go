// Package api provides a minimal client for the bot's REST control API.
// The live event core itself has no REST dependency; this client exists
// for the status-polling fallback.
package api
