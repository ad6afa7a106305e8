// Package stream implements the connection to the bot's live event feed.
//
// The Manager:
//   - Owns a single WebSocket connection and its lifecycle state
//   - Decodes incoming frames and fans them out to any number of subscribers
//   - Reconnects autonomously with exponential backoff on transport failure
//   - Drops malformed frames per-message without touching connection state
package stream
