package api

import "fmt"

// BotStatus is the bot's self-reported state from GET /status.
type BotStatus struct {
	Running bool    `json:"running"`
	Symbol  string  `json:"symbol"`
	Equity  float64 `json:"equity"`
	TS      int64   `json:"ts"`
}

// APIError represents a non-2xx response from the bot API.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bot api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
