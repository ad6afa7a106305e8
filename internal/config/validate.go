package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *ConsoleConfig) Validate() error {
	if c.Feed.URL == "" {
		return errors.New("feed.url is required")
	}
	if !strings.HasPrefix(c.Feed.URL, "ws://") && !strings.HasPrefix(c.Feed.URL, "wss://") {
		return fmt.Errorf("feed.url must be a ws:// or wss:// URL, got %q", c.Feed.URL)
	}

	if c.Feed.ReconnectBaseDelay <= 0 {
		return errors.New("feed.reconnect_base_delay must be > 0")
	}
	if c.Feed.ReconnectMaxDelay < c.Feed.ReconnectBaseDelay {
		return fmt.Errorf("feed.reconnect_max_delay (%v) cannot be below feed.reconnect_base_delay (%v)",
			c.Feed.ReconnectMaxDelay, c.Feed.ReconnectBaseDelay)
	}
	if c.Feed.ReconnectGrowth <= 1 {
		return fmt.Errorf("feed.reconnect_growth must be > 1, got %v", c.Feed.ReconnectGrowth)
	}
	if c.Feed.SubscriberQueueSize < 1 {
		return errors.New("feed.subscriber_queue_size must be >= 1")
	}

	if c.Views.TradeBufferCap < 1 {
		return errors.New("views.trade_buffer_cap must be >= 1")
	}

	if c.Status.Interval <= 0 {
		return errors.New("status.interval must be > 0")
	}
	if c.Status.Timeout <= 0 {
		return errors.New("status.timeout must be > 0")
	}

	if c.UI.RefreshInterval <= 0 {
		return errors.New("ui.refresh_interval must be > 0")
	}

	return nil
}
