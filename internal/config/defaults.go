package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultFeedURL             = "ws://127.0.0.1:8100/ws"
	DefaultAPIBaseURL          = "http://127.0.0.1:8100"
	DefaultAPITimeout          = 5 * time.Second
	DefaultAPIMaxRetries       = 2
	DefaultReconnectBaseDelay  = 1 * time.Second
	DefaultReconnectMaxDelay   = 30 * time.Second
	DefaultReconnectGrowth     = 2.0
	DefaultPingTimeout         = 60 * time.Second
	DefaultHeartbeatInterval   = 30 * time.Second
	DefaultWriteTimeout        = 5 * time.Second
	DefaultSubscriberQueueSize = 256
	DefaultTradeBufferCap      = 100
	DefaultStatusInterval      = 5 * time.Second
	DefaultStatusTimeout       = 3 * time.Second
	DefaultRefreshInterval     = 2 * time.Second
	DefaultMaxOrderRows        = 20
	DefaultMaxTradeRows        = 20
)

func (c *ConsoleConfig) applyDefaults() {
	// Feed defaults
	if c.Feed.URL == "" {
		c.Feed.URL = DefaultFeedURL
	}
	if c.Feed.ReconnectBaseDelay == 0 {
		c.Feed.ReconnectBaseDelay = Duration(DefaultReconnectBaseDelay)
	}
	if c.Feed.ReconnectMaxDelay == 0 {
		c.Feed.ReconnectMaxDelay = Duration(DefaultReconnectMaxDelay)
	}
	if c.Feed.ReconnectGrowth == 0 {
		c.Feed.ReconnectGrowth = DefaultReconnectGrowth
	}
	if c.Feed.PingTimeout == 0 {
		c.Feed.PingTimeout = Duration(DefaultPingTimeout)
	}
	if c.Feed.HeartbeatInterval == 0 {
		c.Feed.HeartbeatInterval = Duration(DefaultHeartbeatInterval)
	}
	if c.Feed.WriteTimeout == 0 {
		c.Feed.WriteTimeout = Duration(DefaultWriteTimeout)
	}
	if c.Feed.SubscriberQueueSize == 0 {
		c.Feed.SubscriberQueueSize = DefaultSubscriberQueueSize
	}

	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBaseURL
	}
	if c.API.Token == "" {
		c.API.Token = c.Feed.Token
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = Duration(DefaultAPITimeout)
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultAPIMaxRetries
	}

	// Views defaults
	if c.Views.TradeBufferCap == 0 {
		c.Views.TradeBufferCap = DefaultTradeBufferCap
	}

	// Status defaults
	if c.Status.Interval == 0 {
		c.Status.Interval = Duration(DefaultStatusInterval)
	}
	if c.Status.Timeout == 0 {
		c.Status.Timeout = Duration(DefaultStatusTimeout)
	}

	// UI defaults
	if c.UI.RefreshInterval == 0 {
		c.UI.RefreshInterval = Duration(DefaultRefreshInterval)
	}
	if c.UI.MaxOrderRows == 0 {
		c.UI.MaxOrderRows = DefaultMaxOrderRows
	}
	if c.UI.MaxTradeRows == 0 {
		c.UI.MaxTradeRows = DefaultMaxTradeRows
	}
}
