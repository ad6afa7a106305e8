package config

// ConsoleConfig is the root configuration for a console instance.
type ConsoleConfig struct {
	Feed   FeedConfig   `yaml:"feed"`
	API    APIConfig    `yaml:"api"`
	Views  ViewsConfig  `yaml:"views"`
	Status StatusConfig `yaml:"status"`
	UI     UIConfig     `yaml:"ui"`
}

// FeedConfig holds live event feed settings.
type FeedConfig struct {
	URL                 string   `yaml:"url"`
	Token               string   `yaml:"token"`
	ReconnectBaseDelay  Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay   Duration `yaml:"reconnect_max_delay"`
	ReconnectGrowth     float64  `yaml:"reconnect_growth"`
	PingTimeout         Duration `yaml:"ping_timeout"`
	HeartbeatInterval   Duration `yaml:"heartbeat_interval"`
	WriteTimeout        Duration `yaml:"write_timeout"`
	SubscriberQueueSize int      `yaml:"subscriber_queue_size"`
}

// APIConfig holds bot REST API settings.
type APIConfig struct {
	BaseURL    string   `yaml:"base_url"`
	Token      string   `yaml:"token"`
	Timeout    Duration `yaml:"timeout"`
	MaxRetries int      `yaml:"max_retries"`
}

// ViewsConfig holds reconciled view settings.
type ViewsConfig struct {
	TradeBufferCap int `yaml:"trade_buffer_cap"`
}

// StatusConfig holds status poller settings.
type StatusConfig struct {
	Interval Duration `yaml:"interval"`
	Timeout  Duration `yaml:"timeout"`
}

// UIConfig holds terminal rendering settings.
type UIConfig struct {
	RefreshInterval Duration `yaml:"refresh_interval"`
	MaxOrderRows    int      `yaml:"max_order_rows"`
	MaxTradeRows    int      `yaml:"max_trade_rows"`
}
