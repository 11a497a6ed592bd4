package config

import "time"

// Config holds client configuration values.
type Config struct {
	// Server endpoints.
	ServerURL string `mapstructure:"server_url" yaml:"server_url"`
	AuthURL   string `mapstructure:"auth_url" yaml:"auth_url"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`

	// Transport behavior.
	AutoReconnect     bool          `mapstructure:"auto_reconnect" yaml:"auto_reconnect"`
	ReconnectMinDelay time.Duration `mapstructure:"reconnect_min_delay" yaml:"reconnect_min_delay"`
	ReconnectMaxDelay time.Duration `mapstructure:"reconnect_max_delay" yaml:"reconnect_max_delay"`
	KeepAliveInterval time.Duration `mapstructure:"keep_alive_interval" yaml:"keep_alive_interval"`

	// Entity replication.
	SendHz        float64 `mapstructure:"send_hz" yaml:"send_hz"`
	MinPosDelta   float64 `mapstructure:"min_pos_delta" yaml:"min_pos_delta"`
	MinRotDelta   float64 `mapstructure:"min_rot_delta" yaml:"min_rot_delta"`
	MinScaleDelta float64 `mapstructure:"min_scale_delta" yaml:"min_scale_delta"`
	PositionLerp  float64 `mapstructure:"position_lerp" yaml:"position_lerp"`
	RotationLerp  float64 `mapstructure:"rotation_lerp" yaml:"rotation_lerp"`
	ScaleLerp     float64 `mapstructure:"scale_lerp" yaml:"scale_lerp"`

	// Room defaults.
	DefaultRoomName   string `mapstructure:"default_room_name" yaml:"default_room_name"`
	DefaultMaxPlayers int    `mapstructure:"default_max_players" yaml:"default_max_players"`

	// Local persistence.
	SettingsPath string `mapstructure:"settings_path" yaml:"settings_path"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		ServerURL:         "ws://localhost:8000/ws/game",
		AuthURL:           "http://localhost:8000",
		APIKey:            "",
		AutoReconnect:     true,
		ReconnectMinDelay: time.Second,
		ReconnectMaxDelay: 10 * time.Second,
		KeepAliveInterval: 30 * time.Second,
		SendHz:            15,
		MinPosDelta:       0.005,
		MinRotDelta:       0.5,
		MinScaleDelta:     0.005,
		PositionLerp:      12,
		RotationLerp:      12,
		ScaleLerp:         12,
		DefaultRoomName:   "",
		DefaultMaxPlayers: 2,
		SettingsPath:      "chronosync.db",
		LogLevel:          "info",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.ServerURL != "" {
		c.ServerURL = other.ServerURL
	}
	if other.AuthURL != "" {
		c.AuthURL = other.AuthURL
	}
	if other.APIKey != "" {
		c.APIKey = other.APIKey
	}
	if other.ReconnectMinDelay != 0 {
		c.ReconnectMinDelay = other.ReconnectMinDelay
	}
	if other.ReconnectMaxDelay != 0 {
		c.ReconnectMaxDelay = other.ReconnectMaxDelay
	}
	if other.KeepAliveInterval != 0 {
		c.KeepAliveInterval = other.KeepAliveInterval
	}
	if other.SendHz != 0 {
		c.SendHz = other.SendHz
	}
	if other.SettingsPath != "" {
		c.SettingsPath = other.SettingsPath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}
