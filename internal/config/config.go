package config

import (
	"errors"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	HTTPAddr          string        `mapstructure:"http_addr" yaml:"http_addr"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	Lobby             string        `mapstructure:"lobby" yaml:"lobby"`
	MaxNameLen        int           `mapstructure:"max_name_len" yaml:"max_name_len"`
	MaxChannelLen     int           `mapstructure:"max_channel_len" yaml:"max_channel_len"`
	MaxMsgLen         int           `mapstructure:"max_msg_len" yaml:"max_msg_len"`
	MaxUsers          int           `mapstructure:"max_users" yaml:"max_users"`
	MaxChannels       int           `mapstructure:"max_channels" yaml:"max_channels"`
	MaxRetries        int           `mapstructure:"max_retries" yaml:"max_retries"`
	Backlog           int           `mapstructure:"backlog" yaml:"backlog"`
	SendTimeout       time.Duration `mapstructure:"send_timeout" yaml:"send_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8888",
		HTTPAddr:          ":8080",
		DatabasePath:      "relaychat.db",
		LogLevel:          "info",
		Lobby:             "lobby",
		MaxNameLen:        50,
		MaxChannelLen:     200,
		MaxMsgLen:         4096,
		MaxUsers:          64,
		MaxChannels:       32,
		MaxRetries:        5,
		Backlog:           16,
		SendTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.HTTPAddr != "" {
		c.HTTPAddr = other.HTTPAddr
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.Lobby != "" {
		c.Lobby = other.Lobby
	}
	if other.MaxNameLen != 0 {
		c.MaxNameLen = other.MaxNameLen
	}
	if other.MaxChannelLen != 0 {
		c.MaxChannelLen = other.MaxChannelLen
	}
	if other.MaxMsgLen != 0 {
		c.MaxMsgLen = other.MaxMsgLen
	}
	if other.MaxUsers != 0 {
		c.MaxUsers = other.MaxUsers
	}
	if other.MaxChannels != 0 {
		c.MaxChannels = other.MaxChannels
	}
	if other.MaxRetries != 0 {
		c.MaxRetries = other.MaxRetries
	}
	if other.Backlog != 0 {
		c.Backlog = other.Backlog
	}
	if other.SendTimeout != 0 {
		c.SendTimeout = other.SendTimeout
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
}

// Validate reports the first limit that cannot be used to run the server.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("addr is required")
	case c.Lobby == "":
		return errors.New("lobby name is required")
	case c.MaxNameLen <= 0:
		return errors.New("max_name_len must be positive")
	case c.MaxChannelLen <= 0:
		return errors.New("max_channel_len must be positive")
	case len(c.Lobby) > c.MaxChannelLen:
		return errors.New("lobby name exceeds max_channel_len")
	case c.MaxMsgLen <= 0:
		return errors.New("max_msg_len must be positive")
	case c.MaxUsers <= 0:
		return errors.New("max_users must be positive")
	case c.MaxChannels <= 0:
		return errors.New("max_channels must be positive")
	case c.MaxRetries <= 0:
		return errors.New("max_retries must be positive")
	case c.Backlog < 0:
		return errors.New("backlog must not be negative")
	}
	return nil
}
