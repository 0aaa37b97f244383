package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config holds server configuration values.
type Config struct {
	ListenHost   string `mapstructure:"listen_host" yaml:"listen_host"`
	Port         int    `mapstructure:"port" yaml:"port"`
	Password     string `mapstructure:"password" yaml:"password"`
	PasswordHash string `mapstructure:"password_hash" yaml:"password_hash"`
	ServerName   string `mapstructure:"server_name" yaml:"server_name"`

	MaxClients     int           `mapstructure:"max_clients" yaml:"max_clients"`
	MaxLineLength  int           `mapstructure:"max_line_length" yaml:"max_line_length"`
	SendQueueLimit int           `mapstructure:"send_queue_limit" yaml:"send_queue_limit"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	FloodRate      float64       `mapstructure:"flood_rate" yaml:"flood_rate"`
	FloodBurst     int           `mapstructure:"flood_burst" yaml:"flood_burst"`

	Capabilities []string `mapstructure:"capabilities" yaml:"capabilities"`

	HTTPAddr        string        `mapstructure:"http_addr" yaml:"http_addr"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		ListenHost:      "",
		Port:            6667,
		ServerName:      "ircserv",
		MaxClients:      512,
		MaxLineLength:   4096,
		SendQueueLimit:  1 << 20,
		WriteTimeout:    10 * time.Second,
		FloodRate:       0,
		FloodBurst:      20,
		Capabilities:    []string{"multi-prefix"},
		LogLevel:        "info",
		ShutdownTimeout: 5 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.ListenHost != "" {
		c.ListenHost = other.ListenHost
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.Password != "" {
		c.Password = other.Password
	}
	if other.PasswordHash != "" {
		c.PasswordHash = other.PasswordHash
	}
	if other.ServerName != "" {
		c.ServerName = other.ServerName
	}
	if other.MaxClients != 0 {
		c.MaxClients = other.MaxClients
	}
	if other.MaxLineLength != 0 {
		c.MaxLineLength = other.MaxLineLength
	}
	if other.SendQueueLimit != 0 {
		c.SendQueueLimit = other.SendQueueLimit
	}
	if other.WriteTimeout != 0 {
		c.WriteTimeout = other.WriteTimeout
	}
	if other.FloodRate != 0 {
		c.FloodRate = other.FloodRate
	}
	if other.FloodBurst != 0 {
		c.FloodBurst = other.FloodBurst
	}
	if len(other.Capabilities) > 0 {
		c.Capabilities = other.Capabilities
	}
	if other.HTTPAddr != "" {
		c.HTTPAddr = other.HTTPAddr
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
}

// ListenAddr is the host:port the IRC listener binds.
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.ListenHost, strconv.Itoa(c.Port))
}

// Validate reports the first setting the server cannot start with.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", c.Port)
	}
	if c.Password == "" && c.PasswordHash == "" {
		return errors.New("a connection password or password_hash is required")
	}
	if c.ServerName == "" {
		return errors.New("server_name must not be empty")
	}
	if c.MaxClients < 0 {
		return fmt.Errorf("max_clients %d must not be negative", c.MaxClients)
	}
	if c.MaxLineLength < 512 {
		return fmt.Errorf("max_line_length %d is below the protocol minimum of 512", c.MaxLineLength)
	}
	if c.SendQueueLimit < c.MaxLineLength {
		return fmt.Errorf("send_queue_limit %d cannot hold one line of %d bytes", c.SendQueueLimit, c.MaxLineLength)
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout %v must be positive", c.WriteTimeout)
	}
	if c.FloodRate < 0 {
		return fmt.Errorf("flood_rate %v must not be negative", c.FloodRate)
	}
	return nil
}
